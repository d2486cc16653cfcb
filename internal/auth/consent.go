package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"drive2photos/internal/logging"
)

type callbackResult struct {
	code string
	err  error
}

// LoopbackConsent prints the consent URL and waits for the browser to
// redirect back to a one-shot listener on 127.0.0.1.
func LoopbackConsent(logger logging.Logger) ConsentFunc {
	return func(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("start consent listener: %w", err)
		}

		local := *conf
		local.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr().String())
		state := uuid.NewString()

		results := make(chan callbackResult, 1)
		server := &http.Server{Handler: callbackHandler(state, results)}
		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				deliver(results, callbackResult{err: err})
			}
		}()
		defer server.Close()

		authURL := local.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
		logger.Infof("Open this URL in your browser to authorize access:\n\n  %s\n", authURL)

		var result callbackResult
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result = <-results:
		}
		if result.err != nil {
			return nil, result.err
		}

		token, err := local.Exchange(ctx, result.code)
		if err != nil {
			return nil, fmt.Errorf("exchange authorization code: %w", err)
		}
		return token, nil
	}
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if reason := query.Get("error"); reason != "" {
			http.Error(w, "authorization denied", http.StatusForbidden)
			deliver(results, callbackResult{err: fmt.Errorf("authorization denied: %s", reason)})
			return
		}
		code := query.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
		deliver(results, callbackResult{code: code})
	})
}

func deliver(results chan<- callbackResult, result callbackResult) {
	select {
	case results <- result:
	default:
	}
}
