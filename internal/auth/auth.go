// Package auth obtains authorized HTTP clients for the Drive and Photos APIs.
// Each API has its own token file; refreshed tokens are written back and a
// missing or unusable token triggers interactive consent.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	appErrors "drive2photos/internal/errors"
	"drive2photos/internal/logging"
)

const (
	DriveTokenFile  = "token_drive.json"
	PhotosTokenFile = "token_photos.json"
)

var (
	DriveScopes = []string{
		"https://www.googleapis.com/auth/drive.readonly",
	}
	PhotosScopes = []string{
		"https://www.googleapis.com/auth/photoslibrary.appendonly",
		"https://www.googleapis.com/auth/photoslibrary.sharing",
	}
)

// ConsentFunc runs an interactive authorization for conf and returns the
// resulting token.
type ConsentFunc func(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)

type Authorizer struct {
	ClientID     string
	ClientSecret string
	TokenDir     string
	Timeout      time.Duration
	Logger       logging.Logger
	// Consent defaults to the loopback browser flow.
	Consent ConsentFunc
	// Endpoint defaults to Google's OAuth2 endpoints.
	Endpoint oauth2.Endpoint
}

func (a Authorizer) DriveClient(ctx context.Context) (*http.Client, error) {
	return a.Client(ctx, DriveTokenFile, DriveScopes)
}

func (a Authorizer) PhotosClient(ctx context.Context) (*http.Client, error) {
	return a.Client(ctx, PhotosTokenFile, PhotosScopes)
}

// Client returns an HTTP client that authorizes every request with the token
// stored in tokenFile.
func (a Authorizer) Client(ctx context.Context, tokenFile string, scopes []string) (*http.Client, error) {
	conf := a.config(scopes)
	store := NewFileTokenStore(filepath.Join(a.TokenDir, tokenFile))

	token, err := a.token(ctx, conf, store)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.Auth, tokenFile, store.Path(), err)
	}

	source := &persistingSource{
		base:  conf.TokenSource(ctx, token),
		store: store,
		last:  token.AccessToken,
		log:   a.Logger,
	}
	client := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, source))
	client.Timeout = a.Timeout
	return client, nil
}

func (a Authorizer) config(scopes []string) *oauth2.Config {
	endpoint := a.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = endpoints.Google
	}
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

// token loads a stored token, refreshing it when expired. Consent is only
// requested when no usable token can be obtained.
func (a Authorizer) token(ctx context.Context, conf *oauth2.Config, store *FileTokenStore) (*oauth2.Token, error) {
	stored, err := store.Load()
	if err != nil {
		a.Logger.Warnf("Ignoring unreadable token file %s: %v", store.Path(), err)
		stored = nil
	}

	if stored != nil && stored.Valid() {
		return stored, nil
	}
	if stored != nil && stored.RefreshToken != "" {
		refreshed, err := conf.TokenSource(ctx, stored).Token()
		if err == nil {
			if err := store.Save(refreshed); err != nil {
				return nil, err
			}
			return refreshed, nil
		}
		a.Logger.Warnf("Token refresh failed, requesting new consent: %v", err)
	}

	consent := a.Consent
	if consent == nil {
		consent = LoopbackConsent(a.Logger)
	}
	fresh, err := consent(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err := store.Save(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// persistingSource writes every newly minted access token back to disk.
type persistingSource struct {
	base  oauth2.TokenSource
	store *FileTokenStore
	log   logging.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		if err := s.store.Save(token); err != nil {
			s.log.Warnf("Could not persist refreshed token: %v", err)
		}
		s.last = token.AccessToken
	}
	return token, nil
}
