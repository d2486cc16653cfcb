package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(Internal, "op", "", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWrapKeepsChain(t *testing.T) {
	base := stderrors.New("boom")
	err := fmt.Errorf("outer: %w", Wrap(Listing, "scan", "My Drive/Photos", base))
	if !stderrors.Is(err, base) {
		t.Fatalf("expected wrapped error to match base")
	}
	if KindOf(err) != Listing {
		t.Fatalf("expected listing kind, got %s", KindOf(err))
	}
	if KindOf(base) != Internal {
		t.Fatalf("plain errors should classify as internal")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Wrap(InvalidConfig, "config", "", stderrors.New("missing GOOGLE_CLIENT_ID")), "Invalid configuration: missing GOOGLE_CLIENT_ID"},
		{Wrap(NotFound, "load", "output/photos.txt", stderrors.New("run a scan first")), "Not found: output/photos.txt"},
		{Wrap(Listing, "scan", "My Drive/Photos", stderrors.New("500")), "Listing failed under My Drive/Photos"},
		{stderrors.New("plain"), "plain"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); !strings.Contains(got, tt.want) {
			t.Fatalf("UserMessage(%v) = %q, want substring %q", tt.err, got, tt.want)
		}
	}
}
