// Package owner keeps the feed owner's unlock token in the visitor's
// session namespace.
package owner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/storage"
)

const TokenKey = "utd_token"

var ErrIncorrectPassphrase = errors.New("incorrect passphrase")

type Verifier interface {
	Verify(ctx context.Context, password string) (string, error)
}

type Session struct {
	storage  storage.Storage
	verifier Verifier
}

func NewSession(s storage.Storage, v Verifier) *Session {
	return &Session{storage: s, verifier: v}
}

// Verify trades the passphrase for a token. Wrong passphrases and transport
// failures look the same to the caller.
func (s *Session) Verify(ctx context.Context, passphrase string) error {
	l := logging.FromContext(ctx).With("component", "owner.verify")

	if strings.TrimSpace(passphrase) == "" {
		return ErrIncorrectPassphrase
	}
	token, err := s.verifier.Verify(ctx, passphrase)
	if err != nil || token == "" {
		l.Info("owner_verify_rejected", "error", err)
		return ErrIncorrectPassphrase
	}
	if err := s.storage.SetItem(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("store owner token: %w", err)
	}
	l.Info("owner_unlocked")
	return nil
}

func (s *Session) Lock(ctx context.Context) error {
	return s.storage.RemoveItem(ctx, TokenKey)
}

// Token is "" when the session is locked.
func (s *Session) Token(ctx context.Context) string {
	tok, err := s.storage.GetItem(ctx, TokenKey)
	if err != nil {
		return ""
	}
	return tok
}

func (s *Session) IsOwner(ctx context.Context) bool {
	return s.Token(ctx) != ""
}
