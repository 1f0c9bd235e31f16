package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skotchmaster/ref_site/pkg/events"
	"github.com/Skotchmaster/ref_site/pkg/hash"
	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/pkg/tokens"
	"github.com/Skotchmaster/ref_site/services/feed/internal/models"
	"github.com/Skotchmaster/ref_site/services/feed/internal/repo"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation   = errors.New("validation")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
	maxBodyRunes = 5000
)

type FeedService struct {
	Repo        *repo.GormRepo
	Events      events.Publisher
	OwnerHash   string
	TokenSecret []byte
	TokenTTL    time.Duration
	Now         func() time.Time
}

func (s *FeedService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func (s *FeedService) List(ctx context.Context, limit int) ([]models.Post, error) {
	return s.Repo.ListPosts(ctx, ClampLimit(limit))
}

func validBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("body must not be empty: %w", ErrValidation)
	}
	if utf8.RuneCountInString(body) > maxBodyRunes {
		return "", fmt.Errorf("body longer than %d characters: %w", maxBodyRunes, ErrValidation)
	}
	return body, nil
}

// Create stores an anonymous post. A valid owner token only marks the post as
// the owner's; an invalid one is ignored.
func (s *FeedService) Create(ctx context.Context, token, title, body string) (*models.Post, error) {
	body, err := validBody(body)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.Post{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Body:      body,
		ByOwner:   s.isOwner(token),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.publish(ctx, "post_created", post.ID)
	return post, nil
}

func (s *FeedService) Edit(ctx context.Context, token, id, body string) (*models.Post, error) {
	if err := s.authorize(token); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id is required: %w", ErrValidation)
	}
	body, err := validBody(body)
	if err != nil {
		return nil, err
	}

	post, err := s.Repo.UpdateBody(ctx, id, body)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "post_edited", post.ID)
	return post, nil
}

func (s *FeedService) Delete(ctx context.Context, token, id string) error {
	if err := s.authorize(token); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required: %w", ErrValidation)
	}

	err := s.Repo.DeletePost(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	s.publish(ctx, "post_deleted", id)
	return nil
}

// Verify exchanges the owner passphrase for a short-lived token. The
// passphrase itself is never stored or logged.
func (s *FeedService) Verify(password string) (string, time.Time, error) {
	if !hash.CheckPassword(s.OwnerHash, password) {
		return "", time.Time{}, fmt.Errorf("incorrect passphrase: %w", ErrUnauthorized)
	}
	return tokens.IssueOwnerToken(s.TokenSecret, s.TokenTTL, s.now())
}

func (s *FeedService) authorize(token string) error {
	if _, err := tokens.OwnerClaimsFromToken(token, s.TokenSecret); err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}

func (s *FeedService) isOwner(token string) bool {
	return token != "" && s.authorize(token) == nil
}

func (s *FeedService) publish(ctx context.Context, typ, id string) {
	if s.Events == nil {
		return
	}
	ev := map[string]any{
		"type":   typ,
		"postID": id,
		"at":     s.now().Format(time.RFC3339),
	}
	if err := s.Events.Publish(ctx, events.TopicFeed, id, ev); err != nil {
		logging.FromContext(ctx).Warn("feed_event_publish_failed", "type", typ, "error", err)
	}
}
