package service

import (
	"context"
	"time"

	"github.com/BloggingApp/chirp-service/internal/directory"
	"github.com/BloggingApp/chirp-service/internal/model"
	"github.com/BloggingApp/chirp-service/internal/repository"
	"go.uber.org/zap"
)

const (
	FEED_LIMIT          = 100
	MAX_CONTENT_LENGTH  = 255
	RATE_LIMIT_WINDOW   = 60 * time.Second
	DEFAULT_GUARD_TTL   = 5 * time.Second
	guardReleaseTimeout = 2 * time.Second
)

type Post interface {
	// Create stores a post for authorID. It fails with ErrTooManyRequests when
	// the author's latest post is younger than RATE_LIMIT_WINDOW.
	Create(ctx context.Context, authorID string, content string) (*model.Post, error)
	// ListRecent returns up to FEED_LIMIT of the newest posts with their authors.
	ListRecent(ctx context.Context) ([]*model.FeedEntry, error)
}

type Profile interface {
	// GetByUsername returns nil without an error when no such user exists.
	GetByUsername(ctx context.Context, username string) (*model.UserProfile, error)
	// GetByID returns nil without an error when no such user exists.
	GetByID(ctx context.Context, userID string) (*model.UserProfile, error)
}

type Publisher interface {
	PublishPostCreated(ctx context.Context, post *model.Post) error
}

type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// GuardTTL bounds how long a per-author create guard is held in redis.
	// Zero means DEFAULT_GUARD_TTL, negative disables the guard.
	GuardTTL time.Duration
}

type Service struct {
	Post
	Profile
}

func New(logger *zap.Logger, repo *repository.Repository, users directory.UserDirectory, publisher Publisher, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GuardTTL == 0 {
		opts.GuardTTL = DEFAULT_GUARD_TTL
	}

	return &Service{
		Post:    newPostService(logger, repo, users, publisher, opts),
		Profile: newProfileService(logger, users),
	}
}
