package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/BloggingApp/chirp-service/internal/directory"
	"github.com/BloggingApp/chirp-service/internal/model"
	"github.com/BloggingApp/chirp-service/internal/repository"
	"github.com/BloggingApp/chirp-service/internal/repository/redisrepo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type postService struct {
	logger    *zap.Logger
	repo      *repository.Repository
	users     directory.UserDirectory
	publisher Publisher
	opts      Options
}

func newPostService(logger *zap.Logger, repo *repository.Repository, users directory.UserDirectory, publisher Publisher, opts Options) Post {
	return &postService{
		logger:    logger,
		repo:      repo,
		users:     users,
		publisher: publisher,
		opts:      opts,
	}
}

func validateContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n < 1 || n > MAX_CONTENT_LENGTH {
		return fmt.Errorf("%w: content must be between 1 and %d characters", ErrValidation, MAX_CONTENT_LENGTH)
	}
	return nil
}

func (s *postService) Create(ctx context.Context, authorID string, content string) (*model.Post, error) {
	if authorID == "" {
		return nil, fmt.Errorf("%w: author is required", ErrValidation)
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	release, err := s.acquireGuard(ctx, authorID)
	if err != nil {
		return nil, err
	}
	defer release()

	lastPost, err := s.repo.Postgres.Post.FindLatestByAuthor(ctx, authorID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find latest post of user(%s) from postgres: %s", authorID, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if lastPost != nil && s.opts.Now().Sub(lastPost.CreatedAt) < RATE_LIMIT_WINDOW {
		return nil, ErrTooManyRequests
	}

	post, err := s.repo.Postgres.Post.Create(ctx, authorID, content)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s) post: %s", authorID, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	// The post is already durable, so a lost event must not fail the request.
	if s.publisher != nil {
		if err := s.publisher.PublishPostCreated(ctx, post); err != nil {
			s.logger.Sugar().Errorf("failed to publish post(%s) created event: %s", post.ID.String(), err.Error())
		}
	}

	return post, nil
}

// acquireGuard makes concurrent creates by one author mutually exclusive, so that
// the latest-post check and the insert cannot interleave with another request.
func (s *postService) acquireGuard(ctx context.Context, authorID string) (func(), error) {
	if s.repo.Redis == nil || s.opts.GuardTTL < 0 {
		return func() {}, nil
	}

	key := redisrepo.PostGuardKey(authorID)
	token := uuid.NewString()

	ok, err := s.repo.Redis.Default.SetNX(ctx, key, token, s.opts.GuardTTL)
	if err != nil {
		s.logger.Sugar().Errorf("failed to acquire post guard of user(%s) in redis: %s", authorID, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if !ok {
		return nil, ErrTooManyRequests
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), guardReleaseTimeout)
		defer cancel()

		if _, err := s.repo.Redis.Default.Release(releaseCtx, key, token); err != nil {
			s.logger.Sugar().Errorf("failed to release post guard of user(%s) in redis: %s", authorID, err.Error())
		}
	}, nil
}

func (s *postService) ListRecent(ctx context.Context) ([]*model.FeedEntry, error) {
	posts, err := s.repo.Postgres.Post.FindRecent(ctx, FEED_LIMIT)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find recent posts from postgres: %s", err.Error())
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if len(posts) == 0 {
		return []*model.FeedEntry{}, nil
	}

	authorIDs := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, post := range posts {
		if _, ok := seen[post.AuthorID]; ok {
			continue
		}
		seen[post.AuthorID] = struct{}{}
		authorIDs = append(authorIDs, post.AuthorID)
	}

	authors, err := s.users.GetByIDs(ctx, authorIDs)
	if err != nil {
		s.logger.Sugar().Errorf("failed to get %d post authors from user directory: %s", len(authorIDs), err.Error())
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	authorsByID := make(map[string]*model.UserProfile, len(authors))
	for _, author := range authors {
		authorsByID[author.ID] = author
	}

	entries := make([]*model.FeedEntry, 0, len(posts))
	for _, post := range posts {
		author, ok := authorsByID[post.AuthorID]
		if !ok {
			s.logger.Sugar().Errorf("author(%s) of post(%s) not found in user directory", post.AuthorID, post.ID.String())
			return nil, fmt.Errorf("%w: author %s of post %s", ErrInconsistentFeed, post.AuthorID, post.ID.String())
		}

		entries = append(entries, &model.FeedEntry{
			Post:   *post,
			Author: *author,
		})
	}

	return entries, nil
}
