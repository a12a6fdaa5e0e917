package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/BloggingApp/chirp-service/internal/model"
	"github.com/BloggingApp/chirp-service/internal/repository"
	"github.com/BloggingApp/chirp-service/internal/repository/postgres"
	"github.com/BloggingApp/chirp-service/internal/repository/redisrepo"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("connection refused")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakePostStore timestamps inserts with the shared clock, as the database would.
type fakePostStore struct {
	mu         sync.Mutex
	clock      *fakeClock
	posts      []*model.Post
	creates    int
	reads      int
	err        error
	beforeRead func()
}

func (s *fakePostStore) Create(ctx context.Context, authorID string, content string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	s.creates++

	post := &model.Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.clock.Now(),
	}
	s.posts = append(s.posts, post)

	copied := *post
	return &copied, nil
}

func (s *fakePostStore) FindLatestByAuthor(ctx context.Context, authorID string) (*model.Post, error) {
	if s.beforeRead != nil {
		s.beforeRead()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if s.err != nil {
		return nil, s.err
	}

	var latest *model.Post
	for _, post := range s.posts {
		if post.AuthorID == authorID && (latest == nil || post.CreatedAt.After(latest.CreatedAt)) {
			latest = post
		}
	}
	if latest == nil {
		return nil, nil
	}

	copied := *latest
	return &copied, nil
}

func (s *fakePostStore) FindRecent(ctx context.Context, limit int) ([]*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if s.err != nil {
		return nil, s.err
	}

	sorted := make([]*model.Post, len(s.posts))
	copy(sorted, s.posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	return sorted, nil
}

func (s *fakePostStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates + s.reads
}

type fakeDirectory struct {
	mu      sync.Mutex
	users   map[string]*model.UserProfile
	batches [][]string
	err     error
}

func newFakeDirectory(profiles ...*model.UserProfile) *fakeDirectory {
	d := &fakeDirectory{users: make(map[string]*model.UserProfile)}
	for _, p := range profiles {
		d.users[p.ID] = p
	}
	return d
}

func (d *fakeDirectory) GetByIDs(ctx context.Context, ids []string) ([]*model.UserProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.batches = append(d.batches, ids)
	if d.err != nil {
		return nil, d.err
	}

	var profiles []*model.UserProfile
	for _, id := range ids {
		if p, ok := d.users[id]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func (d *fakeDirectory) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return nil, d.err
	}
	for _, p := range d.users {
		if p.Username != nil && *p.Username == username {
			return p, nil
		}
	}
	return nil, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*model.Post
	err       error
}

func (p *fakePublisher) PublishPostCreated(ctx context.Context, post *model.Post) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, post)
	return nil
}

func profile(id, username string) *model.UserProfile {
	return &model.UserProfile{
		ID:              id,
		Username:        &username,
		ProfileImageURL: "https://img.example.com/" + id + ".png",
	}
}

type testEnv struct {
	clock     *fakeClock
	store     *fakePostStore
	users     *fakeDirectory
	publisher *fakePublisher
	redis     *miniredis.Miniredis
	service   *Service
}

type envOption func(*testEnv, *repository.Repository, *Options)

func withRedis(t *testing.T) envOption {
	return func(env *testEnv, repo *repository.Repository, opts *Options) {
		env.redis = miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: env.redis.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		repo.Redis = redisrepo.New(rdb)
	}
}

func newTestEnv(t *testing.T, options ...envOption) *testEnv {
	t.Helper()

	clock := newFakeClock()
	env := &testEnv{
		clock:     clock,
		store:     &fakePostStore{clock: clock},
		users:     newFakeDirectory(profile("user_1", "alice"), profile("user_2", "bob")),
		publisher: &fakePublisher{},
	}

	repo := &repository.Repository{
		Postgres: &postgres.PostgresRepository{Post: env.store},
	}
	opts := Options{Now: clock.Now}
	for _, o := range options {
		o(env, repo, &opts)
	}

	env.service = New(zap.NewNop(), repo, env.users, env.publisher, opts)
	return env
}
