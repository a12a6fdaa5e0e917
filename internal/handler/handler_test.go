package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BloggingApp/chirp-service/internal/dto"
	"github.com/BloggingApp/chirp-service/internal/model"
	"github.com/BloggingApp/chirp-service/internal/service"
	"github.com/BloggingApp/chirp-service/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testSecret = []byte("test-secret")
	testNow    = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

type fakePostService struct {
	created   []string
	createErr error
	feed      []*model.FeedEntry
	feedErr   error
}

func (s *fakePostService) Create(ctx context.Context, authorID string, content string) (*model.Post, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, authorID+":"+content)
	return &model.Post{ID: uuid.New(), AuthorID: authorID, Content: content, CreatedAt: testNow}, nil
}

func (s *fakePostService) ListRecent(ctx context.Context) ([]*model.FeedEntry, error) {
	return s.feed, s.feedErr
}

type fakeProfileService struct {
	profiles map[string]*model.UserProfile
	err      error
}

func (s *fakeProfileService) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profiles[username], nil
}

func (s *fakeProfileService) GetByID(ctx context.Context, userID string) (*model.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.profiles {
		if p.ID == userID {
			return p, nil
		}
	}
	return nil, nil
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error {
	return p.err
}

func strPtr(s string) *string {
	return &s
}

func newTestRouter(t *testing.T, posts *fakePostService, profiles *fakeProfileService, pingers map[string]Pinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	services := &service.Service{Post: posts, Profile: profiles}
	h := New(services, zap.NewNop(), Config{
		SignInURL:    "https://accounts.example.com/sign-in",
		AccessSecret: testSecret,
		Now:          func() time.Time { return testNow },
	}, pingers)

	return h.InitRoutes()
}

func sessionToken(t *testing.T, userID string) string {
	t.Helper()

	token, err := utils.EncodeJWT(utils.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)
	require.NoError(t, err)
	return token
}

func doRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBasicResponse(t *testing.T, w *httptest.ResponseRecorder) dto.BasicResponse {
	t.Helper()

	var resp dto.BasicResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPostsCreate(t *testing.T) {
	posts := &fakePostService{}
	r := newTestRouter(t, posts, &fakeProfileService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(`{"content":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_1"))

	w := doRequest(r, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var post model.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, "user_1", post.AuthorID)
	assert.Equal(t, "hello", post.Content)
	assert.Equal(t, []string{"user_1:hello"}, posts.created)
}

func TestPostsCreate_SessionCookie(t *testing.T) {
	posts := &fakePostService{}
	r := newTestRouter(t, posts, &fakeProfileService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(`{"content":"from cookie"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionToken(t, "user_2")})

	w := doRequest(r, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"user_2:from cookie"}, posts.created)
}

func TestPostsCreate_Unauthorized(t *testing.T) {
	posts := &fakePostService{}
	r := newTestRouter(t, posts, &fakeProfileService{}, nil)

	for name, header := range map[string]string{
		"missing": "",
		"invalid": "Bearer not-a-token",
		"scheme":  "Basic dXNlcjpwYXNz",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(`{"content":"hello"}`))
			req.Header.Set("Content-Type", "application/json")
			if header != "" {
				req.Header.Set("Authorization", header)
			}

			w := doRequest(r, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, dto.CodeUnauthorized, decodeBasicResponse(t, w).Code)
		})
	}
	assert.Empty(t, posts.created)
}

func TestPostsCreate_InvalidBody(t *testing.T) {
	posts := &fakePostService{}
	r := newTestRouter(t, posts, &fakeProfileService{}, nil)

	for name, body := range map[string]string{
		"empty content": `{"content":""}`,
		"too long":      fmt.Sprintf(`{"content":%q}`, strings.Repeat("a", 256)),
		"malformed":     `{"content":`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_1"))

			w := doRequest(r, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, posts.created)
}

func TestPostsCreate_ServiceErrors(t *testing.T) {
	testCases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{err: fmt.Errorf("%w: content must be between 1 and 255 characters", service.ErrValidation), wantStatus: http.StatusBadRequest, wantCode: dto.CodeBadRequest},
		{err: service.ErrTooManyRequests, wantStatus: http.StatusTooManyRequests, wantCode: dto.CodeTooManyRequests},
		{err: fmt.Errorf("%w: %w", service.ErrUpstream, errors.New("dial tcp: refused")), wantStatus: http.StatusBadGateway, wantCode: dto.CodeBadGateway},
		{err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: dto.CodeInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.wantCode, func(t *testing.T) {
			r := newTestRouter(t, &fakePostService{createErr: tc.err}, &fakeProfileService{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(`{"content":"hello"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_1"))

			w := doRequest(r, req)
			assert.Equal(t, tc.wantStatus, w.Code)

			resp := decodeBasicResponse(t, w)
			assert.False(t, resp.Ok)
			assert.Equal(t, tc.wantCode, resp.Code)
			assert.NotContains(t, resp.Details, "dial tcp")
		})
	}
}

func TestPostsGetAll(t *testing.T) {
	entry := &model.FeedEntry{
		Post:   model.Post{ID: uuid.New(), AuthorID: "user_1", Content: "hello", CreatedAt: testNow},
		Author: model.UserProfile{ID: "user_1", Username: strPtr("alice"), ProfileImageURL: "https://img/alice.png"},
	}
	r := newTestRouter(t, &fakePostService{feed: []*model.FeedEntry{entry}}, &fakeProfileService{}, nil)

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var entries []model.FeedEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, entry.Post.ID, entries[0].Post.ID)
	assert.Equal(t, "alice", *entries[0].Author.Username)
}

func TestPostsGetAll_InconsistentFeed(t *testing.T) {
	r := newTestRouter(t, &fakePostService{feedErr: service.ErrInconsistentFeed}, &fakeProfileService{}, nil)

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.CodeInternal, decodeBasicResponse(t, w).Code)
}

func TestProfilesGetByUsername(t *testing.T) {
	profiles := &fakeProfileService{profiles: map[string]*model.UserProfile{
		"alice": {ID: "user_1", Username: strPtr("alice")},
	}}
	r := newTestRouter(t, &fakePostService{}, profiles, nil)

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/alice", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var p model.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "user_1", p.ID)

	w = doRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/@alice", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/nobody", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.CodeNotFound, decodeBasicResponse(t, w).Code)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, &fakePostService{}, &fakeProfileService{}, map[string]Pinger{
		"postgres": fakePinger{},
	})
	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	r = newTestRouter(t, &fakePostService{}, &fakeProfileService{}, map[string]Pinger{
		"postgres": fakePinger{},
		"redis":    fakePinger{err: errors.New("down")},
	})
	w = doRequest(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
}
