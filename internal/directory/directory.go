package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BloggingApp/chirp-service/internal/config"
	"github.com/BloggingApp/chirp-service/internal/model"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// MAX_BATCH is the largest page the directory returns for one list call.
const MAX_BATCH = 100

var ErrUnexpectedStatus = errors.New("unexpected status from user directory")

type UserDirectory interface {
	GetByIDs(ctx context.Context, ids []string) ([]*model.UserProfile, error)
	// GetByUsername returns nil without an error when no user has that username.
	GetByUsername(ctx context.Context, username string) (*model.UserProfile, error)
}

type directoryUser struct {
	ID              string  `json:"id"`
	Username        *string `json:"username"`
	ProfileImageURL string  `json:"profile_image_url"`
	ImageURL        string  `json:"image_url"`
}

type directoryError struct {
	Errors []struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"errors"`
}

type client struct {
	logger     *zap.Logger
	api        string
	secretKey  string
	httpClient *http.Client
}

func New(logger *zap.Logger, cfg config.DirectoryConfig) UserDirectory {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &client{
		logger:     logger,
		api:        strings.TrimRight(cfg.API, "/"),
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *client) GetByIDs(ctx context.Context, ids []string) ([]*model.UserProfile, error) {
	if len(ids) == 0 {
		return []*model.UserProfile{}, nil
	}
	if len(ids) > MAX_BATCH {
		return nil, fmt.Errorf("too many user ids in one lookup: %d", len(ids))
	}

	query := url.Values{}
	for _, id := range ids {
		query.Add("user_id", id)
	}
	query.Set("limit", strconv.Itoa(MAX_BATCH))

	users, err := c.listUsers(ctx, query)
	if err != nil {
		return nil, err
	}

	profiles := make([]*model.UserProfile, len(users))
	for i, u := range users {
		profiles[i] = filterUserForClient(u)
	}

	return profiles, nil
}

func (c *client) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	query := url.Values{}
	query.Set("username", username)
	query.Set("limit", "1")

	users, err := c.listUsers(ctx, query)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		// the directory matches usernames case-insensitively
		if u.Username != nil && strings.EqualFold(*u.Username, username) {
			return filterUserForClient(u), nil
		}
	}

	return nil, nil
}

func (c *client) listUsers(ctx context.Context, query url.Values) ([]directoryUser, error) {
	endpoint := "/users"
	reqURL := c.api + endpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Sugar().Errorf("failed to create request to user directory: %s", err.Error())
		return nil, err
	}

	req.Header.Add("Authorization", "Bearer "+c.secretKey)
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Sugar().Errorf("failed to send request to user directory: %s", err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Sugar().Errorf("failed to read response body from user directory: %s", err.Error())
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var bodyJSON directoryError
		if err := json.Unmarshal(body, &bodyJSON); err != nil || len(bodyJSON.Errors) == 0 {
			c.logger.Sugar().Errorf("ERROR from user directory endpoint(%s), code(%d)", endpoint, resp.StatusCode)
		} else {
			c.logger.Sugar().Errorf("ERROR from user directory endpoint(%s), code(%d), details: %s", endpoint, resp.StatusCode, bodyJSON.Errors[0].Message)
		}
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var users []directoryUser
	if err := json.Unmarshal(body, &users); err != nil {
		c.logger.Sugar().Errorf("failed to decode users response body from user directory: %s", err.Error())
		return nil, err
	}

	return users, nil
}

func filterUserForClient(u directoryUser) *model.UserProfile {
	imageURL := u.ProfileImageURL
	if imageURL == "" {
		imageURL = u.ImageURL
	}

	return &model.UserProfile{
		ID:              u.ID,
		Username:        u.Username,
		ProfileImageURL: imageURL,
	}
}
