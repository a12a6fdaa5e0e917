package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/BloggingApp/chirp-service/internal/directory"
	"github.com/BloggingApp/chirp-service/internal/model"
	"go.uber.org/zap"
)

type profileService struct {
	logger *zap.Logger
	users  directory.UserDirectory
}

func newProfileService(logger *zap.Logger, users directory.UserDirectory) Profile {
	return &profileService{
		logger: logger,
		users:  users,
	}
}

func (s *profileService) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}

	profile, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Sugar().Errorf("failed to get user(%s) from user directory: %s", username, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return profile, nil
}

func (s *profileService) GetByID(ctx context.Context, userID string) (*model.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	profiles, err := s.users.GetByIDs(ctx, []string{userID})
	if err != nil {
		s.logger.Sugar().Errorf("failed to get user(%s) from user directory: %s", userID, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	for _, p := range profiles {
		if p.ID == userID {
			return p, nil
		}
	}
	return nil, nil
}
