package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/cocoiru/internal/logging"
	"github.com/Skotchmaster/cocoiru/internal/models"
	"github.com/Skotchmaster/cocoiru/internal/mykafka"
	"github.com/Skotchmaster/cocoiru/internal/repo"
	"github.com/Skotchmaster/cocoiru/internal/util"
)

type CommunityInput struct {
	Name        string   `json:"name"`
	Password    string   `json:"password"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	MemberCount uint     `json:"member_count"`
}

func (in CommunityInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude go together", ErrValidation)
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return fmt.Errorf("%w: latitude out of range", ErrValidation)
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return fmt.Errorf("%w: longitude out of range", ErrValidation)
	}
	return nil
}

type GovUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (in GovUserInput) Validate() error {
	if strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if strings.Contains(in.Username, ":") {
		return fmt.Errorf("%w: username must not contain ':'", ErrValidation)
	}
	if in.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	return nil
}

// RegisterCommunity creates a community together with its credential.
func (s *AuthService) RegisterCommunity(ctx context.Context, in CommunityInput) (*models.Community, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register_community")
	if err := in.Validate(); err != nil {
		return nil, err
	}

	c := &models.Community{
		Name:        strings.TrimSpace(in.Name),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		MemberCount: in.MemberCount,
	}
	if err := s.Store.CreateCommunity(ctx, c, in.Password); err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("community_registered", "community_id", c.ID)
	s.publish(ctx, mykafka.NewAuthEvent(mykafka.EventCommunityRegistered, CommunitySubject(c.ID), models.RoleCommunity))
	return c, nil
}

// RegisterGovUser creates a government account. Accounts are active unless IsActive says otherwise.
func (s *AuthService) RegisterGovUser(ctx context.Context, in GovUserInput) (*models.GovUser, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register_gov_user")
	if err := in.Validate(); err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	u := &models.GovUser{
		Username: strings.TrimSpace(in.Username),
		Email:    in.Email,
		FullName: in.FullName,
		IsActive: active,
	}
	if err := s.Store.CreateGovUser(ctx, u, in.Password); err != nil {
		if errors.Is(err, ErrConflict) {
			l.Warn("register_error", "status", 409, "reason", "username taken")
			return nil, err
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("gov_user_created", "username", u.Username)
	s.publish(ctx, mykafka.NewAuthEvent(mykafka.EventGovUserCreated, GovSubject(u.Username), models.RoleGov))
	return u, nil
}

// EnsureGovAdmin seeds the bootstrap government account when both values are set
// and no account with that username exists yet.
func (s *AuthService) EnsureGovAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	_, err := s.Store.GetGovUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return false, err
	}

	_, err = s.RegisterGovUser(ctx, GovUserInput{Username: username, Password: password, FullName: "Administrator"})
	if errors.Is(err, ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListCommunities returns one page of communities; page is 1-based.
func (s *AuthService) ListCommunities(ctx context.Context, page, size int) ([]models.Community, error) {
	offset, limit := util.Calculate(page, size)
	return s.Store.ListCommunities(ctx, offset, limit)
}

// Community returns a community visible to id: any gov caller, or the community itself.
func (s *AuthService) Community(ctx context.Context, id *Identity, communityID uint) (*models.Community, error) {
	if id == nil {
		return nil, ErrMissingToken
	}
	if id.Role != models.RoleGov {
		own, ok := id.CommunityID()
		if !ok || own != communityID {
			return nil, ErrInsufficientRole
		}
	}
	return s.Store.GetCommunity(ctx, communityID)
}
