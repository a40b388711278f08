package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/cocoiru/internal/hash"
	"github.com/Skotchmaster/cocoiru/internal/logging"
	"github.com/Skotchmaster/cocoiru/internal/models"
	"github.com/Skotchmaster/cocoiru/internal/mykafka"
	"github.com/Skotchmaster/cocoiru/internal/repo"
	"github.com/Skotchmaster/cocoiru/internal/tokens"
)

type Store interface {
	VerifyCredential(ctx context.Context, id uint, password string) (bool, error)
	CreateCommunity(ctx context.Context, c *models.Community, password string) error
	GetCommunity(ctx context.Context, id uint) (*models.Community, error)
	ListCommunities(ctx context.Context, offset, limit int) ([]models.Community, error)
	CreateGovUser(ctx context.Context, u *models.GovUser, password string) error
	GetGovUserByUsername(ctx context.Context, username string) (*models.GovUser, error)
}

type RevocationList interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

type AuthService struct {
	Store      Store
	Revocation RevocationList
	Issuer     *tokens.Issuer
	Verifier   *tokens.Verifier
	Hasher     hash.Hasher
	Events     mykafka.Publisher
	Topic      string
	Now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(store Store, revocation RevocationList, cfg tokens.Config, hasher hash.Hasher) *AuthService {
	return &AuthService{
		Store:      store,
		Revocation: revocation,
		Issuer:     tokens.NewIssuer(cfg),
		Verifier:   tokens.NewVerifier(cfg),
		Hasher:     hasher,
		Events:     mykafka.Nop{},
		Topic:      "auth_events",
		Now:        cfg.Now,
	}
}

type LoginRequest struct {
	UserType    string `json:"user_type"`
	CommunityID uint   `json:"community_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password"`
}

type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	ExpiresAt   time.Time
	Subject     string
	Role        string
}

// Validate checks the user_type discriminant and the field it requires.
// It never touches storage.
func (r LoginRequest) Validate() error {
	switch r.UserType {
	case "":
		return fmt.Errorf("%w: user_type is required", ErrMissingDiscriminant)
	case models.RoleCommunity:
		if r.CommunityID == 0 {
			return fmt.Errorf("%w: community_id is required", ErrMissingDiscriminant)
		}
	case models.RoleGov:
		if strings.TrimSpace(r.Username) == "" {
			return fmt.Errorf("%w: username is required", ErrMissingDiscriminant)
		}
	default:
		return fmt.Errorf("%w: unknown user_type %q", ErrValidation, r.UserType)
	}
	if r.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	return nil
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// burnCompare runs one hash comparison for an unknown subject so the response
// time does not reveal whether the subject exists.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("cocoiru-unknown-subject")
	})
	_, _ = s.Hasher.Verify(password, s.dummyHash)
}

// checkCredentials resolves the subject for req and verifies its password.
// Unknown subject, wrong password and inactive account are all ErrInvalidCredentials.
func (s *AuthService) checkCredentials(ctx context.Context, req LoginRequest) (string, string, error) {
	switch req.UserType {
	case models.RoleCommunity:
		c, err := s.Store.GetCommunity(ctx, req.CommunityID)
		if errors.Is(err, repo.ErrNotFound) {
			s.burnCompare(req.Password)
			return "", "", ErrInvalidCredentials
		}
		if err != nil {
			return "", "", err
		}
		ok, err := s.Store.VerifyCredential(ctx, c.CredentialID, req.Password)
		if err != nil {
			return "", "", err
		}
		if !ok {
			return "", "", ErrInvalidCredentials
		}
		return CommunitySubject(c.ID), models.RoleCommunity, nil

	case models.RoleGov:
		u, err := s.Store.GetGovUserByUsername(ctx, req.Username)
		if errors.Is(err, repo.ErrNotFound) {
			s.burnCompare(req.Password)
			return "", "", ErrInvalidCredentials
		}
		if err != nil {
			return "", "", err
		}
		ok, err := s.Store.VerifyCredential(ctx, u.CredentialID, req.Password)
		if err != nil {
			return "", "", err
		}
		if !ok || !u.IsActive {
			return "", "", ErrInvalidCredentials
		}
		return GovSubject(u.Username), models.RoleGov, nil
	}
	return "", "", fmt.Errorf("%w: unknown user_type %q", ErrValidation, req.UserType)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "user_type", req.UserType)

	if err := req.Validate(); err != nil {
		l.Warn("login_rejected", "status", 400, "reason", err.Error())
		return nil, err
	}

	subject, role, err := s.checkCredentials(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
			ev := mykafka.NewAuthEvent(mykafka.EventLoginFailed, attemptedSubject(req), req.UserType)
			ev.Reason = "invalid_credentials"
			s.publish(ctx, ev)
			return nil, err
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	token, exp, err := s.Issuer.Issue(subject, role, 0)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	l.Info("login_successful", "subject", subject)
	s.publish(ctx, mykafka.NewAuthEvent(mykafka.EventLoggedIn, subject, role))

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.Issuer.TTL() / time.Second),
		ExpiresAt:   exp,
		Subject:     subject,
		Role:        role,
	}, nil
}

// ValidateCredentials is a dry-run login: it checks the password and never issues a token.
func (s *AuthService) ValidateCredentials(ctx context.Context, req LoginRequest) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}
	_, _, err := s.checkCredentials(ctx, req)
	if errors.Is(err, ErrInvalidCredentials) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Authenticate resolves a raw token into an Identity. The checks run in order:
// presence, revocation, signature and expiry, then required claims.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	revoked, err := s.Revocation.IsRevoked(ctx, raw)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}

	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		if errors.Is(err, ErrInvalidPayload) {
			logging.FromContext(ctx).Warn("token_payload_invalid", "error", err)
		}
		return nil, err
	}

	return &Identity{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
		Token:     raw,
	}, nil
}

// Logout revokes a currently valid token until its own expiry.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	id, err := s.Authenticate(ctx, raw)
	if err != nil {
		return err
	}
	if err := s.Revocation.Revoke(ctx, raw, id.ExpiresAt); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke token", "error", err)
		return err
	}

	l.Info("logout_successful", "subject", id.Subject)
	s.publish(ctx, mykafka.NewAuthEvent(mykafka.EventLoggedOut, id.Subject, id.Role))
	return nil
}

func (s *AuthService) SweepRevoked(ctx context.Context) (int64, error) {
	return s.Revocation.Sweep(ctx, s.now())
}

func (s *AuthService) publish(ctx context.Context, ev mykafka.AuthEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, s.Topic, ev.Subject, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", ev.Type, "error", err)
	}
}

func attemptedSubject(req LoginRequest) string {
	if req.UserType == models.RoleCommunity {
		return CommunitySubject(req.CommunityID)
	}
	return GovSubject(req.Username)
}
