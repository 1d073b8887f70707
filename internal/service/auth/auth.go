// Package auth passes authentication through to the gateway's auth sub-API.
// No credentials are verified or stored here.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oasisline/backoffice/internal/gateway"
	redisx "github.com/oasisline/backoffice/internal/redis"
)

const avatarBucket = "avatars"

type Service struct {
	log      *zap.Logger
	gw       *gateway.Client
	sessions *redisx.Sessions
}

func NewService(log *zap.Logger, gw *gateway.Client, sessions *redisx.Sessions) *Service {
	return &Service{log: log, gw: gw, sessions: sessions}
}

type SignupRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup registers a new back-office user with an empty avatar.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*gateway.Session, error) {
	return s.gw.SignUp(ctx, req.Email, req.Password, map[string]any{
		"fullName": req.FullName,
		"avatar":   "",
	})
}

// Login exchanges credentials for a gateway session.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*gateway.Session, error) {
	return s.gw.SignInWithPassword(ctx, req.Email, req.Password)
}

// CurrentUser resolves the user behind a token. A missing or rejected token
// is a legitimate "no user" state, reported as (nil, nil), not an error:
// only transport and service failures propagate.
func (s *Service) CurrentUser(ctx context.Context, token string) (*gateway.User, error) {
	if token == "" || s.sessions.IsRevoked(ctx, token) {
		return nil, nil
	}
	user, err := s.gw.GetUser(ctx, token)
	if err != nil {
		if gateway.IsUnauthorized(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the session at the gateway and blacklists the token locally
// so it stops working immediately.
func (s *Service) Logout(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.gw.SignOut(ctx, token); err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, token, ttl); err != nil {
		s.log.Warn("token blacklist write failed", zap.Error(err))
	}
	return nil
}

// UpdateUserRequest updates the password or the full name, optionally with a
// new avatar image.
type UpdateUserRequest struct {
	Password   string
	FullName   string
	Avatar     []byte
	AvatarType string
}

// UpdateCurrentUser mirrors the gateway's two-step profile update: patch the
// credential or metadata first, then upload the avatar blob and point the
// user's metadata at its public URL.
func (s *Service) UpdateCurrentUser(ctx context.Context, token string, req UpdateUserRequest) (*gateway.User, error) {
	var update gateway.UserUpdate
	switch {
	case req.Password != "":
		update.Password = req.Password
	case req.FullName != "":
		update.Metadata = map[string]any{"fullName": req.FullName}
	}

	user, err := s.gw.UpdateUser(ctx, token, update)
	if err != nil {
		return nil, err
	}
	if len(req.Avatar) == 0 {
		return user, nil
	}

	name := fmt.Sprintf("avatar-%s-%s", user.ID, uuid.NewString())
	publicURL, err := s.gw.UploadBlob(ctx, token, avatarBucket, name, req.AvatarType, req.Avatar)
	if err != nil {
		return nil, err
	}
	return s.gw.UpdateUser(ctx, token, gateway.UserUpdate{
		Metadata: map[string]any{"avatar": publicURL},
	})
}
