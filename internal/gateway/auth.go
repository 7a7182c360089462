package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/auth"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// SignIn checks email and password and opens a session.
func (g *Gateway) SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if !g.authReady() {
		return nil, models.ErrBackendNotConfigured
	}

	user, err := g.users.FindUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: find user: %v", models.ErrBackendUnavailable, err)
	}
	if !user.IsActive {
		return nil, auth.ErrUserInactive
	}
	if !g.auth.CheckPassword(creds.Password, user.PasswordHash) {
		return nil, auth.ErrInvalidCredentials
	}

	if err := g.users.UpdateLastLogin(ctx, user.ID.Hex()); err != nil {
		g.logger.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}
	return g.session(user)
}

// SignUp creates a technician account and opens a session for it.
func (g *Gateway) SignUp(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if !g.authReady() {
		return nil, models.ErrBackendNotConfigured
	}
	if err := g.auth.ValidateEmail(creds.Email); err != nil {
		return nil, err
	}
	if err := g.auth.ValidatePassword(creds.Password); err != nil {
		return nil, err
	}

	_, err := g.users.FindUserByEmail(ctx, creds.Email)
	switch {
	case err == nil:
		return nil, auth.ErrEmailTaken
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("%w: find user: %v", models.ErrBackendUnavailable, err)
	}

	hash, err := g.auth.HashPassword(creds.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(creds.DisplayName)
	if name == "" {
		name = strings.SplitN(creds.Email, "@", 2)[0]
	}
	user, err := g.users.InsertUser(ctx, models.User{
		Email:        creds.Email,
		PasswordHash: hash,
		Role:         models.RoleTechnician,
		DisplayName:  name,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: insert user: %v", models.ErrBackendUnavailable, err)
	}

	g.logger.WithFields(log.Fields{
		"user_id": user.ID.Hex(),
		"role":    user.Role,
	}).Info("User registered")
	return g.session(user)
}

// SignOut revokes the given token.
func (g *Gateway) SignOut(ctx context.Context, token string) error {
	if !g.authReady() {
		return models.ErrBackendNotConfigured
	}
	claims, err := g.auth.ValidateToken(token)
	if err != nil {
		return err
	}
	g.auth.Revoke(claims)
	return nil
}

// CurrentUser loads the account behind a validated token.
func (g *Gateway) CurrentUser(ctx context.Context, claims *models.Claims) (*models.User, error) {
	if !g.authReady() {
		return nil, models.ErrBackendNotConfigured
	}
	user, err := g.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: find user: %v", models.ErrBackendUnavailable, err)
	}
	return user, nil
}

// UpdatePassword replaces the password of the user behind claims after
// checking the current one.
func (g *Gateway) UpdatePassword(ctx context.Context, claims *models.Claims, current, next string) error {
	if !g.authReady() {
		return models.ErrBackendNotConfigured
	}
	if err := g.auth.ValidatePassword(next); err != nil {
		return err
	}

	user, err := g.CurrentUser(ctx, claims)
	if err != nil {
		return err
	}
	if !g.auth.CheckPassword(current, user.PasswordHash) {
		return auth.ErrInvalidCredentials
	}

	hash, err := g.auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := g.users.UpdatePassword(ctx, user.ID.Hex(), hash); err != nil {
		return fmt.Errorf("%w: update password: %v", models.ErrBackendUnavailable, err)
	}
	return nil
}

func (g *Gateway) authReady() bool {
	return g.configured && g.auth != nil
}

func (g *Gateway) session(user *models.User) (*models.Session, error) {
	token, expiresAt, err := g.auth.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.Session{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}
