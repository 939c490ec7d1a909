// Package services contains application services for the GophBlog client.
// This file defines the account service: registration, direct password reset
// and a liveness probe. Logging in and out belongs to the session manager.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/gophblog/internal/client/client"
	"github.com/dmitrijs2005/gophblog/internal/client/models"
	"github.com/dmitrijs2005/gophblog/internal/common"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrNoChanges        = errors.New("no changes")
)

// Registration is the sign-up form. Confirm must equal Password.
type Registration struct {
	Name     string
	Email    string
	Password string
	Confirm  string
}

// AccountService defines account operations that do not need a session.
type AccountService interface {
	Register(ctx context.Context, r Registration) (string, error)
	ForgotPassword(ctx context.Context, email, newPassword, confirm string) (string, error)
	Ping(ctx context.Context) error
}

type accountService struct {
	client client.Client
}

func NewAccountService(c client.Client) AccountService {
	return &accountService{client: c}
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email %q", common.ErrorValidation, email)
	}
	return nil
}

// Register validates the form locally and creates the account on the backend.
// It returns the backend's confirmation message.
func (s *accountService) Register(ctx context.Context, r Registration) (string, error) {
	r.Name, r.Email = strings.TrimSpace(r.Name), strings.TrimSpace(r.Email)
	if r.Name == "" {
		return "", fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if err := validateEmail(r.Email); err != nil {
		return "", err
	}
	if r.Password == "" {
		return "", fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if r.Password != r.Confirm {
		return "", ErrPasswordMismatch
	}

	msg, err := s.client.Register(ctx, models.RegisterRequest{Name: r.Name, Email: r.Email, Password: r.Password})
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return msg, nil
}

// ForgotPassword sets a new password for email directly.
func (s *accountService) ForgotPassword(ctx context.Context, email, newPassword, confirm string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if newPassword == "" {
		return "", fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if newPassword != confirm {
		return "", ErrPasswordMismatch
	}

	msg, err := s.client.ForgotPassword(ctx, models.ForgotPasswordRequest{Email: email, NewPassword: newPassword})
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	return msg, nil
}

// Ping proxies a liveness check to the underlying client.
func (s *accountService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
