package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophblog/internal/client/client"
	"github.com/dmitrijs2005/gophblog/internal/client/models"
	"github.com/dmitrijs2005/gophblog/internal/client/session"
)

// Session is what services need from the session manager.
type Session interface {
	Snapshot() session.Snapshot
	Refresh(ctx context.Context)
}

// ProfileEdit is the desired profile. Empty Name or Email keep the current
// value. Avatar wins over RemoveAvatar.
type ProfileEdit struct {
	Name         string
	Email        string
	Avatar       *models.Upload
	RemoveAvatar bool
}

type ProfileService interface {
	Get(ctx context.Context) (*models.User, error)
	Update(ctx context.Context, edit ProfileEdit) (string, error)
}

type profileService struct {
	client  client.Client
	session Session
}

func NewProfileService(c client.Client, s Session) ProfileService {
	return &profileService{client: c, session: s}
}

func (s *profileService) Get(ctx context.Context) (*models.User, error) {
	if !s.session.Snapshot().IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	u, err := s.client.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return u, nil
}

// Update sends only the fields that differ from the session user and then
// refreshes the session so every view sees the new profile.
func (s *profileService) Update(ctx context.Context, edit ProfileEdit) (string, error) {
	snap := s.session.Snapshot()
	if !snap.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}

	upd := diffProfile(snap.User, edit)
	if upd.Empty() {
		return "", ErrNoChanges
	}
	if upd.Email != nil {
		if err := validateEmail(*upd.Email); err != nil {
			return "", err
		}
	}

	msg, err := s.client.UpdateProfile(ctx, upd)
	if err != nil {
		return "", fmt.Errorf("update profile: %w", err)
	}

	s.session.Refresh(ctx)
	return msg, nil
}

func diffProfile(current *models.User, edit ProfileEdit) models.ProfileUpdate {
	var upd models.ProfileUpdate

	if name := strings.TrimSpace(edit.Name); name != "" && name != current.Name {
		upd.Name = &name
	}
	if email := strings.TrimSpace(edit.Email); email != "" && email != current.Email {
		upd.Email = &email
	}

	switch {
	case edit.Avatar != nil:
		upd.Avatar = edit.Avatar
	case edit.RemoveAvatar && current.HasAvatar():
		upd.RemoveAvatar = true
	}
	return upd
}
