// Package models defines the client-side data models exchanged with the
// blog backend. JSON tags follow the backend's wire names.
package models

import "strings"

// User is the authenticated principal as returned by /auth/me, /users/login
// and /users/profile.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"nome"`
	Email string `json:"email"`

	// AvatarPath is relative to the backend's asset base URL.
	AvatarPath *string `json:"avatar_url,omitempty"`
}

// Clone returns a deep copy so callers never alias session state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.AvatarPath != nil {
		p := *u.AvatarPath
		c.AvatarPath = &p
	}
	return &c
}

// HasAvatar reports whether the user has a non-empty avatar path.
func (u *User) HasAvatar() bool {
	return u != nil && u.AvatarPath != nil && *u.AvatarPath != ""
}

// AvatarURL resolves the avatar path against base. It returns "" when the
// user has no avatar; absolute URLs are returned unchanged.
func (u *User) AvatarURL(base string) string {
	if !u.HasAvatar() {
		return ""
	}
	return ResolveAsset(base, *u.AvatarPath)
}

// ResolveAsset joins a backend-relative asset path with base.
func ResolveAsset(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
