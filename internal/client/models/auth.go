package models

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// RegisterRequest is the body of POST /users/register.
type RegisterRequest struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// ForgotPasswordRequest is the body of POST /users/forgot-password-direct.
type ForgotPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// MessageResponse is the generic {"message": ...} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Upload is an in-memory file sent as a multipart part.
type Upload struct {
	FileName string
	Content  []byte
}

// ProfileUpdate describes changes for PUT /users/profile. Nil fields are
// left untouched by the backend.
type ProfileUpdate struct {
	Name         *string
	Email        *string
	Avatar       *Upload
	RemoveAvatar bool
}

// Empty reports whether the update carries no change.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Avatar == nil && !p.RemoveAvatar
}
