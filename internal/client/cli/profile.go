package cli

import (
	"context"

	"github.com/dmitrijs2005/gophblog/internal/client/models"
	"github.com/dmitrijs2005/gophblog/internal/client/services"
	"github.com/dmitrijs2005/gophblog/internal/filex"
)

// Profile prints the profile as stored on the backend.
func (a *App) Profile(ctx context.Context) error {
	if err := a.waitSession(ctx); err != nil {
		return err
	}
	u, err := a.profiles.Get(ctx)
	if err != nil {
		a.println("Error loading profile:", userMessage(err))
		return err
	}

	a.printf("Name:   %s\n", u.Name)
	a.printf("Email:  %s\n", u.Email)
	if avatar := u.AvatarURL(a.config.AssetsBaseURL); avatar != "" {
		a.printf("Avatar: %s\n", avatar)
	} else {
		a.println("Avatar: none")
	}
	return nil
}

// EditProfile prompts for new values. Empty answers keep the current value;
// "-" as the avatar path removes the avatar.
func (a *App) EditProfile(ctx context.Context) error {
	if err := a.waitSession(ctx); err != nil {
		return err
	}
	if !a.isLoggedIn() {
		a.println("You need to log in first.")
		return nil
	}

	name, err := getSimpleText(a.reader, "Enter new name (empty to keep)", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter new email (empty to keep)", a.out)
	if err != nil {
		return err
	}
	path, err := getSimpleText(a.reader, "Enter avatar path (empty to keep, - to remove)", a.out)
	if err != nil {
		return err
	}

	edit := services.ProfileEdit{Name: name, Email: email}
	switch path {
	case "":
	case "-":
		edit.RemoveAvatar = true
	default:
		fname, data, err := filex.ReadUpload(path)
		if err != nil {
			a.println("Error reading avatar:", err)
			return err
		}
		edit.Avatar = &models.Upload{FileName: fname, Content: data}
	}

	msg, err := a.profiles.Update(ctx, edit)
	if err != nil {
		a.println("Profile update failed:", userMessage(err))
		return err
	}
	a.println(orDefault(msg, "Profile updated."))
	return nil
}
