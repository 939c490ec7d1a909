package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophblog/internal/client/models"
	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/netx"
)

// Client is the typed blog API used by the session manager and services.
type Client interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context, token string) error
	Register(ctx context.Context, req models.RegisterRequest) (string, error)
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) (string, error)
	GetProfile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (string, error)
	ListArticles(ctx context.Context) ([]models.Article, error)
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	PublishArticle(ctx context.Context, a models.NewArticle) (*models.PublishResult, error)
	Ping(ctx context.Context) error
}

var _ Client = (*HTTPClient)(nil)

func decode(op string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/users/login", models.LoginRequest{Email: email, Password: password}, nil)
	if err != nil {
		return nil, err
	}
	var out models.LoginResponse
	if err := decode("login", resp.Body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeMe(resp.Body)
}

// decodeMe accepts {"user": {...}} and, as a fallback, the bare user object.
// A payload without a user id is malformed.
func decodeMe(data []byte) (*models.User, error) {
	var envelope struct {
		User *models.User `json:"user"`
	}
	if err := decode("me", data, &envelope); err != nil {
		return nil, err
	}
	if envelope.User != nil {
		if envelope.User.ID == 0 {
			return nil, fmt.Errorf("me: %w: user without id", ErrMalformedResponse)
		}
		return envelope.User, nil
	}

	var bare models.User
	if err := decode("me", data, &bare); err != nil {
		return nil, err
	}
	if bare.ID == 0 {
		return nil, fmt.Errorf("me: %w: no user in response", ErrMalformedResponse)
	}
	return &bare, nil
}

// Logout tells the backend to drop token. The token is sent explicitly since
// the session may already have cleared the shared credential.
func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	h := http.Header{}
	h.Set(common.AuthorizationHeader, common.BearerValue(token))
	_, err := c.Do(ctx, http.MethodPost, "/auth/logout", nil, h)
	return err
}

func (c *HTTPClient) message(ctx context.Context, method, path string, body any) (string, error) {
	resp, err := c.Do(ctx, method, path, body, nil)
	if err != nil {
		return "", err
	}
	var out models.MessageResponse
	if len(resp.Body) > 0 {
		if err := decode(path, resp.Body, &out); err != nil {
			return "", err
		}
	}
	return out.Message, nil
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	return c.message(ctx, http.MethodPost, "/users/register", req)
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) (string, error) {
	return c.message(ctx, http.MethodPost, "/users/forgot-password-direct", req)
}

func (c *HTTPClient) GetProfile(ctx context.Context) (*models.User, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/users/profile", nil, nil)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := decode("profile", resp.Body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (string, error) {
	fields := map[string]string{}
	if upd.Name != nil {
		fields["nome"] = *upd.Name
	}
	if upd.Email != nil {
		fields["email"] = *upd.Email
	}

	var files []netx.FilePart
	if upd.Avatar != nil {
		files = append(files, netx.FilePart{Field: "avatar", FileName: upd.Avatar.FileName, Content: upd.Avatar.Content})
	} else if upd.RemoveAvatar {
		fields["removeAvatar"] = "true"
	}

	body, err := netx.NewMultipartBody(fields, files...)
	if err != nil {
		return "", fmt.Errorf("profile: %w", err)
	}
	return c.message(ctx, http.MethodPut, "/users/profile", body)
}

func (c *HTTPClient) ListArticles(ctx context.Context) ([]models.Article, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/articles", nil, nil)
	if err != nil {
		return nil, err
	}
	var out []models.Article
	if err := decode("articles", resp.Body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/articles/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		return nil, err
	}
	var a models.Article
	if err := decode("article", resp.Body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) PublishArticle(ctx context.Context, a models.NewArticle) (*models.PublishResult, error) {
	var files []netx.FilePart
	if a.Image != nil {
		files = append(files, netx.FilePart{Field: "image", FileName: a.Image.FileName, Content: a.Image.Content})
	}
	body, err := netx.NewMultipartBody(map[string]string{"titulo": a.Title, "conteudo": a.Content}, files...)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/articles", body, nil)
	if err != nil {
		return nil, err
	}
	var out models.PublishResult
	if err := decode("publish", resp.Body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.Do(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return err
	}
	var st struct {
		Status string `json:"status"`
	}
	if len(resp.Body) > 0 && json.Unmarshal(resp.Body, &st) == nil && st.Status != "" && st.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}
