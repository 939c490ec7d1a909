// Package testserver runs an in-process blog backend for tests. It speaks
// the same JSON and multipart contract as the real backend, issues HS256
// JWTs and stores bcrypt password hashes in memory.
package testserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/client/models"
	"github.com/dmitrijs2005/gophblog/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const apiPrefix = "/api"

// Request is a recorded inbound request.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

type account struct {
	user models.User
	hash []byte
}

type Server struct {
	srv *httptest.Server

	secret   []byte
	tokenTTL time.Duration
	bareMe   bool

	mu         sync.Mutex
	users      map[int64]*account
	nextUserID int64
	articles   []models.Article
	revoked    map[string]bool
	requests   []Request
	meStatus   int
}

type Option func(*Server)

// WithTokenTTL sets the validity of issued JWTs.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithBareMe makes /auth/me reply with the bare user object instead of the
// {"user": ...} envelope.
func WithBareMe() Option {
	return func(s *Server) { s.bareMe = true }
}

// New starts the server and closes it when t finishes.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		secret:   []byte("test-secret"),
		tokenTTL: time.Hour,
		users:    map[int64]*account{},
		revoked:  map[string]bool{},
	}
	for _, o := range opts {
		o(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", s.handleLogin)
	mux.HandleFunc("POST /api/users/register", s.handleRegister)
	mux.HandleFunc("POST /api/users/forgot-password-direct", s.handleForgotPassword)
	mux.HandleFunc("GET /api/users/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /api/users/profile", s.handleUpdateProfile)
	mux.HandleFunc("GET /api/auth/me", s.handleMe)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/articles", s.handleListArticles)
	mux.HandleFunc("GET /api/articles/{id}", s.handleGetArticle)
	mux.HandleFunc("POST /api/articles", s.handlePublish)
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})

	s.srv = httptest.NewServer(s.record(mux))
	t.Cleanup(s.srv.Close)
	return s
}

// BaseURL is the API root to configure clients with.
func (s *Server) BaseURL() string { return s.srv.URL + apiPrefix }

// AssetsURL is the root that avatar and image paths are relative to.
func (s *Server) AssetsURL() string { return s.srv.URL }

// Close stops the server early, e.g. to simulate the backend going away.
func (s *Server) Close() { s.srv.Close() }

// AddUser registers a user directly and returns its record.
func (s *Server) AddUser(name, email, password string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, hash)
}

func (s *Server) addUserLocked(name, email string, hash []byte) models.User {
	s.nextUserID++
	u := models.User{ID: s.nextUserID, Name: name, Email: email}
	s.users[u.ID] = &account{user: u, hash: hash}
	return u
}

// IssueToken signs a token for userID valid for ttl. A negative ttl yields
// an already expired token.
func (s *Server) IssueToken(userID int64, ttl time.Duration) string {
	tok, err := generateToken(userID, s.secret, ttl)
	if err != nil {
		panic(err)
	}
	return tok
}

// Revoke makes token fail authentication from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	s.revoked[token] = true
	s.mu.Unlock()
}

// FailMe forces /auth/me to answer with status; 0 restores normal behavior.
func (s *Server) FailMe(status int) {
	s.mu.Lock()
	s.meStatus = status
	s.mu.Unlock()
}

// AddArticle stores an article authored by userID.
func (s *Server) AddArticle(userID int64, title, content string, publishedAt time.Time) models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addArticleLocked(userID, title, content, nil, publishedAt)
}

func (s *Server) addArticleLocked(userID int64, title, content string, image *string, publishedAt time.Time) models.Article {
	var author string
	if a, ok := s.users[userID]; ok {
		author = a.user.Name
	}
	a := models.Article{
		ID:          int64(len(s.articles) + 1),
		Title:       title,
		Content:     content,
		ImagePath:   image,
		AuthorID:    userID,
		AuthorName:  author,
		PublishedAt: publishedAt.UTC(),
		Status:      1,
	}
	s.articles = append(s.articles, a)
	return a
}

// User returns the stored record of id.
func (s *Server) User(id int64) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return *a.user.Clone(), true
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit method and path (without the /api prefix).
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, apiPrefix),
			Authorization: r.Header.Get(common.AuthorizationHeader),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.MessageResponse{Message: msg})
}

var errUnauthenticated = errors.New("unauthenticated")

// authenticate resolves the bearer token of r to a stored account.
func (s *Server) authenticate(r *http.Request) (*account, error) {
	h := r.Header.Get(common.AuthorizationHeader)
	token, ok := strings.CutPrefix(h, common.BearerPrefix)
	if !ok || token == "" {
		return nil, errUnauthenticated
	}
	id, err := userIDFromToken(token, s.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnauthenticated, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[token] {
		return nil, errUnauthenticated
	}
	a, ok := s.users[id]
	if !ok {
		return nil, errUnauthenticated
	}
	return a, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Requisição inválida")
		return
	}

	var (
		user *models.User
		hash []byte
	)
	s.mu.Lock()
	for _, a := range s.users {
		if strings.EqualFold(a.user.Email, req.Email) {
			user, hash = a.user.Clone(), a.hash
			break
		}
	}
	s.mu.Unlock()

	if user == nil || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}

	token, err := generateToken(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	forced := s.meStatus
	s.mu.Unlock()
	if forced != 0 {
		writeMessage(w, forced, http.StatusText(forced))
		return
	}

	a, err := s.authenticate(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Token inválido")
		return
	}
	s.mu.Lock()
	u := a.user.Clone()
	s.mu.Unlock()

	if s.bareMe {
		writeJSON(w, http.StatusOK, u)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Token inválido")
		return
	}
	token := strings.TrimPrefix(r.Header.Get(common.AuthorizationHeader), common.BearerPrefix)
	s.Revoke(token)
	writeMessage(w, http.StatusOK, "Logout realizado")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Campos obrigatórios ausentes")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.users {
		if strings.EqualFold(a.user.Email, req.Email) {
			writeMessage(w, http.StatusConflict, "E-mail já cadastrado")
			return
		}
	}
	s.addUserLocked(req.Name, req.Email, hash)
	writeMessage(w, http.StatusCreated, "Usuário registrado com sucesso")
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.NewPassword == "" {
		writeMessage(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.users {
		if strings.EqualFold(a.user.Email, req.Email) {
			a.hash = hash
			writeMessage(w, http.StatusOK, "Senha redefinida com sucesso")
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Usuário não encontrado")
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	a, err := s.authenticate(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Token inválido")
		return
	}
	s.mu.Lock()
	u := a.user.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	a, err := s.authenticate(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Token inválido")
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Formulário inválido")
		return
	}

	avatar, err := savedUpload(r, "avatar", "uploads/avatars")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v := r.FormValue("nome"); v != "" {
		a.user.Name = v
	}
	if v := r.FormValue("email"); v != "" {
		a.user.Email = v
	}
	switch {
	case avatar != nil:
		a.user.AvatarPath = avatar
	case r.FormValue("removeAvatar") == "true":
		a.user.AvatarPath = nil
	}
	writeMessage(w, http.StatusOK, "Perfil atualizado com sucesso")
}

// savedUpload pretends to store the file in field and returns its path.
func savedUpload(r *http.Request, field, dir string) (*string, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		return nil, err
	}

	prefix, err := common.MakeRandHexString(8)
	if err != nil {
		return nil, err
	}
	p := dir + "/" + prefix + "_" + hdr.Filename
	return &p, nil
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.Article, len(s.articles))
	copy(out, s.articles)
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "ID inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.articles {
		if a.ID == id {
			writeJSON(w, http.StatusOK, a)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Artigo não encontrado")
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	a, err := s.authenticate(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Token inválido")
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Formulário inválido")
		return
	}
	title, content := r.FormValue("titulo"), r.FormValue("conteudo")
	if title == "" || content == "" {
		writeMessage(w, http.StatusBadRequest, "Título e conteúdo são obrigatórios")
		return
	}
	image, err := savedUpload(r, "image", "uploads/articles")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	art := s.addArticleLocked(a.user.ID, title, content, image, time.Now())
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, models.PublishResult{Message: "Artigo publicado com sucesso", ArticleID: art.ID})
}
