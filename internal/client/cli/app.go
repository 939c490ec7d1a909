package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophblog/internal/client/client"
	"github.com/dmitrijs2005/gophblog/internal/client/config"
	"github.com/dmitrijs2005/gophblog/internal/client/credentials"
	"github.com/dmitrijs2005/gophblog/internal/client/services"
	"github.com/dmitrijs2005/gophblog/internal/client/session"
	"github.com/dmitrijs2005/gophblog/internal/logging"
)

// App wires the session manager and services behind the CLI commands. It
// owns the local database and the manager; call Close when done.
type App struct {
	config *config.Config
	logger logging.Logger

	db       *sql.DB
	session  *session.Manager
	accounts services.AccountService
	profiles services.ProfileService
	articles services.ArticleService

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	api := client.NewHTTPClient(c.APIBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(logger.With("component", "api")),
	)
	ses := session.NewManager(api, api, credentials.NewSQLiteStore(db), logger,
		session.WithTokenTTL(c.TokenTTL),
	)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		session:  ses,
		accounts: services.NewAccountService(api),
		profiles: services.NewProfileService(api, ses),
		articles: services.NewArticleService(api, ses),
		reader:   bufio.NewReader(in),
		out:      &lockedWriter{w: out},
	}, nil
}

// Close waits for background work of the session and closes the database.
func (a *App) Close() error {
	a.session.Close()
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// waitSession blocks until the session has been restored from disk so that
// auth-gated commands see the final status.
func (a *App) waitSession(ctx context.Context) error {
	if err := a.session.WaitReady(ctx); err != nil {
		return fmt.Errorf("session not ready: %w", err)
	}
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) getStatus() string {
	snap := a.session.Snapshot()
	switch snap.Status {
	case session.StatusAuthenticated:
		return fmt.Sprintf("(%s)", snap.User.Email)
	case session.StatusAnonymous:
		return "(anonymous)"
	default:
		return fmt.Sprintf("(%s)", snap.Status)
	}
}

// watchSession logs every session transition until ctx is cancelled or the
// manager is closed.
func (a *App) watchSession(ctx context.Context) {
	ch, cancel := a.session.Subscribe()
	defer cancel()

	prev := session.StatusUnknown
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if snap.Status == prev {
				continue
			}
			var userID int64
			if snap.User != nil {
				userID = snap.User.ID
			}
			a.logger.Debug(ctx, "session observed", "from", prev, "to", snap.Status, "user_id", userID)
			prev = snap.Status
		case <-ctx.Done():
			return
		}
	}
}

// restoreSession checks the stored login and greets the user when it is
// still valid.
func (a *App) restoreSession(ctx context.Context) {
	a.session.Initialize(ctx)
	if snap := a.session.Snapshot(); snap.IsAuthenticated() {
		a.printf("Restored session for %s\n", snap.User.Name)
	}
}

// lockedWriter serializes writes from the REPL and the session watcher.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
