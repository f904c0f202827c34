package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/postbox/internal/client/client"
	"github.com/dmitrijs2005/postbox/internal/client/config"
	"github.com/dmitrijs2005/postbox/internal/client/services"
	"github.com/dmitrijs2005/postbox/internal/filex"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	client client.Client
	posts  services.PostService
	db     *sql.DB
	reader *bufio.Reader
	out    io.Writer

	mu        sync.Mutex
	userEmail string
	Mode      Mode
}

// cacheDir resolves where the local post cache lives.
func cacheDir(c *config.Config) (string, error) {
	if c.CacheDir != "" {
		return filex.EnsureSubDir(c.CacheDir, ".")
	}
	return filex.UserCacheSubDir("postbox")
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	dir, err := cacheDir(c)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, "cache.db"))
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	apiClient, err := client.NewPostboxClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ps := services.NewPostService(apiClient, db)

	return &App{config: c, client: apiClient, posts: ps, db: db, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := ""
	if a.userEmail != "" {
		s = a.userEmail + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) setUser(email string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userEmail = email
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()
	defer a.db.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	fmt.Fprintln(a.out, "Welcome to postbox CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.client.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
