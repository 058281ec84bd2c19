package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/quadapp/quad/internal/backend"
	"github.com/quadapp/quad/internal/config"
	"github.com/quadapp/quad/internal/domain"
	"github.com/quadapp/quad/internal/log"
	"github.com/quadapp/quad/internal/push"
	"github.com/quadapp/quad/internal/service"
	"github.com/quadapp/quad/internal/session"
	"github.com/quadapp/quad/internal/store"
	"github.com/quadapp/quad/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("quad %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local .env keeps backend credentials out of the config file during development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.IsConfigured() {
		return fmt.Errorf("backend not configured: set QUAD_BACKEND_URL and QUAD_BACKEND_API_KEY")
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)
	logger.Info("starting quad", "version", Version)

	cache, err := store.New(cfg.Cache.Dir, cfg.Backend.URL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer cache.Close()

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey, cfg.Backend.Bucket, logger)
	auth := backend.NewAuth(client, logger)
	pushClient := push.NewClient(cfg.Push.URL, cfg.Backend.APIKey, logger)

	syncer := session.New(client, client, auth, pushClient, cache, logger)
	feedSvc := service.NewFeedService(client, client, logger)
	filterSvc := service.NewFilterService()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the event loop before any sign-in so the resulting auth event
	// is consumed
	syncDone := make(chan error, 1)
	go func() {
		syncDone <- syncer.Run(ctx)
	}()
	go pushClient.Listen(ctx)

	sess, err := establishSession(ctx, auth, cache, logger)
	if err != nil {
		return err
	}
	auth.StartAutoRefresh(ctx, sess)

	model := tui.New(syncer, auth, feedSvc, filterSvc, cfg.UI.FeedLimit)
	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	cancel()
	<-syncDone
	return nil
}

// establishSession restores a persisted session or runs the interactive
// sign-in prompt
func establishSession(ctx context.Context, auth domain.AuthProvider, cache domain.CacheStore, logger *slog.Logger) (*domain.Session, error) {
	if persisted, ok := cache.GetSession(); ok {
		sess, err := auth.Restore(ctx, persisted)
		if err == nil {
			logger.Info("session restored", "email", sess.User.Email)
			return sess, nil
		}
		logger.Warn("session restore failed, prompting for sign-in", "error", err)
	}

	return promptSignIn(ctx, auth)
}

// promptSignIn reads credentials from the terminal and signs in
func promptSignIn(ctx context.Context, auth domain.AuthProvider) (*domain.Session, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	sess, err := auth.SignIn(ctx, email, string(password))
	if err != nil {
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}
	return sess, nil
}
