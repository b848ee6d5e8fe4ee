package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-dashboard/internal/auth"
	"product-dashboard/internal/client"
	"product-dashboard/internal/config"
	"product-dashboard/internal/dashboard"
	"product-dashboard/internal/logger"
	"product-dashboard/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNotSignedIn = errors.New("not signed in, run `productctl login` first")

// app is everything a command needs, opened once per invocation
type app struct {
	logger    *zap.Logger
	kv        storage.KV
	service   auth.Service
	session   *auth.Session
	authStore *auth.Store
	dashboard *dashboard.Dashboard
}

// opener builds the app; tests swap it for one backed by temp storage
type opener func(ctx context.Context) (*app, error)

type cli struct {
	open    opener
	timeout time.Duration
	app     *app
}

// load opens the app on first use so that help and completion never touch
// the local store
func (c *cli) load(ctx context.Context) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.kv.Close(); err != nil {
		c.app.logger.Warn("Failed to close local store", zap.Error(err))
	}
	_ = c.app.logger.Sync()
	c.app = nil
}

// context returns the command context bounded by --timeout
func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	log, err := logger.NewCLI(cfg.Server.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	kv, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	api := client.New(cfg.Products.BaseURL,
		client.WithTimeout(cfg.Products.Timeout),
		client.WithRateLimit(cfg.Products.Rate, cfg.Products.Burst),
		client.WithLogger(log),
	)

	a, err := newApp(ctx, cfg, log, kv, api)
	if err != nil {
		kv.Close()
		return nil, err
	}
	return a, nil
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, kv storage.KV, api client.ProductAPI) (*app, error) {
	service := auth.NewService(kv, cfg.JWT.Secret,
		auth.WithTokenExpiry(time.Duration(cfg.JWT.Expiry)*time.Hour),
		auth.WithLatency(cfg.Auth.Latency),
		auth.WithServiceLogger(log),
	)

	session := auth.NewSession(kv)
	if err := session.Init(ctx); err != nil {
		log.Warn("Discarding unreadable session", zap.Error(err))
		if err := session.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset session: %w", err)
		}
	}

	return &app{
		logger:    log,
		kv:        kv,
		service:   service,
		session:   session,
		authStore: auth.NewStore(service, session, log),
		dashboard: dashboard.New(api, cfg.Products.PageSize, log),
	}, nil
}

// requireUser returns the signed-in user after checking the stored token is
// still valid. An expired or revoked token clears the session.
func (a *app) requireUser(ctx context.Context) (*auth.Claims, error) {
	if !a.session.IsAuthenticated() {
		return nil, errNotSignedIn
	}

	claims, err := a.service.ValidateToken(ctx, a.session.Token())
	if errors.Is(err, auth.ErrInvalidToken) {
		if err := a.session.Clear(ctx); err != nil {
			a.logger.Warn("Failed to clear session", zap.Error(err))
		}
		return nil, fmt.Errorf("session expired: %w", errNotSignedIn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}
	return claims, nil
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "productctl",
		Short: "Manage products from the terminal",
		Long: `productctl browses and edits the remote product collection.

Sign in with 'productctl login' (or create an account with 'productctl register');
the session is kept in the configured local store until 'productctl logout'.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "Timeout for each command")

	root.AddCommand(
		newListCmd(c),
		newGetCmd(c),
		newCreateCmd(c),
		newUpdateCmd(c),
		newDeleteCmd(c),
		newRegisterCmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	c := &cli{open: openApp}
	err := newRootCmd(c).ExecuteContext(ctx)
	c.close()
	stop()

	if err != nil {
		os.Exit(1)
	}
}
