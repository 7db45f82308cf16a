// Package app contains the main entrypoint for the server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	// Register the pgx database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	// Register the sqlite database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/starquake/quizbench/internal/config"
	"github.com/starquake/quizbench/internal/database"
	"github.com/starquake/quizbench/internal/logging"
	"github.com/starquake/quizbench/internal/member"
	"github.com/starquake/quizbench/internal/server"
	"github.com/starquake/quizbench/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// fixtureNames are the members loaded into an empty in-memory store when fixtures are enabled.
//
//nolint:gochecknoglobals // fixed fixture
var fixtureNames = []string{"A", "B", "C"}

// Run starts the application server, opens the store, runs migrations, and serves requests until ctx is canceled or
// the process is interrupted. A nil ln makes Run listen on the configured host and port.
func Run(
	ctx context.Context,
	getenv func(string) string,
	stdout io.Writer,
	ln net.Listener,
) error {
	var err error
	mainCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var cfg *config.Config
	if cfg, err = config.Parse(getenv); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}

	logger := logging.New(stdout, cfg.LogLevel, cfg.LogFormat)

	stores, closeStores, err := openStores(mainCtx, logger, cfg)
	if err != nil {
		msg := "error opening store"
		logger.ErrorContext(ctx, msg, slog.Any("err", err))

		return fmt.Errorf("%s: %w", msg, err)
	}
	defer closeStores()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.NewServer(logger, cfg, stores, reg)

	if ln == nil {
		listenConfig := &net.ListenConfig{}
		ln, err = listenConfig.Listen(mainCtx, "tcp", net.JoinHostPort(cfg.Host, cfg.Port))
		if err != nil {
			return fmt.Errorf("error listening on %s:%s: %w", cfg.Host, cfg.Port, err)
		}
	}

	httpServer := &http.Server{
		ReadHeaderTimeout: readHeaderTimeout,
		Handler:           srv,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gCtx := errgroup.WithContext(mainCtx)
	g.Go(func() error {
		addr := ln.Addr().String()
		logger.InfoContext(ctx, "listening on "+addr, slog.String("addr", addr))
		logger.InfoContext(ctx, fmt.Sprintf("visit http://%s/admin/members to manage members", addr))
		if serveErr := httpServer.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("error listening and serving: %w", serveErr)
		}

		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		// make a new context for the Shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer shutdownCancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("error shutting down server: %w", shutdownErr)
		}
		logger.InfoContext(shutdownCtx, "server stopped")

		return nil
	})

	if err = g.Wait(); err != nil {
		logger.ErrorContext(ctx, "server error", slog.Any("err", err))

		return err
	}

	return nil
}

// openStores opens the store selected by the config. The returned func releases it.
func openStores(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*store.Stores, func(), error) {
	if cfg.DBDriver == config.DBDriverMemory {
		stores := store.NewMemory()
		if cfg.SeedFixtures {
			if err := seedMemory(ctx, stores); err != nil {
				return nil, nil, err
			}
			logger.InfoContext(ctx, "loaded member fixture")
		}

		return stores, func() {}, nil
	}

	dialect, err := database.DialectFor(cfg.DBDriver)
	if err != nil {
		return nil, nil, fmt.Errorf("error selecting dialect: %w", err)
	}

	conn, err := database.Open(ctx, cfg.DBDriver, cfg.DBURI, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening database connection: %w", err)
	}
	closeConn := func() {
		if conErr := conn.Close(); conErr != nil {
			logger.ErrorContext(ctx, "error closing database connection", slog.Any("err", conErr))
		}
	}

	if err = prepareDatabase(ctx, logger, cfg, conn, dialect); err != nil {
		closeConn()

		return nil, nil, err
	}

	return store.New(conn, dialect, logger), closeConn, nil
}

func prepareDatabase(
	ctx context.Context,
	logger *slog.Logger,
	cfg *config.Config,
	conn *sql.DB,
	dialect database.Dialect,
) error {
	if err := database.Migrate(ctx, conn, dialect); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}
	if !cfg.SeedFixtures {
		return nil
	}

	seeded, err := database.Seed(ctx, conn, dialect)
	if err != nil {
		return fmt.Errorf("error seeding database: %w", err)
	}
	if seeded {
		logger.InfoContext(ctx, "loaded member fixture")
	}

	return nil
}

func seedMemory(ctx context.Context, stores *store.Stores) error {
	ms := make([]*member.Member, 0, len(fixtureNames))
	for _, name := range fixtureNames {
		ms = append(ms, &member.Member{Name: name})
	}
	if err := stores.Members.SaveAll(ctx, ms); err != nil {
		return fmt.Errorf("error seeding members: %w", err)
	}

	return nil
}
