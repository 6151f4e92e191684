package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	googleadapter "github.com/ericfisherdev/mailrelay/internal/adapter/driven/google"
	smtpadapter "github.com/ericfisherdev/mailrelay/internal/adapter/driven/smtp"
	sqliteadapter "github.com/ericfisherdev/mailrelay/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/mailrelay/internal/adapter/driving/http"
	"github.com/ericfisherdev/mailrelay/internal/application"
	"github.com/ericfisherdev/mailrelay/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"smtp_addr", cfg.SMTPAddr,
		"mail_user", cfg.MailUser,
		"bootstrap_source", cfg.BootstrapSource,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "version", version)

	// 5. Wire driven adapters.
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.CredentialTenant)
	referralStore := sqliteadapter.NewReferralRepo(db)

	provider := googleadapter.NewProvider(googleadapter.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		AuthURL:      cfg.GoogleAuthURL,
		TokenURL:     cfg.GoogleTokenURL,
	}, &http.Client{Timeout: 15 * time.Second})

	transport, err := smtpadapter.NewTransport(smtpadapter.Config{
		Addr:        cfg.SMTPAddr,
		FromName:    cfg.MailFromName,
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return err
	}

	// 6. Token service, seeded from the token file or env when the store is empty.
	tokenSvc := application.NewTokenService(credentialStore, provider, slog.Default())
	if cfg.HasBootstrapToken() {
		seeded, err := tokenSvc.Bootstrap(ctx, cfg.BootstrapRefreshToken)
		if err != nil {
			return err
		}
		if seeded {
			slog.Info("credential seeded from bootstrap refresh token", "source", cfg.BootstrapSource)
		}
	}

	// 7. Mail, referral and health services.
	mailSvc := application.NewMailService(
		tokenSvc,
		transport,
		application.MailIdentity{
			User:         cfg.MailUser,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
		},
		cfg.TestRecipient,
		slog.Default(),
	)
	referralSvc := application.NewReferralService(referralStore, mailSvc, slog.Default())
	healthSvc := application.NewHealthService(credentialStore)

	// 8. HTTP handler with middleware.
	apiHandler := httphandler.NewHandler(tokenSvc, mailSvc, referralSvc, healthSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default(), cfg.FrontendOrigin)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("mailrelay started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for in-flight sends.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
