// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"

	"github.com/ericfisherdev/mailrelay/internal/adapter/driven/tokenfile"
)

// Bootstrap token sources, in precedence order.
const (
	SourceTokenFile = "token_file"
	SourceEnv       = "env"
	SourceNone      = "none"
)

// Config holds the application configuration. It is resolved once at startup
// and never mutated afterwards.
type Config struct {
	ListenAddr string `env:"MAILRELAY_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	Port       string `env:"PORT"`
	DBPath     string `env:"MAILRELAY_DB_PATH" envDefault:"mailrelay.db"`

	GoogleClientID     string `env:"MAILRELAY_GOOGLE_CLIENT_ID,required,notEmpty"`
	GoogleClientSecret string `env:"MAILRELAY_GOOGLE_CLIENT_SECRET,required,notEmpty"`
	GoogleRedirectURI  string `env:"MAILRELAY_GOOGLE_REDIRECT_URI,required,notEmpty"`
	GoogleAuthURL      string `env:"MAILRELAY_GOOGLE_AUTH_URL"`
	GoogleTokenURL     string `env:"MAILRELAY_GOOGLE_TOKEN_URL"`

	MailUser      string `env:"MAILRELAY_MAIL_USER,required,notEmpty"`
	MailFromName  string `env:"MAILRELAY_MAIL_FROM_NAME" envDefault:"Referrals"`
	SMTPAddr      string `env:"MAILRELAY_SMTP_ADDR" envDefault:"smtp.gmail.com:465"`
	TestRecipient string `env:"MAILRELAY_TEST_RECIPIENT"`

	FrontendOrigin   string `env:"MAILRELAY_FRONTEND_ORIGIN"`
	CredentialTenant string `env:"MAILRELAY_CREDENTIAL_TENANT" envDefault:"default"`

	TokenFile       string `env:"MAILRELAY_TOKEN_FILE" envDefault:"token.json"`
	EnvRefreshToken string `env:"MAILRELAY_REFRESH_TOKEN"`

	// BootstrapRefreshToken is the resolved fallback refresh token, used only
	// when the credential store is empty. BootstrapSource names where it came from.
	BootstrapRefreshToken string
	BootstrapSource       string
}

// HasBootstrapToken returns true when a fallback refresh token was resolved.
func (c *Config) HasBootstrapToken() bool {
	return c.BootstrapRefreshToken != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// Required: MAILRELAY_GOOGLE_CLIENT_ID, MAILRELAY_GOOGLE_CLIENT_SECRET,
// MAILRELAY_GOOGLE_REDIRECT_URI, MAILRELAY_MAIL_USER.
// PORT, when set, replaces the port of MAILRELAY_LISTEN_ADDR.
// The bootstrap refresh token is resolved with precedence
// token file (MAILRELAY_TOKEN_FILE) > MAILRELAY_REFRESH_TOKEN > none.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	host, _, err := net.SplitHostPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("MAILRELAY_LISTEN_ADDR has invalid address %q: %w", cfg.ListenAddr, err)
	}
	if cfg.Port != "" {
		if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
			return nil, fmt.Errorf("PORT has invalid value %q: %w", cfg.Port, err)
		}
		cfg.ListenAddr = net.JoinHostPort(host, cfg.Port)
	}

	if _, _, err := net.SplitHostPort(cfg.SMTPAddr); err != nil {
		return nil, fmt.Errorf("MAILRELAY_SMTP_ADDR has invalid address %q: %w", cfg.SMTPAddr, err)
	}

	fileToken, err := tokenfile.ReadRefreshToken(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("MAILRELAY_TOKEN_FILE: %w", err)
	}

	switch {
	case fileToken != "":
		cfg.BootstrapRefreshToken = fileToken
		cfg.BootstrapSource = SourceTokenFile
	case cfg.EnvRefreshToken != "":
		cfg.BootstrapRefreshToken = cfg.EnvRefreshToken
		cfg.BootstrapSource = SourceEnv
	default:
		cfg.BootstrapSource = SourceNone
	}

	return &cfg, nil
}
