// Package config reads process configuration from the environment, with an
// optional .env overlay for local development.
package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read once at startup; the provider choice derived from it is
// never re-decided per request.
type Config struct {
	Addr      string `env:"BOARD_ADDR" env-default:":3333"`
	DataFile  string `env:"BOARD_DATA_FILE" env-default:"data/board.json"`
	StaticDir string `env:"BOARD_STATIC_DIR" env-default:"public"`
	Remote    Remote
}

// Remote configures the relational provider. All three values must be set
// for the remote store to be selected; anything less runs on the local file.
type Remote struct {
	Enabled  bool   `env:"BOARD_REMOTE_ENABLED" env-default:"false"`
	Driver   string `env:"BOARD_REMOTE_DRIVER" env-default:"pgx"`
	URL      string `env:"BOARD_REMOTE_URL"`
	Password string `env:"BOARD_REMOTE_PASSWORD"`
}

// Active reports whether the remote provider should be used: the feature
// flag plus both credentials.
func (r Remote) Active() bool {
	return r.Enabled && r.URL != "" && r.Password != ""
}

// DSN combines the remote URL and password into a connection string. For
// non-URL DSNs (the sqlite3 driver) the URL is passed through untouched.
func (r Remote) DSN() (string, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", fmt.Errorf("remote url: %w", err)
	}
	if u.Scheme == "postgres" || u.Scheme == "postgresql" {
		u.User = url.UserPassword(u.User.Username(), r.Password)
		return u.String(), nil
	}
	return r.URL, nil
}

// Load reads the optional env file, then the process environment.
func Load(envFile string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(envFile); err == nil {
		if err := cleanenv.ReadConfig(envFile, cfg); err != nil {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}
