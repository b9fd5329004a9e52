// Package config provides functionality for managing configuration options
// for the application using a JSON file, command-line flags and environment
// variables, applied in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// DefaultSecretKey is the fallback secret used outside production.
var DefaultSecretKey = strings.Repeat("0123", 8)

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `json:"address"`

	// DatabaseDSN holds the Postgres connection string.
	DatabaseDSN string `json:"database_dsn"`
	// MaxOpenConns bounds the connection pool.
	MaxOpenConns int `json:"max_open_conns"`
	// MaxIdleConns is the number of pooled connections kept idle.
	MaxIdleConns int `json:"max_idle_conns"`

	// SecretKey keys both the credential hasher and the session cookie.
	SecretKey string `json:"secret_key"`
	// Production turns on the Secure cookie attribute and forbids DefaultSecretKey.
	Production bool `json:"production"`

	// FrontendAddress is the allowed CORS origin and the base of confirmation links.
	FrontendAddress string `json:"frontend_address"`
	// ConfirmationPath is appended to FrontendAddress, followed by the invitation id.
	ConfirmationPath string `json:"confirmation_path"`

	LogLevel string `json:"log_level"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	SMTPFrom     string `json:"smtp_from"`

	// RedisAddr enables the session revocation list when set.
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// CleanupInterval is how often consumed invitations are purged; 0 disables it.
	CleanupInterval time.Duration `json:"-"`
	// InvitationRetention is how long a consumed invitation outlives its expiry.
	InvitationRetention time.Duration `json:"-"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Defaults returns the options used when nothing else is configured.
func Defaults() *Options {
	return &Options{
		Address:             "localhost:8080",
		MaxOpenConns:        25,
		MaxIdleConns:        5,
		SecretKey:           DefaultSecretKey,
		FrontendAddress:     "http://localhost:3000",
		ConfirmationPath:    "/register/confirm/",
		LogLevel:            "info",
		SMTPPort:            587,
		SMTPFrom:            "no-reply@notekeeper.local",
		CleanupInterval:     time.Hour,
		InvitationRetention: 30 * 24 * time.Hour,
		Config:              "config.json",
	}
}

func newFlagSet(o *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("notekeeper", pflag.ContinueOnError)
	fs.StringVarP(&o.Address, "address", "a", o.Address, "run on ip:port server")
	fs.StringVarP(&o.DatabaseDSN, "database-dsn", "d", o.DatabaseDSN, "postgres connection string")
	fs.IntVar(&o.MaxOpenConns, "db-max-open", o.MaxOpenConns, "max open db connections")
	fs.IntVar(&o.MaxIdleConns, "db-max-idle", o.MaxIdleConns, "max idle db connections")
	fs.StringVar(&o.SecretKey, "secret-key", o.SecretKey, "secret for password hashing and sessions")
	fs.BoolVar(&o.Production, "production", o.Production, "production mode (secure cookies)")
	fs.StringVar(&o.FrontendAddress, "frontend-address", o.FrontendAddress, "frontend origin")
	fs.StringVar(&o.ConfirmationPath, "confirmation-path", o.ConfirmationPath, "frontend path of the confirmation page")
	fs.StringVarP(&o.LogLevel, "log-level", "l", o.LogLevel, "log level")
	fs.StringVar(&o.SMTPHost, "smtp-host", o.SMTPHost, "smtp host; empty logs mails instead of sending")
	fs.IntVar(&o.SMTPPort, "smtp-port", o.SMTPPort, "smtp port")
	fs.StringVar(&o.SMTPUsername, "smtp-username", o.SMTPUsername, "smtp username")
	fs.StringVar(&o.SMTPPassword, "smtp-password", o.SMTPPassword, "smtp password")
	fs.StringVar(&o.SMTPFrom, "smtp-from", o.SMTPFrom, "sender address")
	fs.StringVar(&o.RedisAddr, "redis-addr", o.RedisAddr, "redis address; empty disables session revocation")
	fs.StringVar(&o.RedisPassword, "redis-password", o.RedisPassword, "redis password")
	fs.IntVar(&o.RedisDB, "redis-db", o.RedisDB, "redis database")
	fs.DurationVar(&o.CleanupInterval, "cleanup-interval", o.CleanupInterval, "consumed invitation cleanup interval, 0 disables")
	fs.DurationVar(&o.InvitationRetention, "invitation-retention", o.InvitationRetention, "how long consumed invitations are kept")
	fs.StringVarP(&o.Config, "config", "c", o.Config, "path to config file")
	return fs
}

// Parse builds Options from args (without the program name), the optional
// JSON config file and the environment.
func Parse(args []string) (*Options, error) {
	// First pass only locates the config file.
	pre := Defaults()
	if err := newFlagSet(pre).Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	path := pre.Config
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		path = configPath
	}

	options := Defaults()
	if err := loadFile(path, options); err != nil {
		return nil, err
	}
	options.Config = path

	// Second pass: flags win over the file.
	if err := newFlagSet(options).Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	options.Config = path

	if err := applyEnv(options); err != nil {
		return nil, err
	}
	return options, nil
}

func loadFile(path string, o *Options) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func applyEnv(o *Options) error {
	str := map[string]*string{
		"BIND_ADDRESS":                  &o.Address,
		"DATABASE_URL":                  &o.DatabaseDSN,
		"SECRET_KEY":                    &o.SecretKey,
		"FRONTEND_ADDRESS":              &o.FrontendAddress,
		"REGISTRATION_CONFIRMATION_URL": &o.ConfirmationPath,
		"LOG_LEVEL":                     &o.LogLevel,
		"SMTP_HOST":                     &o.SMTPHost,
		"SMTP_USERNAME":                 &o.SMTPUsername,
		"SMTP_PASSWORD":                 &o.SMTPPassword,
		"SMTP_FROM":                     &o.SMTPFrom,
		"REDIS_ADDR":                    &o.RedisAddr,
		"REDIS_PASSWORD":                &o.RedisPassword,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SMTP_PORT": &o.SMTPPort,
		"REDIS_DB":  &o.RedisDB,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("PRODUCTION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env PRODUCTION: %w", err)
		}
		o.Production = b
	}
	return nil
}

// Validate reports configuration that the server cannot start with.
func (o *Options) Validate() error {
	if o.DatabaseDSN == "" {
		return errors.New("database dsn is required")
	}
	if len(o.SecretKey) < 32 {
		return errors.New("secret key must be at least 32 bytes")
	}
	if o.Production && o.SecretKey == DefaultSecretKey {
		return errors.New("default secret key is not allowed in production")
	}
	return nil
}

// ConfirmationURL returns the link mailed for the given invitation id.
func (o *Options) ConfirmationURL(invitationID string) string {
	return o.FrontendAddress + o.ConfirmationPath + invitationID
}
