package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/linkgraph/internal/engine"
	"github.com/starford/linkgraph/internal/index"
	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/layout"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Graph  GraphConfig       `yaml:"graph"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Graph.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory and how file
// changes are batched.
type VaultConfig struct {
	Path     string        `yaml:"path"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// GraphConfig holds the initial display settings and engine tuning.
type GraphConfig struct {
	Profile         string        `yaml:"profile"`
	Gravity         float64       `yaml:"gravity"`
	ShowTags        bool          `yaml:"show_tags"`
	FPS             int           `yaml:"fps"`
	Width           float64       `yaml:"width"`
	Height          float64       `yaml:"height"`
	ReadConcurrency int           `yaml:"read_concurrency"`
	PreviewDelay    time.Duration `yaml:"preview_delay"`
	PreviewMaxRunes int           `yaml:"preview_max_runes"`
}

// Validate validates the graph configuration.
func (c *GraphConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Profile, validation.In(
			string(layout.ProfileDefault), string(layout.ProfileAlternate), "dense")),
		validation.Field(&c.Gravity, validation.Min(engine.MinGravity), validation.Max(engine.MaxGravity)),
		validation.Field(&c.FPS, validation.Required, validation.Min(1), validation.Max(240)),
		validation.Field(&c.Width, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Height, validation.Required, validation.Min(1.0)),
		validation.Field(&c.ReadConcurrency, validation.Required, validation.Min(1)),
		validation.Field(&c.PreviewDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.PreviewMaxRunes, validation.Required, validation.Min(1)),
	)
}

// EngineConfig converts c to an engine configuration.
func (c *GraphConfig) EngineConfig() engine.Config {
	profile, _ := layout.ParseProfile(c.Profile)
	ic := interaction.DefaultConfig()
	ic.HoverDelay = c.PreviewDelay
	ic.PreviewMaxRunes = c.PreviewMaxRunes
	return engine.Config{
		Settings: layout.Settings{
			Profile:  profile,
			Gravity:  c.Gravity,
			ShowTags: c.ShowTags,
		},
		Width:           c.Width,
		Height:          c.Height,
		FPS:             c.FPS,
		ReadConcurrency: c.ReadConcurrency,
		Interaction:     ic,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	ec := engine.DefaultConfig()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:     "./vault",
			Debounce: index.DefaultDebounce,
		},
		SQLite: SQLiteConfig{
			Path: "./linkgraph.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Graph: GraphConfig{
			Profile:         string(ec.Settings.Profile),
			Gravity:         ec.Settings.Gravity,
			ShowTags:        ec.Settings.ShowTags,
			FPS:             ec.FPS,
			Width:           ec.Width,
			Height:          ec.Height,
			ReadConcurrency: ec.ReadConcurrency,
			PreviewDelay:    ec.Interaction.HoverDelay,
			PreviewMaxRunes: ec.Interaction.PreviewMaxRunes,
		},
	}
}
