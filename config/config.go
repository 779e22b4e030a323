// Package config merges flags, environment and config files into the
// settings every command shares.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/TFMV/cognilink/auth"
	"github.com/TFMV/cognilink/interact"
	"github.com/TFMV/cognilink/models"
	"github.com/TFMV/cognilink/physics"
	"github.com/TFMV/cognilink/render"
)

// EnvPrefix prefixes every environment variable, e.g. COGNILINK_SERVER_ADDR
const EnvPrefix = "COGNILINK"

// ConfigName is the config file base name; viper tries json, yaml and toml
const ConfigName = "cognilink.config"

// Config holds the merged settings
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Layout LayoutConfig `mapstructure:"layout"`
	Render RenderConfig `mapstructure:"render"`
	QA     QAConfig     `mapstructure:"qa"`
	Auth   AuthConfig   `mapstructure:"auth"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	FPS             int           `mapstructure:"fps"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the graph store
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory or file
	Dir    string `mapstructure:"dir"`
}

// LayoutConfig tunes the force layout and drag behaviour
type LayoutConfig struct {
	Algorithm      string  `mapstructure:"algorithm"`
	Repulsion      float64 `mapstructure:"repulsion"`
	SpringConstant float64 `mapstructure:"spring_constant"`
	SpringLength   float64 `mapstructure:"spring_length"`
	Gravity        float64 `mapstructure:"gravity"`
	Damping        float64 `mapstructure:"damping"`
	Seed           int64   `mapstructure:"seed"`
	Release        string  `mapstructure:"release"` // sticky or auto-unpin
}

// RenderConfig controls offline rendering
type RenderConfig struct {
	Format    string  `mapstructure:"format"`
	Width     float64 `mapstructure:"width"`
	Height    float64 `mapstructure:"height"`
	Theme     string  `mapstructure:"theme"`
	ThemeFile string  `mapstructure:"theme_file"`
	Padding   float64 `mapstructure:"padding"`
	Steps     int     `mapstructure:"steps"`
}

// QAConfig selects the question answering provider
type QAConfig struct {
	Provider string        `mapstructure:"provider"` // gemini or static
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// UserConfig maps one access token to a user
type UserConfig struct {
	Token string `mapstructure:"token"`
	Email string `mapstructure:"email"`
	Name  string `mapstructure:"name"`
}

// AuthConfig lists users and route rules
type AuthConfig struct {
	Users         []UserConfig `mapstructure:"users"`
	Rules         auth.Rules   `mapstructure:"rules"`
	SecureCookies bool         `mapstructure:"secure_cookies"`
}

// SetDefaults registers every key with its default so environment
// variables can override keys that no config file mentions
func SetDefaults(v *viper.Viper) {
	params := physics.DefaultParameters()
	rules := auth.DefaultRules()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.fps", 60)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dir", "graphs")

	v.SetDefault("layout.algorithm", "force")
	v.SetDefault("layout.repulsion", params.Repulsion)
	v.SetDefault("layout.spring_constant", params.SpringConstant)
	v.SetDefault("layout.spring_length", params.SpringLength)
	v.SetDefault("layout.gravity", params.Gravity)
	v.SetDefault("layout.damping", params.DampingFactor)
	v.SetDefault("layout.seed", 0)
	v.SetDefault("layout.release", interact.StickyPin.String())

	v.SetDefault("render.format", "svg")
	v.SetDefault("render.width", 800)
	v.SetDefault("render.height", 600)
	v.SetDefault("render.theme", "default")
	v.SetDefault("render.theme_file", "")
	v.SetDefault("render.padding", 20)
	v.SetDefault("render.steps", 3000)

	v.SetDefault("qa.provider", "gemini")
	v.SetDefault("qa.api_key", "")
	v.SetDefault("qa.model", "gemini-2.5-flash")
	v.SetDefault("qa.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("qa.timeout", 60*time.Second)

	v.SetDefault("auth.users", []UserConfig{})
	v.SetDefault("auth.rules.protected", rules.Protected)
	v.SetDefault("auth.rules.auth_paths", rules.AuthPaths)
	v.SetDefault("auth.rules.login_path", rules.LoginPath)
	v.SetDefault("auth.rules.dashboard_path", rules.DashboardPath)
	v.SetDefault("auth.rules.api_prefix", rules.APIPrefix)
	v.SetDefault("auth.secure_cookies", false)
}

// BindEnv wires COGNILINK_* variables to keys. The model API key also
// answers to GEMINI_API_KEY.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("qa.api_key", EnvPrefix+"_QA_API_KEY", "GEMINI_API_KEY")
}

// Load unmarshals and validates v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "file":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if _, err := c.ReleasePolicy(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: want text or json, got %q", c.Log.Format)
	}
	if c.Server.FPS <= 0 || c.Server.FPS > 240 {
		return fmt.Errorf("server.fps: want 1..240, got %d", c.Server.FPS)
	}
	seen := make(map[string]bool, len(c.Auth.Users))
	for i, u := range c.Auth.Users {
		if u.Token == "" || u.Email == "" {
			return fmt.Errorf("auth.users[%d]: token and email are required", i)
		}
		if seen[u.Token] {
			return fmt.Errorf("auth.users[%d]: duplicate token", i)
		}
		seen[u.Token] = true
	}
	return nil
}

// Parameters returns the physics parameters with configured overrides
func (c *Config) Parameters() physics.Parameters {
	p := physics.DefaultParameters()
	if c.Layout.Repulsion > 0 {
		p.Repulsion = c.Layout.Repulsion
	}
	if c.Layout.SpringConstant > 0 {
		p.SpringConstant = c.Layout.SpringConstant
	}
	if c.Layout.SpringLength > 0 {
		p.SpringLength = c.Layout.SpringLength
	}
	if c.Layout.Gravity >= 0 {
		p.Gravity = c.Layout.Gravity
	}
	if c.Layout.Damping > 0 && c.Layout.Damping <= 1 {
		p.DampingFactor = c.Layout.Damping
	}
	return p
}

// NewLayout returns the configured layout algorithm
func (c *Config) NewLayout() (physics.LayoutAlgorithm, error) {
	return physics.GetLayoutAlgorithm(c.Layout.Algorithm, c.Parameters())
}

// BuildOptions returns the graph build options; a zero seed keeps the
// plain circle
func (c *Config) BuildOptions() []models.BuildOption {
	if c.Layout.Seed == 0 {
		return nil
	}
	return []models.BuildOption{models.WithSeed(c.Layout.Seed)}
}

// ReleasePolicy parses layout.release
func (c *Config) ReleasePolicy() (interact.ReleasePolicy, error) {
	switch strings.ToLower(c.Layout.Release) {
	case "", interact.StickyPin.String():
		return interact.StickyPin, nil
	case interact.AutoUnpin.String():
		return interact.AutoUnpin, nil
	default:
		return 0, fmt.Errorf("layout.release: want sticky or auto-unpin, got %q", c.Layout.Release)
	}
}

// Theme resolves the render theme; a theme file wins over a theme name
func (c *Config) Theme() (*render.Theme, error) {
	if c.Render.ThemeFile != "" {
		return render.LoadTheme(c.Render.ThemeFile)
	}
	return render.ThemeByName(c.Render.Theme)
}

// Users returns the token table for auth.NewTokenProvider
func (c *Config) Users() map[string]auth.User {
	users := make(map[string]auth.User, len(c.Auth.Users))
	for _, u := range c.Auth.Users {
		users[u.Token] = auth.User{Email: u.Email, Name: u.Name}
	}
	return users
}
