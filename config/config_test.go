package config

import (
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/spf13/viper"

	"github.com/TFMV/cognilink/auth"
	"github.com/TFMV/cognilink/interact"
	"github.com/TFMV/cognilink/physics"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestDefaults(t *testing.T) {
	c := qt.New(t)

	cfg, err := Load(newViper())
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Server.Addr, qt.Equals, ":8080")
	c.Assert(cfg.Server.ShutdownTimeout, qt.Equals, 5*time.Second)
	c.Assert(cfg.Store.Driver, qt.Equals, "memory")
	c.Assert(cfg.Auth.Rules, qt.DeepEquals, auth.DefaultRules())
	c.Assert(cfg.Parameters(), qt.DeepEquals, physics.DefaultParameters())
	c.Assert(cfg.BuildOptions(), qt.HasLen, 0)

	policy, err := cfg.ReleasePolicy()
	c.Assert(err, qt.IsNil)
	c.Assert(policy, qt.Equals, interact.StickyPin)

	theme, err := cfg.Theme()
	c.Assert(err, qt.IsNil)
	c.Assert(theme.Background, qt.Equals, "#023047")
}

func TestConfigFile(t *testing.T) {
	c := qt.New(t)

	v := newViper()
	v.SetConfigType("yaml")
	err := v.ReadConfig(strings.NewReader(`
server:
  addr: 127.0.0.1:9000
  fps: 30
store:
  driver: file
  dir: /var/lib/cognilink
layout:
  spring_length: 120
  seed: 7
  release: auto-unpin
render:
  theme: light
auth:
  users:
    - token: Tok-MixedCase
      email: ada@example.com
      name: Ada
`))
	c.Assert(err, qt.IsNil)

	cfg, err := Load(v)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Server.Addr, qt.Equals, "127.0.0.1:9000")
	c.Assert(cfg.Server.FPS, qt.Equals, 30)
	c.Assert(cfg.Store.Dir, qt.Equals, "/var/lib/cognilink")
	c.Assert(cfg.Parameters().SpringLength, qt.Equals, 120.0)
	c.Assert(cfg.BuildOptions(), qt.HasLen, 1)

	policy, err := cfg.ReleasePolicy()
	c.Assert(err, qt.IsNil)
	c.Assert(policy, qt.Equals, interact.AutoUnpin)

	c.Assert(cfg.Users(), qt.DeepEquals, map[string]auth.User{
		"Tok-MixedCase": {Email: "ada@example.com", Name: "Ada"},
	})
}

func TestEnvOverrides(t *testing.T) {
	c := qt.New(t)

	c.Setenv("COGNILINK_SERVER_ADDR", ":9999")
	c.Setenv("COGNILINK_QA_API_KEY", "")
	c.Setenv("GEMINI_API_KEY", "from-gemini-env")

	cfg, err := Load(newViper())
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Server.Addr, qt.Equals, ":9999")
	c.Assert(cfg.QA.APIKey, qt.Equals, "from-gemini-env")
}

func TestValidate(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		key   string
		value any
		err   string
	}{
		{"store.driver", "postgres", `store.driver: unknown driver "postgres"`},
		{"layout.release", "bounce", `layout.release: want sticky or auto-unpin, got "bounce"`},
		{"log.format", "xml", `log.format: want text or json, got "xml"`},
		{"server.fps", 0, `server.fps: want 1..240, got 0`},
		{"auth.users", []map[string]any{{"token": "t"}}, `auth.users\[0\]: token and email are required`},
	}
	for _, test := range tests {
		c.Run(test.key, func(c *qt.C) {
			v := newViper()
			v.Set(test.key, test.value)
			_, err := Load(v)
			c.Assert(err, qt.ErrorMatches, test.err)
		})
	}
}
