package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TFMV/cognilink/auth"
	"github.com/TFMV/cognilink/config"
	"github.com/TFMV/cognilink/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve shared graphs, the live viewer and the study assistant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srvCfg, err := serverConfig(cfg)
		if err != nil {
			return err
		}
		graphs, err := newStore(cfg, logger)
		if err != nil {
			return err
		}
		users := auth.NewTokenProvider(cfg.Users())
		if len(cfg.Auth.Users) == 0 {
			logger.Warn("no users configured; sharing is disabled")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(srvCfg, graphs, users, newProvider(cfg, logger), logger)
		Brand.Fprintf(cmd.OutOrStdout(), "CogniLink listening on %s\n", srvCfg.Addr)
		return srv.ListenAndServe(ctx)
	},
}

// serverConfig maps the merged settings onto server.Config
func serverConfig(c *config.Config) (server.Config, error) {
	theme, err := c.Theme()
	if err != nil {
		return server.Config{}, err
	}
	release, err := c.ReleasePolicy()
	if err != nil {
		return server.Config{}, err
	}
	if _, err := c.NewLayout(); err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Addr:            c.Server.Addr,
		FPS:             c.Server.FPS,
		Width:           c.Render.Width,
		Height:          c.Render.Height,
		Steps:           c.Render.Steps,
		Padding:         c.Render.Padding,
		Theme:           theme,
		Parameters:      c.Parameters(),
		Algorithm:       c.Layout.Algorithm,
		BuildOptions:    c.BuildOptions(),
		Release:         release,
		Rules:           c.Auth.Rules,
		SecureCookies:   c.Auth.SecureCookies,
		ShutdownTimeout: c.Server.ShutdownTimeout,
	}, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "address to listen on (e.g. :8080)")
	serveCmd.Flags().Int("fps", 60, "live viewer frame rate")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.fps", serveCmd.Flags().Lookup("fps"))
}
