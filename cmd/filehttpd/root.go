package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"filehttpd/internal/config"
	"filehttpd/internal/handler"
	"filehttpd/internal/logging"
	"filehttpd/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configFile string
	v := config.New()

	cmd := &cobra.Command{
		Use:   "filehttpd -p PORT -r DOCUMENT_DIRECTORY -t AUTH_TOKEN",
		Short: "Serve files from a directory until told to stop",
		Long: `filehttpd answers one request per connection, one connection at a time.

  GET /path HTTP/1.1        sends DOCUMENT_DIRECTORY/path ("/" means /homepage.html)
  TERMINATE TOKEN HTTP/1.1  stops the server when TOKEN matches AUTH_TOKEN

Every setting can also come from the environment (FILEHTTPD_PORT,
FILEHTTPD_ROOT, FILEHTTPD_TOKEN, ...) or from a --config file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stderr)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	f := cmd.Flags()
	f.StringP("port", "p", "", "port to listen on (1025-65535)")
	f.StringP("root", "r", "", "document directory to serve files from")
	f.StringP("token", "t", "", "authorization token accepted by TERMINATE")
	f.String("token-hash", "", "bcrypt hash of the authorization token, instead of -t")
	f.Duration("read-timeout", config.DefaultReadTimeout, "limit on each read from a client (0 disables)")
	f.Int("max-line", config.DefaultMaxLine, "maximum request line length in bytes")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.String("log-format", "text", "log format: text or json")
	f.StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	bindFlags(v, f)

	cmd.AddCommand(newHashTokenCmd(stdout))
	return cmd
}

// bindFlags makes every flag a viper key, dashes turned into underscores.
func bindFlags(v *viper.Viper, f *pflag.FlagSet) {
	f.VisitAll(func(fl *pflag.Flag) {
		if fl.Name == "config" {
			return
		}
		_ = v.BindPFlag(strings.ReplaceAll(fl.Name, "-", "_"), fl)
	})
}

func newVerifier(cfg *config.Config) (handler.Verifier, error) {
	if cfg.TokenHash != "" {
		return handler.NewHashedToken(cfg.TokenHash)
	}
	return handler.PlainToken(cfg.Token), nil
}

// run serves until a termination request, a signal, or a fatal accept error.
func run(ctx context.Context, cfg *config.Config, logOut io.Writer) error {
	logger := logging.New(logOut, logging.LevelFromString(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))

	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}

	get, err := handler.NewGetHandler(cfg.Root)
	if err != nil {
		return err
	}
	defer get.Close()

	srv, err := server.Serve(server.Options{
		Port:        cfg.Port,
		ReadTimeout: cfg.ReadTimeout,
		MaxLine:     cfg.MaxLine,
	}, get, handler.NewTerminateHandler(verifier), logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	logger.Info("server started",
		"port", srv.Port,
		"root", get.Dir(),
		"read_timeout", cfg.ReadTimeout,
		"max_line", cfg.MaxLine,
	)

	select {
	case <-srv.Done():
	case <-ctx.Done():
		logger.Info("received shutdown signal")
		_ = srv.Close()
	}

	if err := srv.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped", "terminated", srv.Terminated())
	return nil
}
