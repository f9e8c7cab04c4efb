package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"light-chat/server"
	"light-chat/ui"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat gateway",
	Long: `Run the stateless HTTP gateway.

Routes:
  POST /api/chat    forward a transcript to the configured provider
  POST /api/login   check the admin credentials
  GET  /health      liveness
  GET  /metrics     Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	config, logger, err := loadRuntime(false)
	if err != nil {
		return err
	}
	defer logger.Close()

	if serveAddr != "" {
		config.Server.Addr = serveAddr
	}

	provider, err := ui.NewProviderFromConfig(config, false, logger)
	if err != nil {
		return err
	}
	authenticator := ui.NewAuthenticatorFromConfig(config, false, logger)

	srv := server.New(server.Config{
		Addr:        config.Server.Addr,
		CORSOrigins: config.Server.CORSOrigins,
		Version:     version,
	}, provider, authenticator, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting light-chat gateway v%s", version)
	return srv.Run(ctx)
}
