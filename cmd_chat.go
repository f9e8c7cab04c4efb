package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"light-chat/db"
	"light-chat/ui"
)

var chatRemote bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the terminal chat",
	Long: `Open the interactive chat shell.

Conversations and the login flag are kept in the local store configured under
"data". With --remote, completions and logins go through a running gateway.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatRemote, "remote", false, "Use the gateway at server.gateway_url")
}

func runChat(cmd *cobra.Command, args []string) error {
	config, logger, err := loadRuntime(true)
	if err != nil {
		return err
	}
	defer logger.Close()

	backend, err := db.Open(config.Data.Backend, config.Data.DBPath)
	if err != nil {
		// keep the shell usable; history lasts until exit
		logger.Error("Failed to open %s storage at %s, using memory: %v", config.Data.Backend, config.Data.DBPath, err)
		backend = db.NewMemory()
	} else {
		logger.Info("Storage initialized: %s (%s)", config.Data.DBPath, config.Data.Backend)
	}
	defer backend.Close()

	provider, err := ui.NewProviderFromConfig(config, chatRemote, logger)
	if err != nil {
		return err
	}
	authenticator := ui.NewAuthenticatorFromConfig(config, chatRemote, logger)

	historyFile := filepath.Join(filepath.Dir(config.Data.DBPath), "chat_history")
	app := ui.NewApp(config, backend, provider, authenticator, logger, ui.WithHistoryFile(historyFile))

	logger.Info("Application started")
	err = app.Run(cmd.Context())
	logger.Info("Application stopped")
	return err
}
