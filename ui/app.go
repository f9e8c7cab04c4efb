package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"light-chat/auth"
	"light-chat/chat"
	"light-chat/db"
	"light-chat/llm"
	"light-chat/utils"
)

// App is the terminal chat shell: login gate, conversation list and transcript
type App struct {
	config  *utils.Config
	backend db.Backend
	logger  *utils.Logger

	provider      llm.Provider
	authenticator auth.Authenticator
	flag          *auth.SessionFlag
	store         *chat.Store
	session       *chat.Session

	in          LineReader
	out         io.Writer
	historyFile string
	now         func() time.Time
}

// Option customizes an App
type Option func(*App)

// WithInput replaces the terminal, mainly for tests
func WithInput(in LineReader) Option {
	return func(a *App) { a.in = in }
}

// WithOutput redirects what the shell prints
func WithOutput(out io.Writer) Option {
	return func(a *App) { a.out = out }
}

// WithHistoryFile persists prompt history between runs
func WithHistoryFile(path string) Option {
	return func(a *App) { a.historyFile = path }
}

// WithClock fixes the time used for timestamps and export names
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// NewApp creates a new application instance over backend
func NewApp(config *utils.Config, backend db.Backend, provider llm.Provider, authenticator auth.Authenticator, logger *utils.Logger, opts ...Option) *App {
	if logger == nil {
		logger = utils.NopLogger()
	}
	a := &App{
		config:        config,
		backend:       backend,
		logger:        logger,
		provider:      provider,
		authenticator: authenticator,
		out:           os.Stdout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.flag = auth.NewSessionFlag(db.SlotFor(backend, auth.SessionKey))
	a.store = chat.NewStore(db.SlotFor(backend, chat.ConversationsKey), chat.WithClock(a.now))
	a.session = chat.NewSession(a.store, llm.AsCompleter(provider),
		chat.WithLogger(logger), chat.WithSessionClock(a.now))
	return a
}

// Run drives the shell until the user quits or input ends
func (a *App) Run(ctx context.Context) error {
	if a.in == nil {
		a.in = newTerminal(a.historyFile)
	}
	defer a.Cleanup()

	if a.config.Data.ClearOnStart {
		if err := a.session.Reset(); err != nil {
			a.logger.Error("Failed to clear conversations on start: %v", err)
		}
	}

	for {
		if !a.flag.IsLoggedIn() {
			ok, err := a.login(ctx)
			if err != nil {
				if isExit(err) {
					return nil
				}
				return err
			}
			if !ok {
				continue
			}
		}

		quit, err := a.chatLoop(ctx)
		if err != nil || quit {
			return err
		}
	}
}

// Cleanup releases the terminal
func (a *App) Cleanup() {
	if a.in != nil {
		if err := a.in.Close(); err != nil {
			a.logger.Warn("Failed to close input: %v", err)
		}
		a.in = nil
	}
}

func (a *App) printf(format string, v ...interface{}) {
	fmt.Fprintf(a.out, format, v...)
}

func (a *App) login(ctx context.Context) (bool, error) {
	a.printf("Sign in to continue.\n")
	email, err := a.in.Prompt("Email: ")
	if err != nil {
		return false, err
	}
	password, err := a.in.PasswordPrompt("Password: ")
	if err != nil {
		return false, err
	}

	ok, err := a.authenticator.Authenticate(ctx, strings.TrimSpace(email), password)
	if err != nil {
		a.logger.Error("Login failed: %v", err)
	}
	if !ok {
		a.printf("[Error] %v\n", auth.ErrInvalidCredentials)
		return false, nil
	}

	if err := a.flag.Set(); err != nil {
		// the shell still opens; the flag just won't survive a restart
		a.logger.Warn("Failed to persist login: %v", err)
	}
	a.logger.Info("User logged in")
	return true, nil
}

// chatLoop returns quit=true when the shell should exit, false after logout
func (a *App) chatLoop(ctx context.Context) (bool, error) {
	a.printf("Type a message and press Enter. /help lists commands.\n")
	for {
		input, err := a.in.Prompt(a.prompt())
		if err != nil {
			if isExit(err) {
				a.printf("\n")
				return true, nil
			}
			return true, err
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "/") {
			next, err := a.handleCommand(trimmed)
			if err != nil {
				a.printf("[Error] %v\n", err)
			}
			switch next {
			case actionQuit:
				return true, nil
			case actionLogout:
				return false, nil
			}
			continue
		}

		a.submit(ctx, input)
	}
}

func (a *App) prompt() string {
	if conv, ok, _ := a.session.Current(); ok {
		return fmt.Sprintf("[%s]> ", conv.Title)
	}
	return "> "
}

func (a *App) submit(ctx context.Context, input string) {
	a.printf("...\n")
	result, err := a.session.Submit(ctx, input)
	switch {
	case errors.Is(err, chat.ErrEmptyInput), errors.Is(err, chat.ErrSubmissionInFlight):
		return
	case err != nil:
		a.printf("[Error] %v\n", err)
		return
	}

	if result.Answered() {
		a.printf("%s\n\n", result.Reply.Content)
	}
}
