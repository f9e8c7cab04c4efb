package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"light-chat/chat"
	"light-chat/utils"
)

type action int

const (
	actionContinue action = iota
	actionLogout
	actionQuit
)

var commandHelp = [][2]string{
	{"/new", "Start a new conversation"},
	{"/list", "List saved conversations, newest first"},
	{"/open N", "Continue conversation N from /list"},
	{"/delete N", "Delete conversation N from /list"},
	{"/show", "Print the current conversation"},
	{"/export [json|md] [path]", "Export all conversations"},
	{"/stats", "Show storage statistics"},
	{"/provider", "Show the active provider and its models"},
	{"/clear", "Delete every conversation"},
	{"/logout", "Sign out"},
	{"/quit", "Exit"},
}

func (a *App) handleCommand(input string) (action, error) {
	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		for _, h := range commandHelp {
			a.printf("  %-26s %s\n", h[0], h[1])
		}
	case "/new", "/n":
		a.session.NewChat()
		a.printf("[New conversation]\n")
	case "/list", "/l":
		return actionContinue, a.listConversations()
	case "/open", "/o":
		conv, err := a.pick(args)
		if err != nil {
			return actionContinue, err
		}
		if err := a.session.Select(conv.ID); err != nil {
			return actionContinue, err
		}
		a.printTranscript(conv)
	case "/delete", "/d":
		conv, err := a.pick(args)
		if err != nil {
			return actionContinue, err
		}
		if err := a.session.Delete(conv.ID); err != nil {
			return actionContinue, err
		}
		a.printf("[Deleted %q]\n", conv.Title)
	case "/show":
		conv, ok, err := a.session.Current()
		if err != nil {
			return actionContinue, err
		}
		if !ok {
			a.printf("No conversation selected\n")
			return actionContinue, nil
		}
		a.printTranscript(conv)
	case "/export":
		return actionContinue, a.export(args)
	case "/stats":
		return actionContinue, a.stats()
	case "/provider":
		a.printf("Provider: %s\n", a.provider.Name())
		if models := a.provider.Models(); len(models) > 0 {
			a.printf("Models:   %s\n", strings.Join(models, ", "))
		}
	case "/clear":
		if err := a.session.Reset(); err != nil {
			return actionContinue, err
		}
		if v, ok := a.backend.(interface{ Vacuum() error }); ok {
			if err := v.Vacuum(); err != nil {
				a.logger.Warn("Failed to compact storage: %v", err)
			}
		}
		a.printf("[All conversations deleted]\n")
	case "/logout":
		if err := a.flag.Clear(); err != nil {
			return actionContinue, err
		}
		a.session.NewChat()
		a.logger.Info("User logged out")
		a.printf("[Signed out]\n")
		return actionLogout, nil
	case "/quit", "/q", "/exit":
		return actionQuit, nil
	default:
		return actionContinue, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
	return actionContinue, nil
}

func (a *App) listConversations() error {
	convs, err := a.session.Conversations()
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		a.printf("No conversations yet\n")
		return nil
	}
	current := a.session.CurrentID()
	for i, conv := range convs {
		marker := " "
		if conv.ID == current {
			marker = "*"
		}
		a.printf("%s %2d. %-34s %3d messages  %s\n", marker, i+1, conv.Title, len(conv.Messages), conv.UpdatedAt)
	}
	return nil
}

// pick resolves a 1-based /list index
func (a *App) pick(args []string) (chat.Conversation, error) {
	if len(args) == 0 {
		return chat.Conversation{}, errors.New("usage: give a conversation number from /list")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("invalid conversation number %q", args[0])
	}
	convs, err := a.session.Conversations()
	if err != nil {
		return chat.Conversation{}, err
	}
	if n < 1 || n > len(convs) {
		return chat.Conversation{}, fmt.Errorf("no conversation %d (have %d)", n, len(convs))
	}
	return convs[n-1], nil
}

func (a *App) printTranscript(conv chat.Conversation) {
	a.printf("== %s ==\n", conv.Title)
	for _, msg := range conv.Messages {
		who := "you"
		if msg.Role == chat.RoleAssistant {
			who = "assistant"
		}
		a.printf("%s: %s\n", who, msg.Content)
	}
}

func (a *App) export(args []string) error {
	format := utils.FormatJSON
	if len(args) > 0 {
		f, err := utils.ParseExportFormat(args[0])
		if err != nil {
			return err
		}
		format = f
	}

	convs, err := a.session.Conversations()
	if err != nil {
		return err
	}

	var path string
	if len(args) > 1 {
		path = args[1]
	} else {
		dir, err := utils.GetDefaultExportPath()
		if err != nil {
			return fmt.Errorf("failed to resolve export directory: %w", err)
		}
		path = filepath.Join(dir, utils.GenerateExportFilename("conversations", format, a.now()))
	}

	if err := utils.ExportConversations(convs, format, path); err != nil {
		return err
	}
	a.logger.Info("Exported %d conversations to %s", len(convs), path)
	a.printf("[Exported %d conversations to %s]\n", len(convs), path)
	return nil
}

func (a *App) stats() error {
	convs, err := a.session.Conversations()
	if err != nil {
		return err
	}
	messages := 0
	for _, conv := range convs {
		messages += len(conv.Messages)
	}
	a.printf("Conversations: %d\nMessages:      %d\n", len(convs), messages)

	if a.backend == nil {
		a.printf("Storage:       unavailable\n")
		return nil
	}
	st, err := a.backend.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read storage stats: %w", err)
	}
	a.printf("Storage:       %s, %d slots, %s\n", st.Backend, st.SlotCount, formatBytes(st.SizeBytes))
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
