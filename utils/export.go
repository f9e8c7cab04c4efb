package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"light-chat/chat"
)

// ExportFormat selects the /export output
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
)

// ParseExportFormat accepts "json", "markdown" or "md"
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ConversationsExport wraps exported conversations with metadata
type ConversationsExport struct {
	Conversations []chat.Conversation `json:"conversations"`
	Metadata      map[string]string   `json:"metadata,omitempty"`
}

func exportMetadata(now time.Time) map[string]string {
	return map[string]string{
		"export_version": "1.0",
		"export_date":    now.UTC().Format(time.RFC3339),
		"app_name":       "light-chat",
	}
}

// WriteJSON writes conversations in the persisted record shape plus metadata
func WriteJSON(w io.Writer, convs []chat.Conversation, now time.Time) error {
	if convs == nil {
		convs = []chat.Conversation{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ConversationsExport{Conversations: convs, Metadata: exportMetadata(now)}); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// WriteMarkdown renders one conversation as a Markdown transcript
func WriteMarkdown(w io.Writer, conv chat.Conversation) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", conv.Title))
	sb.WriteString(fmt.Sprintf("**Created**: %s\n", displayTime(conv.CreatedAt)))
	sb.WriteString(fmt.Sprintf("**Updated**: %s\n\n", displayTime(conv.UpdatedAt)))
	sb.WriteString("---\n\n")

	for i, msg := range conv.Messages {
		roleName := "User"
		if msg.Role == chat.RoleAssistant {
			roleName = "Assistant"
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", roleName))
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("*%s*\n\n", displayTime(msg.Timestamp)))
		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

func displayTime(ts string) string {
	t, err := chat.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// ExportConversations writes convs to path. Markdown files hold each conversation in turn.
func ExportConversations(convs []chat.Conversation, format ExportFormat, path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatMarkdown:
		for i, conv := range convs {
			if i > 0 {
				if _, err := io.WriteString(file, "\n"); err != nil {
					return fmt.Errorf("failed to write file: %w", err)
				}
			}
			if err := WriteMarkdown(file, conv); err != nil {
				return err
			}
		}
	default:
		if err := WriteJSON(file, convs, time.Now()); err != nil {
			return err
		}
	}

	return file.Close()
}

// ReadExport parses a JSON export back into conversations
func ReadExport(path string) ([]chat.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var export ConversationsExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if export.Conversations == nil {
		return nil, fmt.Errorf("invalid export: missing conversations array")
	}
	return export.Conversations, nil
}

// GenerateExportFilename builds <title>_<timestamp>.<ext> from a sanitized title
func GenerateExportFilename(title string, format ExportFormat, now time.Time) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, title)

	if utf8.RuneCountInString(sanitized) > 50 {
		sanitized = string([]rune(sanitized)[:50])
	}
	if sanitized == "" {
		sanitized = "conversations"
	}

	ext := string(format)
	if format == FormatMarkdown {
		ext = "md"
	}

	return fmt.Sprintf("%s_%s.%s", sanitized, now.Format("20060102_150405"), ext)
}

// GetDefaultExportPath creates and returns ~/Documents/light-chat-exports
func GetDefaultExportPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	exportDir := filepath.Join(homeDir, "Documents", "light-chat-exports")
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", err
	}

	return exportDir, nil
}
