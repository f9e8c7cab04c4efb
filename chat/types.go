package chat

import (
	"time"
	"unicode/utf8"
)

// Role identifies who produced a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TimestampLayout matches the ISO-8601 form browsers emit for Date.toISOString
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// titleLimit is the number of characters kept from the first message
const titleLimit = 30

// Message represents one turn in a conversation
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Conversation is an ordered, titled sequence of messages
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

// NewMessage builds a message stamped with t
func NewMessage(role Role, content string, t time.Time) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: FormatTimestamp(t),
	}
}

// FormatTimestamp renders t in UTC with millisecond precision
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// DeriveTitle keeps the first 30 characters of content and marks truncation with "..."
func DeriveTitle(content string) string {
	if utf8.RuneCountInString(content) <= titleLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:titleLimit]) + "..."
}

// Clone returns a deep copy so callers can append without aliasing the stored slice
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

// Append returns a copy of c with msg added at the end
func (c Conversation) Append(msg Message) Conversation {
	out := c.Clone()
	out.Messages = append(out.Messages, msg)
	return out
}
