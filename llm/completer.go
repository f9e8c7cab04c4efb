package llm

import (
	"context"

	"light-chat/chat"
)

// AsCompleter lets a Provider serve as the chat flow's completion collaborator
func AsCompleter(p Provider) chat.Completer {
	return chat.CompleterFunc(func(ctx context.Context, messages []chat.Message) (string, error) {
		return p.Chat(ctx, FromTranscript(messages))
	})
}

// FromTranscript converts stored messages to provider messages
func FromTranscript(messages []chat.Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, Message{Role: string(m.Role), Content: m.Content, Timestamp: m.Timestamp})
	}
	return out
}
