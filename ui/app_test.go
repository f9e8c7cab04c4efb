package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"light-chat/auth"
	"light-chat/chat"
	"light-chat/db"
	"light-chat/llm"
	"light-chat/utils"
)

type scriptedInput struct {
	lines  []string
	closed bool
}

func (s *scriptedInput) next() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedInput) Prompt(string) (string, error)         { return s.next() }
func (s *scriptedInput) PasswordPrompt(string) (string, error) { return s.next() }
func (s *scriptedInput) Close() error {
	s.closed = true
	return nil
}

type echoProvider struct {
	fail  bool
	calls int
}

func (p *echoProvider) Chat(_ context.Context, messages []llm.Message) (string, error) {
	p.calls++
	if p.fail {
		return "", errors.New("upstream unavailable")
	}
	if messages[len(messages)-1].Content == "Hello" {
		return "Hi there", nil
	}
	return "echo: " + messages[len(messages)-1].Content, nil
}
func (p *echoProvider) Name() string          { return "echo" }
func (p *echoProvider) Models() []string      { return []string{"echo-1", "echo-2"} }
func (p *echoProvider) ValidateConfig() error { return nil }

type harness struct {
	app      *App
	backend  *db.Memory
	input    *scriptedInput
	out      *bytes.Buffer
	provider *echoProvider
}

func newHarness(t *testing.T, config *utils.Config, lines ...string) *harness {
	t.Helper()
	if config == nil {
		config = utils.DefaultConfig()
	}
	h := &harness{
		backend:  db.NewMemory(),
		input:    &scriptedInput{lines: lines},
		out:      &bytes.Buffer{},
		provider: &echoProvider{},
	}
	clock := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	h.app = NewApp(config, h.backend, h.provider,
		auth.NewStatic("admin@example.com", "hunter2", nil), nil,
		WithInput(h.input), WithOutput(h.out),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}))
	return h
}

func (h *harness) loggedIn(t *testing.T) *harness {
	t.Helper()
	require.NoError(t, h.backend.Put(auth.SessionKey, []byte("true")))
	return h
}

func (h *harness) conversations(t *testing.T) []chat.Conversation {
	t.Helper()
	convs, err := chat.NewStore(db.SlotFor(h.backend, chat.ConversationsKey)).List()
	require.NoError(t, err)
	return convs
}

func TestApp_LoginGate(t *testing.T) {
	h := newHarness(t, nil,
		"admin@example.com", "wrong",
		"admin@example.com", "hunter2",
		"Hello",
		"/quit",
	)

	require.NoError(t, h.app.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, auth.ErrInvalidCredentials.Error())
	assert.Contains(t, out, "Hi there")
	assert.True(t, h.input.closed)

	flag, err := h.backend.Get(auth.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, "true", string(flag))

	convs := h.conversations(t)
	require.Len(t, convs, 1)
	assert.Equal(t, "Hello", convs[0].Title)
	require.Len(t, convs[0].Messages, 2)
	assert.Equal(t, chat.RoleAssistant, convs[0].Messages[1].Role)
}

func TestApp_LoggedInSkipsLogin(t *testing.T) {
	h := newHarness(t, nil, "Hello").loggedIn(t)

	require.NoError(t, h.app.Run(context.Background()))

	assert.NotContains(t, h.out.String(), "Sign in")
	assert.Len(t, h.conversations(t), 1)
}

func TestApp_FailureShowsNoReply(t *testing.T) {
	h := newHarness(t, nil, "Hello").loggedIn(t)
	h.provider.fail = true

	require.NoError(t, h.app.Run(context.Background()))

	assert.NotContains(t, h.out.String(), "Hi there")
	convs := h.conversations(t)
	require.Len(t, convs, 1)
	require.Len(t, convs[0].Messages, 1)
	assert.Equal(t, chat.RoleUser, convs[0].Messages[0].Role)
}

func TestApp_BlankInputIgnored(t *testing.T) {
	h := newHarness(t, nil, "   ", "").loggedIn(t)

	require.NoError(t, h.app.Run(context.Background()))

	assert.Empty(t, h.conversations(t))
	assert.Zero(t, h.provider.calls)
}

func TestApp_ConversationCommands(t *testing.T) {
	h := newHarness(t, nil,
		"Hello",
		"/new",
		"second topic",
		"/list",
		"/open 2",
		"more",
		"/delete 1",
		"/open 9",
		"/bogus",
	).loggedIn(t)

	require.NoError(t, h.app.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "second topic")
	assert.Contains(t, out, "no conversation 9")
	assert.Contains(t, out, "unknown command: /bogus")

	convs := h.conversations(t)
	require.Len(t, convs, 1)
	// "Hello" was reopened and continued, "second topic" was then deleted
	assert.Equal(t, "Hello", convs[0].Title)
	require.Len(t, convs[0].Messages, 4)
	assert.Equal(t, "echo: more", convs[0].Messages[3].Content)
}

func TestApp_ExportAndStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	h := newHarness(t, nil, "Hello", "/export json "+path, "/stats").loggedIn(t)

	require.NoError(t, h.app.Run(context.Background()))

	exported, err := utils.ReadExport(path)
	require.NoError(t, err)
	require.Len(t, exported, 1)

	out := h.out.String()
	assert.Contains(t, out, "Conversations: 1")
	assert.Contains(t, out, "Messages:      2")
	assert.Contains(t, out, "memory, 2 slots")
}

func TestApp_ProviderCommand(t *testing.T) {
	h := newHarness(t, nil, "/provider").loggedIn(t)

	require.NoError(t, h.app.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Provider: echo")
	assert.Contains(t, out, "Models:   echo-1, echo-2")
}

func TestApp_Logout(t *testing.T) {
	h := newHarness(t, nil, "Hello", "/logout").loggedIn(t)

	require.NoError(t, h.app.Run(context.Background()))

	flag, err := h.backend.Get(auth.SessionKey)
	require.NoError(t, err)
	assert.Nil(t, flag)
	assert.Contains(t, h.out.String(), "Sign in to continue.")
	// history survives logout
	assert.Len(t, h.conversations(t), 1)
}

func TestApp_ClearOnStart(t *testing.T) {
	config := utils.DefaultConfig()
	config.Data.ClearOnStart = true
	h := newHarness(t, config, "/list").loggedIn(t)

	seeded := chat.NewStore(db.SlotFor(h.backend, chat.ConversationsKey))
	_, err := seeded.Create(chat.NewMessage(chat.RoleUser, "old", time.Now()))
	require.NoError(t, err)

	require.NoError(t, h.app.Run(context.Background()))

	assert.Empty(t, h.conversations(t))
	assert.Contains(t, h.out.String(), "No conversations yet")
}

func TestApp_NoStorage(t *testing.T) {
	out := &bytes.Buffer{}
	provider := &echoProvider{}
	in := &scriptedInput{lines: []string{"admin@example.com", "hunter2", "Hello", "/stats"}}
	app := NewApp(utils.DefaultConfig(), nil, provider, auth.NewStatic("admin@example.com", "hunter2", nil), nil,
		WithInput(in), WithOutput(out))

	require.NoError(t, app.Run(context.Background()))

	// login still opens the shell, but nothing can be saved
	assert.Contains(t, out.String(), "[Error] failed to save conversations")
	assert.Contains(t, out.String(), "Storage:       unavailable")
	assert.Zero(t, provider.calls)
}

func TestNewProviderFromConfig(t *testing.T) {
	config := utils.DefaultConfig()

	p, err := NewProviderFromConfig(config, false, utils.NopLogger())
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIProvider{}, p)

	config.ActiveProvider = "ollama"
	p, err = NewProviderFromConfig(config, false, utils.NopLogger())
	require.NoError(t, err)
	assert.IsType(t, &llm.OllamaProvider{}, p)

	p, err = NewProviderFromConfig(config, true, utils.NopLogger())
	require.NoError(t, err)
	assert.IsType(t, &llm.RemoteProvider{}, p)

	config.ActiveProvider = "missing"
	_, err = NewProviderFromConfig(config, false, utils.NopLogger())
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "2.0 MiB", formatBytes(2*1024*1024))
}
