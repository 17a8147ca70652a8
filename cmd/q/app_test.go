package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Cyclone1070/q/internal/config"
	"github.com/Cyclone1070/q/internal/provider/models"
	"github.com/Cyclone1070/q/internal/session"
	fssvc "github.com/Cyclone1070/q/internal/tool/service/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider replays scripted replies in order.
type MockProvider struct {
	Replies  []string
	Requests []*models.GenerateRequest
	Err      error
}

func (m *MockProvider) Name() string     { return "mock" }
func (m *MockProvider) GetModel() string { return "mock-model" }
func (m *MockProvider) GetCapabilities() models.Capabilities {
	return models.Capabilities{}
}

func (m *MockProvider) Generate(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	text := "Done."
	if len(m.Replies) > 0 {
		text = m.Replies[0]
		m.Replies = m.Replies[1:]
	}
	return &models.GenerateResponse{
		Content:      models.ResponseContent{Type: models.ResponseTypeText, Text: text},
		FinishReason: models.FinishReasonStop,
	}, nil
}

func (m *MockProvider) CountTokens(ctx context.Context, messages []models.Message) (int, error) {
	return 0, models.ErrTokenCountingNotSupported
}

// MockLineReader replays scripted input lines, then returns io.EOF.
type MockLineReader struct {
	Lines []string
}

func (m *MockLineReader) SetPrompt(string) {}

func (m *MockLineReader) Readline() (string, error) {
	if len(m.Lines) == 0 {
		return "", io.EOF
	}
	line := m.Lines[0]
	m.Lines = m.Lines[1:]
	return line, nil
}

func (m *MockLineReader) SaveHistory(string) error { return nil }

type fixture struct {
	cfg      *config.Config
	out      *bytes.Buffer
	provider *MockProvider
	lines    *MockLineReader
	home     string
	cwd      string
}

func newFixture(t *testing.T, lines ...string) *fixture {
	t.Helper()
	home := t.TempDir()
	cwd := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Provider.Name = "mock"
	cfg.Provider.Model = "mock-model"
	cfg.Provider.TokensPerMin = 1_000_000
	cfg.Provider.RetryAttempts = 1
	cfg.Session.Path = filepath.Join(home, ".config", "q", "session.json")
	cfg.UI.Markdown = false

	return &fixture{
		cfg:      cfg,
		out:      &bytes.Buffer{},
		provider: &MockProvider{},
		lines:    &MockLineReader{Lines: lines},
		home:     home,
		cwd:      cwd,
	}
}

func (f *fixture) build(t *testing.T) *App {
	t.Helper()
	app, err := buildApp(context.Background(), Dependencies{
		Config: f.cfg,
		Out:    f.out,
		Lines:  f.lines,
		ProviderFactory: func(context.Context, config.ProviderConfig) (models.Provider, error) {
			return f.provider, nil
		},
		Home: f.home,
		Cwd:  f.cwd,
	})
	require.NoError(t, err)
	return app
}

func TestBuildApp_ProviderFactoryError(t *testing.T) {
	f := newFixture(t)

	_, err := buildApp(context.Background(), Dependencies{
		Config: f.cfg,
		Out:    f.out,
		Lines:  f.lines,
		ProviderFactory: func(context.Context, config.ProviderConfig) (models.Provider, error) {
			return nil, errors.New("boom")
		},
		Home: f.home,
		Cwd:  f.cwd,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize provider")
}

func TestRealProviderFactory_MissingAPIKey(t *testing.T) {
	_, err := createRealProviderFactory()(context.Background(), config.ProviderConfig{Name: "gemini", Model: "gemini-2.0-flash"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestRealProviderFactory_UnsupportedProvider(t *testing.T) {
	_, err := createRealProviderFactory()(context.Background(), config.ProviderConfig{Name: "acme", APIKey: "k"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestBuildApp_SystemPromptCarriesWorkspace(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.cwd, ".Q"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.cwd, ".Q", "project.md"), []byte("Use tabs."), 0o644))
	f.provider.Replies = []string{"ok"}
	app := f.build(t)

	require.NoError(t, app.Run(context.Background(), RunOptions{Question: "hi", ExitAfter: true}))

	require.NotEmpty(t, f.provider.Requests)
	system := f.provider.Requests[0].Messages[0]
	assert.Equal(t, models.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "Q:OPERATION")
	assert.Contains(t, system.Content, f.cwd)
	assert.Contains(t, system.Content, "Use tabs.")
}

func TestRun_InitialQuestionExitAfter(t *testing.T) {
	f := newFixture(t, "should not be read")
	f.provider.Replies = []string{"Hello there."}
	app := f.build(t)

	err := app.Run(context.Background(), RunOptions{Question: "say hello", ExitAfter: true})

	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "Hello there.")
	assert.Equal(t, []string{"should not be read"}, f.lines.Lines)

	saved, err := session.NewStore(f.cfg.Session.Path, 20, fssvc.NewOSFileSystem(), nil).Load()
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "say hello", saved[0].Content)
	assert.Equal(t, "Hello there.", saved[1].Content)
}

func TestRun_ShellOperationWithAllowAll(t *testing.T) {
	f := newFixture(t)
	f.cfg.Policy.AllowAll = true
	f.provider.Replies = []string{
		"Let me check.\n<Q:OPERATION type=\"shell\">echo from-shell</Q:OPERATION>",
		"The command printed from-shell.",
	}
	app := f.build(t)

	err := app.Run(context.Background(), RunOptions{Question: "run echo", ExitAfter: true})

	require.NoError(t, err)
	require.Len(t, f.provider.Requests, 2)
	msgs := f.provider.Requests[1].Messages
	assert.Contains(t, msgs[len(msgs)-1].Content, "from-shell")
	assert.Contains(t, f.out.String(), "The command printed from-shell.")
}

func TestRun_ClearCommand(t *testing.T) {
	f := newFixture(t, "hello", "/clear", "/exit")
	f.provider.Replies = []string{"Hi!"}
	app := f.build(t)

	err := app.Run(context.Background(), RunOptions{})

	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "Conversation history cleared.")
	for _, m := range app.conv.History() {
		assert.NotEqual(t, models.RoleUser, m.Role)
	}
}

func TestRun_HelpAndUnknownSlashInput(t *testing.T) {
	f := newFixture(t, "/help", "/unknown thing", "/quit")
	f.provider.Replies = []string{"I don't know that command."}
	app := f.build(t)

	err := app.Run(context.Background(), RunOptions{})

	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "Available commands:")
	require.Len(t, f.provider.Requests, 1)
	msgs := f.provider.Requests[0].Messages
	assert.Equal(t, "/unknown thing", msgs[len(msgs)-1].Content)
}

func TestRun_EOFExits(t *testing.T) {
	f := newFixture(t)
	app := f.build(t)

	assert.NoError(t, app.Run(context.Background(), RunOptions{}))
	assert.Empty(t, f.provider.Requests)
}

func TestRun_RecoverRestoresHistory(t *testing.T) {
	f := newFixture(t)
	store := session.NewStore(f.cfg.Session.Path, 20, fssvc.NewOSFileSystem(), nil)
	require.NoError(t, store.Save([]models.Message{
		{Role: models.RoleUser, Content: "fix the build"},
		{Role: models.RoleAssistant, Content: "The build passes now."},
	}))
	app := f.build(t)

	err := app.Run(context.Background(), RunOptions{Recover: true})

	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "Previous session recovered successfully (2 messages).")
	assert.Contains(t, f.out.String(), "fix the build")

	var contents []string
	for _, m := range app.conv.History() {
		contents = append(contents, m.Content)
	}
	assert.Contains(t, contents, "fix the build")
	assert.Contains(t, contents, "The build passes now.")
}

func TestRun_RecoverWithoutSession(t *testing.T) {
	f := newFixture(t)
	app := f.build(t)

	require.NoError(t, app.Run(context.Background(), RunOptions{Recover: true}))

	assert.Contains(t, f.out.String(), "No previous session found.")
}

func TestRun_FreshStartClearsSession(t *testing.T) {
	f := newFixture(t)
	store := session.NewStore(f.cfg.Session.Path, 20, fssvc.NewOSFileSystem(), nil)
	require.NoError(t, store.Save([]models.Message{{Role: models.RoleUser, Content: "old"}}))
	app := f.build(t)

	require.NoError(t, app.Run(context.Background(), RunOptions{}))

	_, err := store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestRun_ProviderErrorIsReported(t *testing.T) {
	f := newFixture(t)
	f.provider.Err = models.ErrAuthentication
	app := f.build(t)

	err := app.Run(context.Background(), RunOptions{Question: "hi", ExitAfter: true})

	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "Error communicating with LLM")
}

func TestFindCommand(t *testing.T) {
	tests := []struct {
		input string
		name  string
		found bool
	}{
		{"/exit", "/exit", true},
		{"/QUIT", "/quit", true},
		{"  /clear  ", "/clear", true},
		{"/help me", "/help", true},
		{"/tmp/file.txt is broken", "", false},
		{"exit", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, _, ok := findCommand(tt.input)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.name, cmd.name)
		})
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"all", "exit-after", "recover", "provider", "model", "log-level", "config"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "a", cmd.Flags().Lookup("all").Shorthand)
	assert.Equal(t, "e", cmd.Flags().Lookup("exit-after").Shorthand)
	assert.Equal(t, "r", cmd.Flags().Lookup("recover").Shorthand)
	assert.Equal(t, version, cmd.Version)
}

func TestRun_HelpListsEveryCommand(t *testing.T) {
	f := newFixture(t, "/help", "/exit")
	app := f.build(t)

	require.NoError(t, app.Run(context.Background(), RunOptions{}))

	text := f.out.String()
	for _, c := range commands() {
		assert.Contains(t, text, c.name)
		assert.Contains(t, text, c.description)
	}
	assert.Empty(t, f.provider.Requests)
}
