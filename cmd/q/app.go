package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Cyclone1070/q/internal/config"
	"github.com/Cyclone1070/q/internal/conversation"
	"github.com/Cyclone1070/q/internal/operation"
	"github.com/Cyclone1070/q/internal/policy"
	"github.com/Cyclone1070/q/internal/policy/danger"
	"github.com/Cyclone1070/q/internal/policy/rules"
	"github.com/Cyclone1070/q/internal/provider/gemini"
	"github.com/Cyclone1070/q/internal/provider/models"
	"github.com/Cyclone1070/q/internal/provider/openai"
	"github.com/Cyclone1070/q/internal/provider/ratelimit"
	"github.com/Cyclone1070/q/internal/provider/retry"
	"github.com/Cyclone1070/q/internal/session"
	"github.com/Cyclone1070/q/internal/tool/fetch"
	"github.com/Cyclone1070/q/internal/tool/file"
	"github.com/Cyclone1070/q/internal/tool/service/executor"
	fssvc "github.com/Cyclone1070/q/internal/tool/service/fs"
	pathsvc "github.com/Cyclone1070/q/internal/tool/service/path"
	"github.com/Cyclone1070/q/internal/tool/shell"
	"github.com/Cyclone1070/q/internal/ui"
	"github.com/Cyclone1070/q/internal/ui/services"
	"github.com/Cyclone1070/q/internal/ui/views"
	"github.com/Cyclone1070/q/internal/workflow/loop"
	"github.com/Cyclone1070/q/internal/workflow/router"
	"github.com/Cyclone1070/q/internal/workflow/toolmanager"
)

// lineReader is the terminal input the console reads from.
type lineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
	SaveHistory(line string) error
}

// ProviderFactory builds the model provider from the provider settings.
type ProviderFactory func(ctx context.Context, cfg config.ProviderConfig) (models.Provider, error)

// Dependencies holds the components required to run the application.
type Dependencies struct {
	Config          *config.Config
	Logger          *slog.Logger
	Out             io.Writer
	Lines           lineReader
	ProviderFactory ProviderFactory
	// Home and Cwd default to the process values when empty.
	Home string
	Cwd  string
	// Interactive enables the spinner.
	Interactive bool
}

// App is the wired agent.
type App struct {
	cfg      *config.Config
	console  *ui.Console
	provider models.Provider
	conv     *conversation.Conversation
	loop     *loop.Loop
	engine   *policy.Engine
	store    *session.Store
	logger   *slog.Logger
}

func createRealProviderFactory() ProviderFactory {
	return func(ctx context.Context, cfg config.ProviderConfig) (models.Provider, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s API key is required: set %s_API_KEY or provider.api_key in the config file",
				cfg.Name, strings.ToUpper(cfg.Name))
		}
		switch cfg.Name {
		case "gemini":
			client, err := gemini.NewClientFromKey(ctx, cfg.APIKey)
			if err != nil {
				return nil, fmt.Errorf("failed to create Gemini client: %w", err)
			}
			return gemini.NewGeminiProvider(client, cfg.Model), nil
		case "openai", "groq":
			return openai.New(openai.Config{
				Name:    cfg.Name,
				APIKey:  cfg.APIKey,
				BaseURL: cfg.BaseURL,
				Model:   cfg.Model,
			}), nil
		default:
			return nil, fmt.Errorf("unsupported provider %q", cfg.Name)
		}
	}
}

func newMarkdownRenderer(cfg config.UIConfig, logger *slog.Logger) services.MarkdownRenderer {
	if !cfg.Markdown {
		return services.PlainRenderer{}
	}
	r, err := services.NewGlamourRenderer(cfg.WordWrap)
	if err != nil {
		logger.Warn("markdown rendering disabled", "error", err)
		return services.PlainRenderer{}
	}
	return r
}

// buildApp wires every component. Any error here is fatal.
func buildApp(ctx context.Context, deps Dependencies) (*App, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	home := deps.Home
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	cwd := deps.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cwd = wd
	}

	console := ui.NewConsole(deps.Out, deps.Lines, ui.Options{
		Styles:   views.NewStyles(cfg.UI.ColorPrimary, cfg.UI.ColorDanger),
		Markdown: newMarkdownRenderer(cfg.UI, logger),
		Spinner:  cfg.UI.Spinner && deps.Interactive,
		Width:    cfg.UI.WordWrap,
	}, logger)

	// Policy
	ruleSet, err := rules.NewSet(cfg.Policy, home)
	if err != nil {
		// Broken rules are treated as inconclusive at match time.
		logger.Warn("some policy rules failed to compile", "error", err)
	}
	fileOps := fssvc.NewOSFileSystem()
	resolver := pathsvc.NewResolver(home, cwd)
	engine := policy.NewEngine(ruleSet, danger.NewAnalyzer(home), console, fileOps, resolver, policy.Options{
		AllowAll:                 cfg.Policy.AllowAll,
		FetchAlwaysApprove:       cfg.Policy.FetchAlwaysApprove,
		ApproveAllDefaultMinutes: cfg.Policy.ApproveAllDefaultMinutes,
		Now:                      time.Now,
	}, logger)

	// Tools and routing
	commandExecutor := executor.NewOSCommandExecutor(cfg.Tools)
	rt := router.New(engine, console, router.Tools{
		Shell: shell.NewShellTool(commandExecutor, cfg.Tools, logger),
		Read:  file.NewReadFileTool(fileOps, resolver, commandExecutor, cfg.Tools, logger),
		Write: file.NewWriteFileTool(fileOps, resolver, cfg.Tools, logger),
		Fetch: fetch.NewFetchTool(cfg.Tools, engine.CheckRedirect, logger),
	}, console, logger)

	// Provider
	providerClient, err := deps.ProviderFactory(ctx, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider: %w", err)
	}

	systemPrompt, err := conversation.RenderSystemPrompt(promptData(cfg, home, cwd, logger))
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewLimiter(cfg.Provider.TokensPerMin, logger)
	retrier := retry.New(retry.Policy{
		Attempts:      cfg.Provider.RetryAttempts,
		InitialDelay:  time.Duration(cfg.Provider.RetryInitialDelayMs) * time.Millisecond,
		BackoffFactor: cfg.Provider.RetryBackoffFactor,
		JitterMin:     time.Duration(cfg.Provider.RetryJitterMinMs) * time.Millisecond,
		JitterMax:     time.Duration(cfg.Provider.RetryJitterMaxMs) * time.Millisecond,
	}, logger)
	opts := conversation.Options{
		Temperature:   cfg.Provider.Temperature,
		MaxTokens:     cfg.Provider.MaxTokens,
		MaxToolCycles: cfg.Conversation.MaxToolCycles,
	}

	var conv *conversation.Conversation
	if cfg.Conversation.NativeTools {
		tools := toolmanager.NewToolManager(rt, logger, toolmanager.BuiltinTools()...)
		conv = conversation.New(providerClient, limiter, retrier, tools, systemPrompt, opts, logger)
	} else {
		conv = conversation.New(providerClient, limiter, retrier, nil, systemPrompt, opts, logger)
	}

	parser := operation.NewParser(cfg.Conversation.Namespace, cfg.Conversation.Marker, logger)

	return &App{
		cfg:      cfg,
		console:  console,
		provider: providerClient,
		conv:     conv,
		loop:     loop.NewLoop(conv, parser, rt, console, cfg.Conversation.MaxOperations, logger),
		engine:   engine,
		store:    session.NewStore(cfg.Session.Path, cfg.Session.MaxTurns, fileOps, logger),
		logger:   logger,
	}, nil
}

func promptData(cfg *config.Config, home, cwd string, logger *slog.Logger) conversation.PromptData {
	ws := conversation.LoadWorkspace(home, cwd, logger)

	shellName := os.Getenv("SHELL")
	if shellName == "" {
		shellName = cfg.Tools.Shell
	}
	userName := os.Getenv("USER")
	if u, err := user.Current(); err == nil {
		userName = u.Username
	}

	return conversation.PromptData{
		Namespace:      cfg.Conversation.Namespace,
		Marker:         cfg.Conversation.Marker,
		Model:          cfg.Provider.Model,
		Cwd:            cwd,
		OS:             runtime.GOOS,
		Shell:          filepath.Base(shellName),
		User:           userName,
		Date:           time.Now().Format("2006-01-02"),
		NativeTools:    cfg.Conversation.NativeTools,
		UserContext:    ws.UserContext,
		ProjectContext: ws.ProjectContext,
		ProjectFiles:   ws.ProjectFiles,
	}
}
