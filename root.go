package main

import (
	"context"
	"fmt"
	"io"

	"ghostwriter/config"
	"ghostwriter/generator"
	"ghostwriter/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ghostwriter",
		Short: "Draft a book with a crew of LLM agents",
		Long: `ghostwriter runs a publishing house of LLM agents: a researcher, a book
architect, a writer, a quality controller and a publishing evaluator. Every
chapter goes through a bounded write/review/revise loop before the whole
manuscript is checked, evaluated and compiled into one document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "config file (default "+config.DefaultPath+" when present)")
	pf.String("provider", "", "llm provider: ollama, openai, deepseek or mock")
	pf.String("model", "", "llm model name")
	pf.String("base-url", "", "OpenAI-compatible endpoint base URL")
	pf.String("output-dir", "", "directory the compiled book is written to")
	pf.String("log-file", "", "JSON log file (rotated)")
	pf.Bool("debug", false, "debug logging and stack traces on failure")

	root.AddCommand(
		newRunCmd("run", "Run the full publishing workflow", false),
		newRunCmd("simple", "Draft every chapter once, without the review loop", true),
		newCheckCmd(),
		newServeCmd(),
	)
	return root
}

// app bundles what every command needs after startup.
type app struct {
	cfg  config.Config
	log  *zap.Logger
	crew *generator.Crew
}

// setup loads the configuration, runs the preflight and builds the crew.
// Preflight warnings are printed to out; a failed hard check is returned.
func setup(ctx context.Context, cmd *cobra.Command, out io.Writer) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogFile, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	report := config.Preflight(ctx, cfg, nil)
	warn := color.New(color.FgYellow)
	for _, w := range report.Warnings {
		warn.Fprintf(out, "warning: %s\n", w)
		log.Warn("preflight", zap.String("warning", w))
	}
	if !report.OK() {
		log.Error("preflight failed", zap.Error(report.Err))
		return nil, report.Err
	}

	llm, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}
	rc, err := generator.LoadRoleConfigs(cfg.AgentsConfig, cfg.TasksConfig)
	if err != nil {
		return nil, err
	}
	opts := []generator.CrewOption{generator.WithLogger(log)}
	if cfg.SerperAPIKey != "" {
		search, err := generator.NewSerperSearch(cfg.SerperAPIKey, nil)
		if err != nil {
			return nil, err
		}
		opts = append(opts, generator.WithSearcher(search))
	}
	crew, err := generator.NewCrew(llm, rc, opts...)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, crew: crew}, nil
}

func buildLLM(cfg config.Config) (generator.LLMClient, error) {
	switch cfg.LLM.Provider {
	case "mock":
		return generator.MockLLM{}, nil
	case "openai", "deepseek", "ollama":
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Timeout:  cfg.LLM.Timeout,
		})
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
