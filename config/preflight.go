package config

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ghostwriter/generator"
	"ghostwriter/publisher"
)

const probeTimeout = 5 * time.Second

// Report is the outcome of Preflight. Warnings never stop a run; Err does.
type Report struct {
	Warnings []string
	Err      error
}

// OK reports whether every hard requirement passed.
func (r Report) OK() bool { return r.Err == nil }

// Preflight checks the configuration and the external services before a
// run. Invalid settings, unreadable role definitions and an unwritable
// output directory are fatal; a missing search key or an unreachable model
// endpoint are only reported. client may be nil.
func Preflight(ctx context.Context, cfg Config, client *http.Client) Report {
	var r Report

	if err := cfg.Validate(); err != nil {
		r.Err = err
		return r
	}
	rc, err := generator.LoadRoleConfigs(cfg.AgentsConfig, cfg.TasksConfig)
	if err != nil {
		r.Err = err
		return r
	}
	if err := rc.Validate(); err != nil {
		r.Err = fmt.Errorf("role definitions: %w", err)
		return r
	}
	if err := publisher.CheckWritable(cfg.OutputDir); err != nil {
		r.Err = fmt.Errorf("output dir %s is not writable: %w", cfg.OutputDir, err)
		return r
	}

	if cfg.SerperAPIKey == "" {
		r.Warnings = append(r.Warnings, "SERPER_API_KEY not set: research runs without web search")
	}
	if cfg.LLM.Provider != "mock" {
		if err := probeEndpoint(ctx, client, cfg.LLM); err != nil {
			r.Warnings = append(r.Warnings, fmt.Sprintf("llm endpoint unreachable: %v", err))
		}
	}
	return r
}

// probeEndpoint lists the models of an OpenAI-compatible endpoint. Any HTTP
// answer below 500 counts as reachable.
func probeEndpoint(ctx context.Context, client *http.Client, llm LLMConfig) error {
	if client == nil {
		client = &http.Client{}
	}
	base := llm.BaseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	url := strings.TrimRight(base, "/") + "/models"

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if llm.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+llm.APIKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s answered %s", url, resp.Status)
	}
	return nil
}
