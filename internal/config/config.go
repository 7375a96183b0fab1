package config

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings guarddash needs to reach a GuardCore backend.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	Theme          string
	StatePath      string
}

const (
	defaultConfigPath     = "~/.config/guarddash/config.toml"
	defaultStatePath      = "~/.config/guarddash/state.toml"
	defaultAPIBaseURL     = "http://localhost:8000"
	defaultRequestTimeout = 30 * time.Second
	defaultTheme          = "Dracula"

	// EnvAPIBaseURL overrides api_base_url, mirroring a reverse-proxied deployment.
	EnvAPIBaseURL = "GUARDDASH_API_BASE_URL"
)

// Load locates and parses the guarddash config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIBaseURL:     defaultAPIBaseURL,
		RequestTimeout: defaultRequestTimeout,
		Theme:          defaultTheme,
		StatePath:      mustExpand(defaultStatePath),
	}

	file, err := os.Open(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		return applyEnv(cfg)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBaseURL     string `toml:"api_base_url"`
		RequestTimeout string `toml:"request_timeout"`
		Theme          string `toml:"theme"`
		StatePath      string `toml:"state_path"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if base := strings.TrimSpace(raw.APIBaseURL); base != "" {
		cfg.APIBaseURL = base
	}
	if timeout := strings.TrimSpace(raw.RequestTimeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d <= 0 {
			return Config{}, badInput("config: invalid request_timeout", map[string]any{"request_timeout": timeout})
		}
		cfg.RequestTimeout = d
	}
	if theme := strings.TrimSpace(raw.Theme); theme != "" {
		cfg.Theme = theme
	}
	if statePath := strings.TrimSpace(raw.StatePath); statePath != "" {
		cfg.StatePath = mustExpand(statePath)
	}

	return applyEnv(cfg)
}

func applyEnv(cfg Config) (Config, error) {
	if base := strings.TrimSpace(os.Getenv(EnvAPIBaseURL)); base != "" {
		cfg.APIBaseURL = base
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if err := validateBaseURL(cfg.APIBaseURL); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return badInput("config: api_base_url must be an absolute http(s) url", map[string]any{"api_base_url": raw})
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return badInput("config: api_base_url must use http or https", map[string]any{"api_base_url": raw})
	}
	return nil
}

func badInput(message string, metadata map[string]any) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode("BAD_INPUT").
		WithMetadata(metadata)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
