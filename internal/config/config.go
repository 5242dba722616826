// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	apperrors "dunmac/internal/errors"
	"dunmac/internal/sandbox"
	"dunmac/internal/tools"
)

const (
	DefaultAPIURL        = "https://openrouter.ai/api/v1"
	DefaultModel         = "anthropic/claude-sonnet-4"
	DefaultMaxSteps      = 10
	DefaultParallelTools = 4
	DefaultPort          = 3456
)

// Config represents the application configuration
type Config struct {
	APIKey             string            `json:"api_key"`
	APIURL             string            `json:"api_url,omitempty"`
	Model              string            `json:"model"`
	Temperature        *float32          `json:"temperature,omitempty"`
	MaxTokens          *int              `json:"max_tokens,omitempty"`
	MaxSteps           int               `json:"max_steps,omitempty"`
	ParallelTools      int               `json:"parallel_tools,omitempty"`
	SystemPrompt       string            `json:"system_prompt,omitempty"`
	Port               int               `json:"port,omitempty"`
	Shell              ShellSettings     `json:"shell,omitempty"`
	ToolTimeouts       ToolTimeouts      `json:"tool_timeouts,omitempty"`
	ToolOutputFilters  ToolOutputFilters `json:"tool_output_filters,omitempty"`
	ToolRateLimits     ToolRateLimits    `json:"tool_rate_limits,omitempty"`
	CommandHistoryFile string            `json:"command_history_file,omitempty"`
}

// ShellSettings adjusts the command gate used by the shell tool.
type ShellSettings struct {
	AllowCommands   []string `json:"allow_commands,omitempty"`
	DenyPatterns    []string `json:"deny_patterns,omitempty"`
	ReplaceDefaults bool     `json:"replace_defaults,omitempty"`
	Strict          bool     `json:"strict,omitempty"`
	TimeoutSeconds  int      `json:"timeout_seconds,omitempty"`
}

// ToolTimeouts configures tool execution timeouts.
type ToolTimeouts struct {
	DefaultSeconds int            `json:"default_seconds,omitempty"`
	PerToolSeconds map[string]int `json:"per_tool_seconds,omitempty"`
}

// ToolOutputFilters configures output sanitization for tool results.
type ToolOutputFilters struct {
	MaxChars     int  `json:"max_chars,omitempty"`
	StripANSI    bool `json:"strip_ansi,omitempty"`
	StripControl bool `json:"strip_control,omitempty"`
}

// ToolRateLimits throttles how often the model may call each tool.
type ToolRateLimits struct {
	DefaultPerMinute int            `json:"default_per_minute,omitempty"`
	PerToolPerMinute map[string]int `json:"per_tool_per_minute,omitempty"`
	CooldownSeconds  map[string]int `json:"cooldown_seconds,omitempty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	timeouts := tools.DefaultTimeoutConfig()
	perTool := make(map[string]int, len(timeouts.PerTool))
	for name, d := range timeouts.PerTool {
		perTool[name] = int(d.Seconds())
	}
	filters := tools.DefaultOutputFilterConfig()
	return &Config{
		APIURL:        DefaultAPIURL,
		Model:         DefaultModel,
		MaxSteps:      DefaultMaxSteps,
		ParallelTools: DefaultParallelTools,
		Port:          DefaultPort,
		Shell: ShellSettings{
			TimeoutSeconds: int(sandbox.DefaultTimeout.Seconds()),
		},
		ToolTimeouts: ToolTimeouts{
			DefaultSeconds: int(timeouts.Default.Seconds()),
			PerToolSeconds: perTool,
		},
		ToolOutputFilters: ToolOutputFilters{
			MaxChars:     filters.MaxChars,
			StripANSI:    filters.StripANSI,
			StripControl: filters.StripControl,
		},
		CommandHistoryFile: ".dunmac_history",
	}
}

// LoadConfig loads configuration from a JSON file, applies env overrides, and validates required fields.
// A missing file is not an error.
func LoadConfig(filepath string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "read config", err)
		}
		normalized, err := normalizeConfigJSON(data)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "invalid config "+filepath, err)
		}
		if err := json.Unmarshal(normalized, config); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "invalid config "+filepath, err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultMaxSteps
	}
	if config.ParallelTools <= 0 {
		config.ParallelTools = DefaultParallelTools
	}
	if config.Port <= 0 {
		config.Port = DefaultPort
	}

	if config.APIKey == "" {
		return nil, apperrors.New(apperrors.CodeConfig,
			"API key is required (set api_key in config.json or OPENROUTER_API_KEY/OPENAI_API_KEY)")
	}
	if _, err := config.ShellPolicy(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() error {
	if val := os.Getenv("OPENROUTER_API_KEY"); val != "" {
		c.APIKey = val
	} else if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.APIKey = val
	}
	if val := os.Getenv("OPENAI_API_URL"); val != "" {
		c.APIURL = val
	}
	if val := os.Getenv("DUNMAC_MODEL"); val != "" {
		c.Model = val
	}
	if val := os.Getenv("PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil || port <= 0 || port > 65535 {
			return apperrors.New(apperrors.CodeConfig, fmt.Sprintf("PORT %q is not a valid port number", val))
		}
		c.Port = port
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ShellPolicy builds the shell gate's allowlist and deny table.
func (c *Config) ShellPolicy() (*sandbox.Policy, error) {
	var (
		policy *sandbox.Policy
		err    error
	)
	deny := c.Shell.DenyPatterns
	if c.Shell.Strict {
		deny = append(append([]string(nil), deny...), sandbox.StrictDenyPatterns...)
	}
	if c.Shell.ReplaceDefaults {
		policy, err = sandbox.NewPolicy(c.Shell.AllowCommands, deny)
	} else {
		policy, err = sandbox.DefaultPolicy().Extend(c.Shell.AllowCommands, deny)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfig, "invalid shell policy", err)
	}
	return policy, nil
}

// ShellTimeout returns the wall-clock limit for one shell command.
func (c *Config) ShellTimeout() time.Duration {
	if c.Shell.TimeoutSeconds <= 0 {
		return sandbox.DefaultTimeout
	}
	return time.Duration(c.Shell.TimeoutSeconds) * time.Second
}

// ToolTimeoutsConfig returns timeout configuration for tools.
func (c *Config) ToolTimeoutsConfig() tools.TimeoutConfig {
	perTool := make(map[string]time.Duration, len(c.ToolTimeouts.PerToolSeconds))
	for name, seconds := range c.ToolTimeouts.PerToolSeconds {
		if seconds <= 0 {
			continue
		}
		perTool[name] = time.Duration(seconds) * time.Second
	}

	var defaultTimeout time.Duration
	if c.ToolTimeouts.DefaultSeconds > 0 {
		defaultTimeout = time.Duration(c.ToolTimeouts.DefaultSeconds) * time.Second
	}

	return tools.TimeoutConfig{
		Default: defaultTimeout,
		PerTool: perTool,
	}
}

// ToolOutputFiltersConfig returns output filter configuration for tools.
func (c *Config) ToolOutputFiltersConfig() tools.OutputFilterConfig {
	return tools.OutputFilterConfig{
		MaxChars:     c.ToolOutputFilters.MaxChars,
		StripANSI:    c.ToolOutputFilters.StripANSI,
		StripControl: c.ToolOutputFilters.StripControl,
	}
}

// ToolRateLimitsConfig returns the rate limit configuration for the executor.
func (c *Config) ToolRateLimitsConfig() tools.RateLimitConfig {
	cfg := tools.DefaultRateLimitConfig()
	if c.ToolRateLimits.DefaultPerMinute > 0 {
		cfg.DefaultPerMinute = c.ToolRateLimits.DefaultPerMinute
	}
	if len(c.ToolRateLimits.PerToolPerMinute) > 0 {
		cfg.PerTool = make(map[string]int, len(c.ToolRateLimits.PerToolPerMinute))
		for name, n := range c.ToolRateLimits.PerToolPerMinute {
			if n < 0 {
				n = 0
			}
			cfg.PerTool[name] = n
		}
	}
	if len(c.ToolRateLimits.CooldownSeconds) > 0 {
		cfg.Cooldowns = make(map[string]time.Duration, len(c.ToolRateLimits.CooldownSeconds))
		for name, seconds := range c.ToolRateLimits.CooldownSeconds {
			if seconds > 0 {
				cfg.Cooldowns[name] = time.Duration(seconds) * time.Second
			}
		}
	}
	return cfg
}

// NewHost builds the tool host with the configured shell gate and output filters.
func (c *Config) NewHost(runner sandbox.Runner) (*tools.Host, error) {
	policy, err := c.ShellPolicy()
	if err != nil {
		return nil, err
	}
	if runner == nil {
		runner = sandbox.ExecRunner{}
	}
	return &tools.Host{
		Runner: runner,
		Shell:  sandbox.NewGate(policy, runner, c.ShellTimeout()),
		Output: c.ToolOutputFiltersConfig(),
	}, nil
}

// ValidationWarning represents a non-fatal configuration issue
type ValidationWarning struct {
	Field   string
	Message string
}

// Validate checks the configuration for common issues and returns warnings
func (c *Config) Validate(catalog *tools.Catalog) []ValidationWarning {
	var warnings []ValidationWarning

	// Validate temperature range (OpenAI expects 0-2)
	if c.Temperature != nil {
		temp := *c.Temperature
		if temp < 0 || temp > 2 {
			warnings = append(warnings, ValidationWarning{
				Field:   "temperature",
				Message: fmt.Sprintf("temperature %.2f is outside recommended range [0, 2]", temp),
			})
		}
	}

	if c.MaxTokens != nil {
		tokens := *c.MaxTokens
		if tokens <= 0 {
			warnings = append(warnings, ValidationWarning{
				Field:   "max_tokens",
				Message: fmt.Sprintf("max_tokens %d must be positive", tokens),
			})
		}
		if tokens > 128000 {
			warnings = append(warnings, ValidationWarning{
				Field:   "max_tokens",
				Message: fmt.Sprintf("max_tokens %d exceeds typical model limits", tokens),
			})
		}
	}

	if c.MaxSteps > 50 {
		warnings = append(warnings, ValidationWarning{
			Field:   "max_steps",
			Message: fmt.Sprintf("max_steps %d allows very long tool chains", c.MaxSteps),
		})
	}

	if c.Shell.ReplaceDefaults && len(c.Shell.AllowCommands) == 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "shell.allow_commands",
			Message: "replace_defaults with an empty allowlist disables the shell tool",
		})
	}

	if catalog != nil {
		tables := []struct {
			field string
			names []string
		}{
			{"tool_timeouts.per_tool_seconds", sortedKeys(c.ToolTimeouts.PerToolSeconds)},
			{"tool_rate_limits.per_tool_per_minute", sortedKeys(c.ToolRateLimits.PerToolPerMinute)},
			{"tool_rate_limits.cooldown_seconds", sortedKeys(c.ToolRateLimits.CooldownSeconds)},
		}
		for _, table := range tables {
			for _, name := range table.names {
				if _, ok := catalog.Lookup(name); !ok {
					warnings = append(warnings, ValidationWarning{
						Field:   table.field,
						Message: fmt.Sprintf("tool %q is not registered", name),
					})
				}
			}
		}
	}

	return warnings
}
