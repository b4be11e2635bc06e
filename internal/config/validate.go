package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Platform.BaseURL != "" {
		if u, err := url.Parse(cfg.Platform.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    "platform.baseUrl",
				Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.Platform.BaseURL),
			})
		}
	}

	if cfg.Platform.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "platform.timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Platform.TimeoutSeconds),
		})
	}

	validAuthModes := []string{"none", "token", "oauth"}
	if cfg.Platform.Auth.Mode != "" && !slices.Contains(validAuthModes, cfg.Platform.Auth.Mode) {
		issues = append(issues, ValidationIssue{
			Path:    "platform.auth.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", validAuthModes, cfg.Platform.Auth.Mode),
		})
	}
	if cfg.Platform.Auth.Mode == "token" && cfg.Platform.Auth.Token == "" {
		issues = append(issues, ValidationIssue{
			Path:    "platform.auth.token",
			Message: "required when auth mode is token",
		})
	}
	if cfg.Platform.Auth.Mode == "oauth" {
		if cfg.Platform.Auth.ClientID == "" {
			issues = append(issues, ValidationIssue{
				Path:    "platform.auth.clientId",
				Message: "required when auth mode is oauth",
			})
		}
		if cfg.Platform.Auth.TokenURL == "" {
			issues = append(issues, ValidationIssue{
				Path:    "platform.auth.tokenUrl",
				Message: "required when auth mode is oauth",
			})
		}
	}

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.customBindHost",
			Message: "required when bind is custom",
		})
	}

	validGatewayAuth := []string{"none", "token"}
	if cfg.Gateway.Auth.Mode != "" && !slices.Contains(validGatewayAuth, cfg.Gateway.Auth.Mode) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.auth.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", validGatewayAuth, cfg.Gateway.Auth.Mode),
		})
	}

	if cfg.Gateway.TLS.Enabled {
		if cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "" {
			issues = append(issues, ValidationIssue{
				Path:    "gateway.tls",
				Message: "certPath and keyPath are required when TLS is enabled",
			})
		}
	}

	validStores := []string{"sqlite", "memory"}
	if cfg.History.Store != "" && !slices.Contains(validStores, cfg.History.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "history.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.History.Store),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
