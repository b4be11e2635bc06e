package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Platform: PlatformConfig{
			TimeoutSeconds: 30,
			Auth: PlatformAuth{
				Mode: "none",
			},
		},
		Gateway: GatewayConfig{
			Port: 18890,
			Bind: "loopback",
			Auth: GatewayAuth{
				Mode: "token",
			},
		},
		History: HistoryConfig{
			Store: "sqlite",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
