package config

// Config is the root configuration for blitz.
type Config struct {
	Platform  PlatformConfig  `yaml:"platform,omitempty"`
	Assistant AssistantConfig `yaml:"assistant,omitempty"`
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	History   HistoryConfig   `yaml:"history,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// PlatformConfig points at the hosted analysis agent.
type PlatformConfig struct {
	BaseURL        string       `yaml:"baseUrl"`
	TimeoutSeconds int          `yaml:"timeoutSeconds,omitempty"`
	Auth           PlatformAuth `yaml:"auth,omitempty"`
}

// PlatformAuth configures how requests to the platform are authorized.
type PlatformAuth struct {
	Mode         string   `yaml:"mode,omitempty"` // "none" | "token" | "oauth"
	Token        string   `yaml:"token,omitempty"`
	ClientID     string   `yaml:"clientId,omitempty"`
	ClientSecret string   `yaml:"clientSecret,omitempty"`
	TokenURL     string   `yaml:"tokenUrl,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

// AssistantConfig holds client-side defaults for exchanges.
type AssistantConfig struct {
	UserName string `yaml:"userName,omitempty"` // attached to feedback submissions
}

// GatewayConfig controls the relay HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode  string `yaml:"mode,omitempty"` // "none" | "token"
	Token string `yaml:"token,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// HistoryConfig controls exchange history persistence.
type HistoryConfig struct {
	Store string `yaml:"store,omitempty"` // "sqlite" | "memory"
	Path  string `yaml:"path,omitempty"`  // overrides the default db location
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}
