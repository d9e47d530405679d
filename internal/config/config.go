// Package config loads process configuration from the environment, in
// the teacher's getenv-with-default idiom (§6 Config).
package config

import "os"

type HTTPConfig struct {
	CalDAVAddr string
	MCPAddr    string
}

type MCPConfig struct {
	ToolMode string // "full" or "simple"
}

type StorageConfig struct {
	DatabaseURL string
}

type Config struct {
	HTTP     HTTPConfig
	MCP      MCPConfig
	Storage  StorageConfig
	ICS      ICSConfig
	Timezone string
	LogLevel string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() (*Config, error) {
	return &Config{
		HTTP: HTTPConfig{
			CalDAVAddr: ":" + getenv("CALDAV_PORT", "5232"),
			MCPAddr:    ":" + getenv("MCP_PORT", "5233"),
		},
		MCP: MCPConfig{
			ToolMode: getenv("MCP_TOOL_MODE", "full"),
		},
		Storage: StorageConfig{
			DatabaseURL: getenv("DATABASE_URL", "sqlite://./data/caldav.db"),
		},
		ICS: ICSConfig{
			CompanyName: getenv("ICS_COMPANY_NAME", "CalDAV MCP"),
			ProductName: getenv("ICS_PRODUCT_NAME", "CalDAV"),
			Version:     getenv("ICS_VERSION", "1.0.0"),
			Language:    getenv("ICS_LANGUAGE", "EN"),
		},
		Timezone: getenv("TZ", "UTC"),
		LogLevel: getenv("LOG_LEVEL", "info"),
	}, nil
}
