package config

import (
	"os"
	"regexp"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})
}

// expandConfigEnvVars expands environment variables in secret-bearing fields
func expandConfigEnvVars(cfg *Config) {
	cfg.Server.JWTSecret = expandEnvVars(cfg.Server.JWTSecret)
	cfg.Database.Password = expandEnvVars(cfg.Database.Password)
	cfg.Database.Host = expandEnvVars(cfg.Database.Host)
	cfg.Redis.URL = expandEnvVars(cfg.Redis.URL)
	cfg.Completion.APIKey = expandEnvVars(cfg.Completion.APIKey)
	cfg.Completion.FallbackAPIKey = expandEnvVars(cfg.Completion.FallbackAPIKey)
}
