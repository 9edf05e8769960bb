package app

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/stonemap/internal/config"
)

// Config holds the CLI configuration loaded from config files, environment
// variables and .env files. Pipeline settings live in config.Settings.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (STONEMAP_*)
// 3. .env files
// 4. Config file (./.stonemap.yaml or ~/.stonemap.yaml)
// 5. Defaults
func LoadConfig(v *viper.Viper) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	config.SetDefaults(v)
	config.BindEnv(v)
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")

	if file := os.Getenv(config.EnvPrefix + "_CONFIG"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".stonemap")
	}

	// Read config file (ignore error if not found)
	_ = v.ReadInConfig()

	return &Config{
		Verbose:    v.GetBool("verbose"),
		Quiet:      v.GetBool("quiet"),
		NoColor:    v.GetBool("no_color"),
		Format:     v.GetString("format"),
		ConfigFile: v.ConfigFileUsed(),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", v.GetString("log.level")),
		LogFormat:  getEnvOrDefault("LOG_FORMAT", v.GetString("log.format")),
		LogOutput:  getEnvOrDefault("LOG_OUTPUT", v.GetString("log.output")),
	}, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// Flag values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so it wins over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
