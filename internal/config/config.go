// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the dev server's listening address (ip:port).
	Addr string

	// BackendURL is the base URL of the messaging backend the client talks to.
	BackendURL string

	// DatabasePath is the sqlite database file used by the dev server.
	DatabasePath string

	// UploadDir is the directory the dev server stores uploaded media in.
	UploadDir string

	// SessionFile is the file the client persists its token and role in.
	SessionFile string

	// LogLevel sets the structured log level ("debug", "info", "warn", "error").
	LogLevel string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8000", "run on ip:port server")
	flag.StringVar(&options.BackendURL, "url", "http://localhost:8000", "backend base URL")
	flag.StringVar(&options.DatabasePath, "d", "slashmsg.db", "sqlite database path")
	flag.StringVar(&options.UploadDir, "uploads", "uploads", "directory for uploaded media")
	flag.StringVar(&options.SessionFile, "session", "session.json", "path to the stored session file")
	flag.StringVar(&options.LogLevel, "log", "info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values. A local .env file, if present, is loaded
// before the environment is consulted.
func Parse() *Options {
	flag.Parse()

	// A missing .env is not an error; explicit environment always wins.
	_ = godotenv.Load()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}
	if backendURL := os.Getenv("SLASHMSG_BACKEND_URL"); backendURL != "" {
		options.BackendURL = backendURL
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		options.DatabasePath = dbPath
	}
	if level := os.Getenv("SLASHMSG_LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	return options
}
