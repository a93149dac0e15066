package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/splitflow/internal/common"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the hosted expense server.
const DefaultBaseURL = "https://smart-expense-splitter-backend.vercel.app"

// Credential storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Settings is the resolved client configuration.
type Settings struct {
	BaseURL           string
	CredentialBackend string
	CredentialPath    string
	ReportDir         string
	LogLevel          string
	LogFormat         string
	LogFile           string
	Timeout           time.Duration
	CredentialTTL     time.Duration
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("credential.backend", BackendFile)
	v.SetDefault("credential.ttl_days", 7)
	v.SetDefault("report.dir", ".")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load resolves Settings from v, filling in derived paths.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		BaseURL:           strings.TrimRight(v.GetString("api.base_url"), "/"),
		Timeout:           v.GetDuration("api.timeout"),
		CredentialBackend: v.GetString("credential.backend"),
		CredentialPath:    ExpandPath(v.GetString("credential.path")),
		CredentialTTL:     time.Duration(v.GetInt("credential.ttl_days")) * 24 * time.Hour,
		ReportDir:         ExpandPath(v.GetString("report.dir")),
		LogLevel:          v.GetString("logging.level"),
		LogFormat:         v.GetString("logging.format"),
		LogFile:           ExpandPath(v.GetString("logging.file")),
	}

	if s.BaseURL == "" {
		return Settings{}, fmt.Errorf("%w: api.base_url", common.ErrMissingConfig)
	}
	if !strings.HasPrefix(s.BaseURL, "http://") && !strings.HasPrefix(s.BaseURL, "https://") {
		return Settings{}, fmt.Errorf("%w: api.base_url must be an http(s) URL, got %q", common.ErrInvalidConfig, s.BaseURL)
	}
	if s.CredentialTTL <= 0 {
		return Settings{}, fmt.Errorf("%w: credential.ttl_days must be positive", common.ErrInvalidConfig)
	}

	switch s.CredentialBackend {
	case BackendFile, BackendSQLite:
	default:
		return Settings{}, fmt.Errorf("%w: credential.backend %q", common.ErrInvalidConfig, s.CredentialBackend)
	}

	if s.CredentialPath == "" {
		dir, err := DataDir()
		if err != nil {
			return Settings{}, fmt.Errorf("failed to resolve data directory: %w", err)
		}
		name := "credential.json"
		if s.CredentialBackend == BackendSQLite {
			name = "splitflow.db"
		}
		s.CredentialPath = filepath.Join(dir, name)
	}

	return s, nil
}

// TUILogFile is where the TUI logs when no logging.file is configured.
func (s Settings) TUILogFile() string {
	if s.LogFile != "" {
		return s.LogFile
	}
	dir, err := DataDir()
	if err != nil {
		return filepath.Join(".", AppName+".log")
	}
	return filepath.Join(dir, AppName+".log")
}
