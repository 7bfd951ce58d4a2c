// Package config provides configuration management for the document
// translator application.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"doc-translator/internal/logger"
	"doc-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "doc-translator-config.json"
	// EnvAPIKey is the environment variable name for the API key
	EnvAPIKey = "OPENAI_API_KEY"
	// EnvBaseURL is the environment variable name for the API base URL
	EnvBaseURL = "OPENAI_BASE_URL"
	// DefaultBaseURL is the default OpenAI-compatible API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the default model to use
	DefaultModel = "gpt-4o-mini"
	// DefaultWorkers is the default batch translation concurrency.
	// Chunks are processed one at a time so an unknown remote rate limit is
	// never exceeded; raising this is an explicit opt-in.
	DefaultWorkers = 1
)

// Manager manages application configuration
type Manager struct {
	configPath string
	config     *types.Config
}

// NewManager creates a new Manager with the specified config path.
// If configPath is empty, it uses the default path in the user's home
// directory.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "doc-translator", DefaultConfigFileName)
	}

	logger.Info("config manager initialized", logger.String("configPath", configPath))
	return &Manager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

// defaultConfig returns a Config with default values
func defaultConfig() *types.Config {
	return &types.Config{
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		Workers: DefaultWorkers,
	}
}

// Load loads configuration from the config file.
// If the file doesn't exist, it uses default values. Environment variables
// take precedence for the API key and base URL when the file values are
// empty.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		config := &types.Config{}
		if err := json.Unmarshal(data, config); err != nil {
			logger.Warn("invalid config file format, using defaults",
				logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			logger.Info("configuration loaded",
				logger.String("path", m.configPath),
				logger.Int("apiKeyLength", len(config.APIKey)),
				logger.String("baseURL", config.BaseURL),
				logger.String("model", config.Model))
			m.config = config
		}
	}

	// Apply defaults for empty fields
	if m.config.Model == "" {
		m.config.Model = DefaultModel
	}
	if m.config.BaseURL == "" {
		m.config.BaseURL = DefaultBaseURL
	}
	if m.config.Workers <= 0 {
		m.config.Workers = DefaultWorkers
	}

	return nil
}

// Save saves the current configuration to the config file.
func (m *Manager) Save() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// GetConfig returns the current configuration.
func (m *Manager) GetConfig() *types.Config {
	if m.config == nil {
		return defaultConfig()
	}
	return m.config
}

// SetConfig sets the entire configuration.
func (m *Manager) SetConfig(config *types.Config) {
	m.config = config
}

// GetConfigPath returns the path to the config file.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetAPIKey returns the API key, falling back to the environment variable
// when the config file has none.
func (m *Manager) GetAPIKey() string {
	if m.config != nil && m.config.APIKey != "" {
		return m.config.APIKey
	}
	return os.Getenv(EnvAPIKey)
}

// GetBaseURL returns the API base URL, falling back to the environment
// variable and then the default.
func (m *Manager) GetBaseURL() string {
	if m.config != nil && m.config.BaseURL != "" {
		return m.config.BaseURL
	}
	if envURL := os.Getenv(EnvBaseURL); envURL != "" {
		return envURL
	}
	return DefaultBaseURL
}

// GetModel returns the model to use. A non-empty custom model name takes
// precedence over the selected model.
func (m *Manager) GetModel() string {
	if m.config != nil {
		if m.config.CustomModel != "" {
			return m.config.CustomModel
		}
		if m.config.Model != "" {
			return m.config.Model
		}
	}
	return DefaultModel
}

// GetTargetLanguage returns the configured target language tag. Empty means
// auto-detect between Chinese and English.
func (m *Manager) GetTargetLanguage() string {
	if m.config != nil {
		return m.config.TargetLanguage
	}
	return ""
}

// GetWorkers returns the batch translation concurrency.
func (m *Manager) GetWorkers() int {
	if m.config != nil && m.config.Workers > 0 {
		return m.config.Workers
	}
	return DefaultWorkers
}

// GetWorkDirectory returns the work directory.
func (m *Manager) GetWorkDirectory() string {
	if m.config != nil {
		return m.config.WorkDirectory
	}
	return ""
}

// UpdateConfig updates the configuration with new values and saves it.
// Empty string and non-positive numeric arguments leave the current value
// unchanged.
func (m *Manager) UpdateConfig(apiKey, baseURL, model, customModel, targetLanguage string, workers int) error {
	logger.Info("updating configuration")
	if m.config == nil {
		m.config = defaultConfig()
	}

	if apiKey != "" {
		m.config.APIKey = apiKey
	}
	if baseURL != "" {
		m.config.BaseURL = baseURL
	}
	if model != "" {
		m.config.Model = model
	}
	// CustomModel may be cleared deliberately, so always assign it.
	m.config.CustomModel = customModel
	m.config.TargetLanguage = targetLanguage
	if workers > 0 {
		m.config.Workers = workers
	}

	return m.Save()
}

// SetLastUsedFile remembers the last translated file path and saves
// silently.
func (m *Manager) SetLastUsedFile(path string) {
	if m.config == nil {
		m.config = defaultConfig()
	}
	m.config.LastUsedFile = path
	_ = m.Save()
}
