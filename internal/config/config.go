package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Values come from the YAML
// config file, overridden by environment variables; credentials are
// normally supplied through the environment only.
type Config struct {
	BaseURL      string `yaml:"base_url"`
	PluginID     string `yaml:"plugin_id"`
	PluginSecret string `yaml:"plugin_secret"`
	UserKey      string `yaml:"user_key"`
	ProjectKey   string `yaml:"project_key"`

	WorkItemTypeKey  string `yaml:"work_item_type_key"`
	ProjectTypeKey   string `yaml:"project_type_key"`
	ProjectNameField string `yaml:"project_name_field"`
	// ProjectLinkFields are the custom field keys checked, in order, for a
	// work item's project reference.
	ProjectLinkFields []string `yaml:"project_link_fields"`
	// TemplateActivities maps workflow template ids to activity codes.
	TemplateActivities map[string]string `yaml:"template_activities"`

	ViewID   string `yaml:"view_id"`
	Timezone string `yaml:"timezone"`

	OutputDir      string `yaml:"output_dir"`
	CacheDir       string `yaml:"cache_dir"`
	TokenCacheFile string `yaml:"token_cache_file"`
	UserCacheFile  string `yaml:"user_cache_file"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	MaxRetries            int `yaml:"max_retries"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// DefaultConfig returns the configuration used when the config file and
// environment provide nothing.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "https://project.larksuite.com/open_api",
		WorkItemTypeKey:  "story",
		ProjectTypeKey:   "642ebe04168eea39eeb0d34a",
		ProjectNameField: "field_28829a",
		ProjectLinkFields: []string{
			"field_c0a56e", "related_project", "project_id",
		},
		Timezone:              "Local",
		OutputDir:             "exports",
		CacheDir:              ".cache",
		LogLevel:              "info",
		MaxRetries:            3,
		RequestTimeoutSeconds: 30,
	}
}

// LoadConfig reads configuration from path (optional), then applies
// environment overrides. A missing config file is not an error; missing
// credentials are.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("MEEGLE_CONFIG")
	}
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	cfg.fillCachePaths()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	envOverride(&cfg.BaseURL, "MEEGLE_BASE_URL")
	envOverride(&cfg.PluginID, "MEEGLE_PLUGIN_ID")
	envOverride(&cfg.PluginSecret, "MEEGLE_PLUGIN_SECRET")
	envOverride(&cfg.UserKey, "MEEGLE_USER_KEY")
	envOverride(&cfg.ProjectKey, "MEEGLE_PROJECT_KEY")
	envOverride(&cfg.WorkItemTypeKey, "MEEGLE_WORK_ITEM_TYPE_KEY")
	envOverride(&cfg.ProjectTypeKey, "MEEGLE_PROJECT_TYPE_KEY")
	envOverride(&cfg.ProjectNameField, "MEEGLE_PROJECT_NAME_FIELD")
	envOverride(&cfg.ViewID, "MEEGLE_VIEW_ID")
	envOverride(&cfg.Timezone, "MEEGLE_TIMEZONE")
	envOverride(&cfg.OutputDir, "MEEGLE_OUTPUT_DIR")
	envOverride(&cfg.CacheDir, "MEEGLE_CACHE_DIR")
	envOverride(&cfg.LogLevel, "MEEGLE_LOG_LEVEL")
	envOverride(&cfg.LogFile, "MEEGLE_LOG_FILE")
	envOverrideInt(&cfg.MaxRetries, "MEEGLE_MAX_RETRIES")
	envOverrideInt(&cfg.RequestTimeoutSeconds, "MEEGLE_REQUEST_TIMEOUT_SECONDS")

	if fields := os.Getenv("MEEGLE_PROJECT_LINK_FIELDS"); fields != "" {
		cfg.ProjectLinkFields = nil
		for _, field := range strings.Split(fields, ",") {
			field = strings.TrimSpace(field)
			if field != "" {
				cfg.ProjectLinkFields = append(cfg.ProjectLinkFields, field)
			}
		}
	}
}

// fillCachePaths derives the cache file locations from CacheDir when the
// config does not name them explicitly.
func (c *Config) fillCachePaths() {
	if c.TokenCacheFile == "" {
		c.TokenCacheFile = filepath.Join(c.CacheDir, "token_cache.json")
	}
	if c.UserCacheFile == "" {
		c.UserCacheFile = filepath.Join(c.CacheDir, "user_cache.json")
	}
}

// Validate checks that everything needed to reach the API is present.
func (c *Config) Validate() error {
	var missing []string
	if c.PluginID == "" {
		missing = append(missing, "plugin_id")
	}
	if c.PluginSecret == "" {
		missing = append(missing, "plugin_secret")
	}
	if c.UserKey == "" {
		missing = append(missing, "user_key")
	}
	if c.ProjectKey == "" {
		missing = append(missing, "project_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive, got %d", c.MaxRetries)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	return nil
}

func envOverride(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func envOverrideInt(target *int, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}
