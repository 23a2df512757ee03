package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
plugin_id: plg_1
plugin_secret: secret_1
user_key: user_1
project_key: proj_1
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "https://project.larksuite.com/open_api", cfg.BaseURL)
	assert.Equal(t, "story", cfg.WorkItemTypeKey)
	assert.Equal(t, "642ebe04168eea39eeb0d34a", cfg.ProjectTypeKey)
	assert.Equal(t, "field_28829a", cfg.ProjectNameField)
	assert.Equal(t, []string{"field_c0a56e", "related_project", "project_id"}, cfg.ProjectLinkFields)
	assert.Equal(t, "exports", cfg.OutputDir)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, filepath.Join(".cache", "token_cache.json"), cfg.TokenCacheFile)
	assert.Equal(t, filepath.Join(".cache", "user_cache.json"), cfg.UserCacheFile)
}

func TestLoadConfigYAMLOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
view_id: MlQvBlVWg
timezone: Asia/Manila
output_dir: /tmp/timesheets
max_retries: 5
template_activities:
  "111": Feature
  "222": Maintenance
project_link_fields:
  - custom_link
`))
	require.NoError(t, err)

	assert.Equal(t, "MlQvBlVWg", cfg.ViewID)
	assert.Equal(t, "Asia/Manila", cfg.Timezone)
	assert.Equal(t, "/tmp/timesheets", cfg.OutputDir)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, []string{"custom_link"}, cfg.ProjectLinkFields)
	assert.Equal(t, "Maintenance", cfg.TemplateActivities["222"])
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MEEGLE_PLUGIN_SECRET", "from-env")
	t.Setenv("MEEGLE_VIEW_ID", "envView")
	t.Setenv("MEEGLE_MAX_RETRIES", "7")
	t.Setenv("MEEGLE_PROJECT_LINK_FIELDS", "field_a, field_b")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.PluginSecret)
	assert.Equal(t, "envView", cfg.ViewID)
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, []string{"field_a", "field_b"}, cfg.ProjectLinkFields)
}

func TestLoadConfigMissingFileUsesEnv(t *testing.T) {
	t.Setenv("MEEGLE_PLUGIN_ID", "plg")
	t.Setenv("MEEGLE_PLUGIN_SECRET", "sec")
	t.Setenv("MEEGLE_USER_KEY", "usr")
	t.Setenv("MEEGLE_PROJECT_KEY", "prj")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "plg", cfg.PluginID)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "missing credentials", content: "view_id: x\n", wantErr: "missing required configuration"},
		{name: "bad retries", content: minimalConfig + "max_retries: -1\n", wantErr: "max_retries"},
		{name: "bad timeout", content: minimalConfig + "request_timeout_seconds: 0\n", wantErr: "request_timeout_seconds"},
		{name: "invalid yaml", content: "plugin_id: [unclosed\n", wantErr: "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
