package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"schedula/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("SCHEDULA_DB_PATH", filepath.Join(tmpDir, "schedula.db"))

	yamlContent := `
app:
  name: "schedula-test"
database:
  path: "${SCHEDULA_DB_PATH}"
assistant:
  timezone: "UTC"
  selection_ttl: 2m
api:
  http:
    enabled: true
    port: 9000
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "schedula-test", cfg.App.Name)
	assert.Equal(t, filepath.Join(tmpDir, "schedula.db"), cfg.Database.Path)
	assert.Equal(t, 2*time.Minute, cfg.Assistant.SelectionTTL)
	assert.Equal(t, 9000, cfg.API.HTTP.Port)
	assert.Equal(t, 8081, cfg.API.GRPC.Port)

	loc, err := cfg.Assistant.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "Valid",
			cfg:     Config{Database: DatabaseConfig{Path: "test.db"}},
			wantErr: false,
		},
		{
			name:    "Missing DB path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "Unknown timezone",
			cfg: Config{
				Database:  DatabaseConfig{Path: "test.db"},
				Assistant: AssistantConfig{Timezone: "Mars/Olympus"},
			},
			wantErr: true,
		},
		{
			name: "TLS without cert",
			cfg: Config{
				Database: DatabaseConfig{Path: "test.db"},
				API:      APIConfig{GRPC: APIGRPCConfig{TLS: APITLSConfig{Enabled: true}}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateBot(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateBot())

	cfg.Telegram.BotToken = "YOUR_BOT_TOKEN_HERE"
	assert.Error(t, cfg.ValidateBot())

	cfg.Telegram.BotToken = "123:abc"
	assert.NoError(t, cfg.ValidateBot())
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, "schedula", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, 8081, cfg.API.GRPC.Port)
	assert.Equal(t, time.Duration(models.DefaultSelectionTTL)*time.Second, cfg.Assistant.SelectionTTL)
	assert.Equal(t, models.RateLimitMessages, cfg.Bot.RateLimitMessages)
	assert.Equal(t, 0, cfg.Monitoring.PrometheusPort)
}

func TestGoogleEnabled(t *testing.T) {
	assert.False(t, GoogleConfig{}.Enabled())
	assert.True(t, GoogleConfig{GoogleCredentialsFile: "creds.json", BookingSpreadSheetID: "sheet"}.Enabled())
}
