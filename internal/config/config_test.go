package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/internal/stylecfg"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hxshowcase.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Minimal(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "version: \"1.0\"\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.False(t, cfg.Server.Dev)
	assert.Equal(t, time.Second, cfg.Server.IndicatorDelayDuration())
	assert.Equal(t, 30*time.Second, cfg.Server.ReloadHeartbeatDuration())
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeoutDuration())
	assert.Equal(t, ".", cfg.Styles.Root)
	assert.Equal(t, stylecfg.DefaultTargets(), cfg.Styles.Targets)
	assert.Equal(t, DefaultChatSubject, cfg.Chat.Subject)
	assert.Equal(t, ":memory:", cfg.Contacts.DSN)
	assert.Equal(t, 30*time.Minute, cfg.Contacts.ResetIntervalDuration())
	assert.Equal(t, "/metrics", cfg.Monitoring.Metrics.Path)
	assert.Equal(t, "/health", cfg.Monitoring.Health.Path)
	assert.Equal(t, LogLevelInfo, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Monitoring.Logging.Format)
}

func TestLoad_FullFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HXS_NATS", "nats://127.0.0.1:4222")
	yaml := `version: "1.0"
server:
  port: 9090
  dev: true
  indicator_delay: 250ms
styles:
  root: ./web
  targets:
    - name: " Views "
      content:
        - ./static/views/**/*.html
      safelist: [flex, grid, flex]
chat:
  nats_url: ${HXS_NATS}
contacts:
  dsn: file:contacts.db
  reset_interval: "0"
monitoring:
  metrics:
    enabled: true
  logging:
    level: DEBUG
    format: JSON
`
	cfg, err := Load(writeConfig(t, yaml))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Dev)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.IndicatorDelayDuration())
	assert.Equal(t, "./web", cfg.Styles.Root)
	require.Len(t, cfg.Styles.Targets, 1)
	target := cfg.Styles.Targets[0]
	assert.Equal(t, "views", target.Name)
	assert.Equal(t, "tailwind.views.config.js", target.Output)
	assert.Equal(t, []string{"flex", "grid"}, target.Safelist)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Chat.NATSURL)
	assert.Equal(t, "file:contacts.db", cfg.Contacts.DSN)
	assert.Zero(t, cfg.Contacts.ResetIntervalDuration())
	assert.True(t, cfg.Monitoring.Metrics.Enabled)
	assert.Equal(t, LogLevelDebug, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Monitoring.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("ENV", "dev")
	cfg, err := Load(writeConfig(t, "version: \"1.0\"\nserver:\n  port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Server.Dev)

	t.Setenv("PORT", "not-a-port")
	t.Setenv("ENV", "prod")
	cfg, err = Load(writeConfig(t, "version: \"1.0\"\nserver:\n  port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Server.Dev)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	cases := []struct {
		name     string
		yaml     string
		category derrors.ErrorCategory
	}{
		{"wrong version", "version: \"2.0\"\n", derrors.CategoryConfig},
		{"unknown field", "version: \"1.0\"\nbogus: true\n", derrors.CategoryConfig},
		{"malformed yaml", "version: [\n", derrors.CategoryConfig},
		{"bad port", "version: \"1.0\"\nserver:\n  port: 70000\n", derrors.CategoryValidation},
		{"bad duration", "version: \"1.0\"\nserver:\n  indicator_delay: soon\n", derrors.CategoryValidation},
		{"negative duration", "version: \"1.0\"\ncontacts:\n  reset_interval: -1m\n", derrors.CategoryValidation},
		{"metrics path", "version: \"1.0\"\nmonitoring:\n  metrics:\n    path: metrics\n", derrors.CategoryValidation},
		{"bad safelist", "version: \"1.0\"\nstyles:\n  targets:\n    - name: a\n      content: [\"*.html\"]\n      safelist: [\"bg red\"]\n", derrors.CategoryValidation},
		{"duplicate targets", "version: \"1.0\"\nstyles:\n  targets:\n    - name: a\n      content: [\"*.html\"]\n    - name: A\n      content: [\"*.templ\"]\n", derrors.CategoryValidation},
		{"empty content", "version: \"1.0\"\nstyles:\n  targets:\n    - name: a\n", derrors.CategoryValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.Equal(t, tc.category, derrors.GetCategory(err), err.Error())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryConfig))
}

func TestLoadOrDefault(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := LoadOrDefault(missing, true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadOrDefault(missing, false)
	assert.Error(t, err)
}

func TestNormalizeConfig_Warnings(t *testing.T) {
	cfg := &Config{Monitoring: MonitoringConfig{Logging: MonitoringLogging{Level: "Verbose", Format: "Text"}}}
	res := NormalizeConfig(cfg)
	assert.Equal(t, LogLevelInfo, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Monitoring.Logging.Format)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "unknown monitoring.logging.level")
	assert.Contains(t, res.Warnings[1], "normalized monitoring.logging.format")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel(" Warning "))
	assert.Equal(t, LogLevel(""), NormalizeLogLevel("trace"))
	assert.Equal(t, "DEBUG", LogLevelDebug.SlogLevel().String())
	assert.Equal(t, "INFO", LogLevel("").SlogLevel().String())
}

func TestInit(t *testing.T) {
	clearEnv(t)
	t.Setenv("NATS_URL", "")
	path := filepath.Join(t.TempDir(), DefaultPath)

	require.NoError(t, Init(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Server.Dev)
	assert.True(t, cfg.Monitoring.Metrics.Enabled)
	assert.Len(t, cfg.Styles.Targets, 2)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))

	require.NoError(t, Init(path, true))
}
