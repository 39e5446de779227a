package config

import (
	"fmt"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
)

// ValidateConfig checks a defaulted configuration. Every problem found is
// reported in one validation error.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	v.validateServer()
	v.validateStyles()
	v.validateContacts()
	v.validateMonitoring()
	if len(v.problems) == 0 {
		return nil
	}
	return derrors.ValidationError("invalid configuration: " + strings.Join(v.problems, "; ")).
		WithContext("problems", v.problems).
		Build()
}

type configurationValidator struct {
	config   *Config
	problems []string
}

func (cv *configurationValidator) addf(format string, args ...any) {
	cv.problems = append(cv.problems, fmt.Sprintf(format, args...))
}

func (cv *configurationValidator) validateServer() {
	s := cv.config.Server
	if s.Port < 1 || s.Port > 65535 {
		cv.addf("server.port must be between 1 and 65535, got %d", s.Port)
	}
	cv.validateDuration("server.indicator_delay", s.IndicatorDelay)
	cv.validateDuration("server.reload_heartbeat", s.ReloadHeartbeat)
	cv.validateDuration("server.shutdown_timeout", s.ShutdownTimeout)
	if d, err := time.ParseDuration(s.ReloadHeartbeat); err == nil && d == 0 {
		cv.addf("server.reload_heartbeat must be positive")
	}
}

func (cv *configurationValidator) validateStyles() {
	seen := map[string]bool{}
	for i, t := range cv.config.Styles.Targets {
		if t.Name == "" {
			cv.addf("styles.targets[%d].name is required", i)
		} else if seen[t.Name] {
			cv.addf("styles.targets[%d].name %q is duplicated", i, t.Name)
		}
		seen[t.Name] = true

		if _, err := t.Record.Validate(); err != nil {
			detail := err.Error()
			if c, ok := derrors.AsClassified(err); ok {
				if problems, ok := c.Context().Get("problems"); ok {
					if list, ok := problems.([]string); ok {
						detail = strings.Join(list, ", ")
					}
				}
			}
			cv.addf("styles.targets[%d] (%s): %s", i, t.Name, detail)
		}
	}
}

func (cv *configurationValidator) validateContacts() {
	cv.validateDuration("contacts.reset_interval", cv.config.Contacts.ResetInterval)
}

func (cv *configurationValidator) validateMonitoring() {
	m := cv.config.Monitoring
	if !strings.HasPrefix(m.Metrics.Path, "/") {
		cv.addf("monitoring.metrics.path must start with '/', got %q", m.Metrics.Path)
	}
	if !strings.HasPrefix(m.Health.Path, "/") {
		cv.addf("monitoring.health.path must start with '/', got %q", m.Health.Path)
	}
	if m.Metrics.Enabled && m.Metrics.Path == m.Health.Path {
		cv.addf("monitoring.metrics.path and monitoring.health.path must differ")
	}
}

// validateDuration accepts "0" and any non-negative time.ParseDuration value.
func (cv *configurationValidator) validateDuration(field, raw string) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		cv.addf("%s: invalid duration %q", field, raw)
		return
	}
	if d < 0 {
		cv.addf("%s must not be negative", field)
	}
}
