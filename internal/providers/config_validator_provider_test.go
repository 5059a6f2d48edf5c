package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sud/internal/structures"
)

func validConfig() *structures.Config {
	return &structures.Config{
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Persistence: structures.Persistence{
			FilePath:     "/tmp/sud.dat",
			SaveInterval: 30 * time.Second,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
		Usage: structures.UsageConfig{
			TickInterval:   7 * time.Second,
			RecoveryWindow: 24 * time.Hour,
		},
		Goals: structures.GoalsConfig{
			BaseURL: "http://127.0.0.1:8000/api",
			Timeout: 10 * time.Second,
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_MissingGoalsURL(t *testing.T) {
	c := validConfig()
	c.Goals.BaseURL = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_MalformedGoalsURL(t *testing.T) {
	c := validConfig()
	c.Goals.BaseURL = "not-a-url"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_TickIntervalTooShort(t *testing.T) {
	c := validConfig()
	c.Usage.TickInterval = 500 * time.Millisecond
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_TickIntervalTooLong(t *testing.T) {
	c := validConfig()
	c.Usage.TickInterval = 2 * time.Minute
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}
