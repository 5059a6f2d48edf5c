package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type UsageConfig struct {
	TickInterval   time.Duration `yaml:"tickInterval" validate:"required|min:1"`
	RecoveryWindow time.Duration `yaml:"recoveryWindow"`
}

type HistoryConfig struct {
	DBPath        string        `yaml:"dbPath"`
	RetentionDays int           `yaml:"retentionDays"`
	ArchiveDir    string        `yaml:"archiveDir"`
	ArchiveTTL    time.Duration `yaml:"archiveTTL"`
}

type GoalsConfig struct {
	BaseURL            string        `yaml:"baseURL" validate:"required|fullUrl"`
	Token              string        `yaml:"token"`
	Timeout            time.Duration `yaml:"timeout"`
	FullReplaceUpdates bool          `yaml:"fullReplaceUpdates"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Usage       UsageConfig   `yaml:"usage"`
	History     HistoryConfig `yaml:"history"`
	Goals       GoalsConfig   `yaml:"goals"`
	WebServer   Server        `yaml:"webServer"`
	Persistence Persistence   `yaml:"persistence"`
	Logger      LoggerConfig  `yaml:"logger"`
	Cache       CacheConfig   `yaml:"cache"`
	Metrics     MetricsConfig `yaml:"metrics"`
}
