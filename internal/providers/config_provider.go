package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"sud/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	// A .env next to the config file may carry secrets (goal store token).
	_ = godotenv.Load(filepath.Join(filepath.Dir(flags.ConfigPath), ".env"))

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "SUD_LOG_LEVEL")
	viper.BindEnv("usage.tickInterval", "SUD_TICK_INTERVAL")
	viper.BindEnv("persistence.saveInterval", "SUD_SAVE_INTERVAL")
	viper.BindEnv("cache.enabled", "SUD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "SUD_CACHE_SIZE")
	viper.BindEnv("goals.baseURL", "SUD_GOALS_BASE_URL")
	viper.BindEnv("goals.token", "SUD_GOALS_TOKEN")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	applyDefaults(&conf)

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "SimpleUsageDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

func applyDefaults(conf *structures.Config) {
	if conf.Usage.TickInterval == 0 {
		conf.Usage.TickInterval = 7 * time.Second
	}
	if conf.Usage.RecoveryWindow == 0 {
		conf.Usage.RecoveryWindow = 24 * time.Hour
	}
	if conf.Goals.Timeout == 0 {
		conf.Goals.Timeout = 10 * time.Second
	}
	if conf.History.RetentionDays == 0 {
		conf.History.RetentionDays = 90
	}
}
