package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"watchtime/internal/structures"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "127.0.0.1")
	v.SetDefault("webServer.port", 8765)
	v.SetDefault("storage.driver", structures.DriverFile)
	v.SetDefault("storage.saveInterval", 30*time.Second)
	v.SetDefault("storage.redisPrefix", "watchtime:")
	v.SetDefault("aggregation.mode", structures.ModeAdditive)
	v.SetDefault("aggregation.timezone", "UTC")
	v.SetDefault("aggregation.queueSize", 256)
	v.SetDefault("aggregation.writeTimeout", 5*time.Second)
	v.SetDefault("aggregation.maxRangeDays", 366)
	v.SetDefault("cache.ttl", time.Second)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	setDefaults(v)

	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	_ = v.BindEnv("logger.level", "WT_LOG_LEVEL")
	_ = v.BindEnv("storage.driver", "WT_STORAGE_DRIVER")
	_ = v.BindEnv("storage.saveInterval", "WT_SAVE_INTERVAL")
	_ = v.BindEnv("storage.redisAddr", "WT_REDIS_ADDR")
	_ = v.BindEnv("aggregation.mode", "WT_AGGREGATION_MODE")
	_ = v.BindEnv("cache.enabled", "WT_CACHE_ENABLED")
	_ = v.BindEnv("cache.size", "WT_CACHE_SIZE")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "WatchTimeDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
