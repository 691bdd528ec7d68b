package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stashbin/stashbin/internal/duration"
	"go.uber.org/zap/zapcore"
)

type ServerConfig struct {
	Port             int           `mapstructure:"port"`
	GracefulShutdown time.Duration `mapstructure:"graceful-shutdown"`
	ReadTimeout      time.Duration `mapstructure:"read-timeout"`
	WriteTimeout     time.Duration `mapstructure:"write-timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	SessionTime time.Duration `mapstructure:"session-time"`
}

type DBConfig struct {
	DataSource  string `mapstructure:"data-source"`
	PrepareStmt bool   `mapstructure:"prepare-stmt"`
	LogLevel    string `mapstructure:"log-level"`
	Pool        struct {
		Enable             bool          `mapstructure:"enable"`
		MaxOpenConnections int           `mapstructure:"max-open-connections"`
		MaxIdleConnections int           `mapstructure:"max-idle-connections"`
		MaxLifetime        time.Duration `mapstructure:"max-lifetime"`
	} `mapstructure:"pool"`
}

type CacheConfig struct {
	MaxSize   int    `mapstructure:"max-size"`
	RedisAddr string `mapstructure:"redis-addr"`
	RedisPass string `mapstructure:"redis-pass"`
}

type StorageConfig struct {
	Root    string `mapstructure:"root"`
	BaseURL string `mapstructure:"base-url"`
}

type ServerCmdConfig struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LoggingConfig `mapstructure:"log"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	DB      DBConfig      `mapstructure:"db"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Storage StorageConfig `mapstructure:"storage"`
}

type ConfigLoader struct {
	v *viper.Viper
}

func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{
		v: viper.New(),
	}
}

func StringToDurationHook() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		str, ok := data.(string)
		if !ok {
			return data, nil
		}
		return duration.ParseDuration(str)
	}
}

func (cl *ConfigLoader) InitializeConfig(cmd *cobra.Command) error {
	cl.v.SetConfigType("toml")

	cfgFile := cmd.Flags().Lookup("config").Value.String()

	if cfgFile != "" {
		cl.v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error getting home directory: %v", err)
		}
		cl.v.AddConfigPath(filepath.Join(home, ".stashbin"))
		cl.v.AddConfigPath(".")
		cl.v.SetConfigName("config")
	}

	cl.v.SetEnvPrefix("stashbin")
	cl.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	cl.v.AutomaticEnv()

	if err := cl.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	if err := cl.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %v", err)
		}
	}

	return nil
}

func (cl *ConfigLoader) Load(cfg interface{}) error {
	config := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			StringToDurationHook(),
		),
		WeaklyTypedInput: true,
		Result:           cfg,
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %v", err)
	}

	if err := decoder.Decode(cl.v.AllSettings()); err != nil {
		return fmt.Errorf("failed to decode config: %v", err)
	}

	return nil
}

func AddServerFlags(flags *pflag.FlagSet, config *ServerCmdConfig) {

	flags.StringP("config", "c", "", "Config file path (default $HOME/.stashbin/config.toml)")

	// Server config
	flags.IntVar(&config.Server.Port, "server-port", 8080, "Server port")
	flags.DurationVar(&config.Server.GracefulShutdown, "server-graceful-shutdown", 15*time.Second, "Graceful shutdown timeout")
	flags.DurationVar(&config.Server.ReadTimeout, "server-read-timeout", time.Hour, "Server read timeout")
	flags.DurationVar(&config.Server.WriteTimeout, "server-write-timeout", time.Hour, "Server write timeout")

	// Log config
	flags.StringVar(&config.Log.Level, "log-level", zapcore.InfoLevel.String(), "Logging level")
	flags.StringVar(&config.Log.File, "log-file", "", "Logging file path")

	// JWT config
	flags.StringVar(&config.JWT.Secret, "jwt-secret", "", "JWT signing secret")
	duration.DurationVar(flags, &config.JWT.SessionTime, "jwt-session-time", 30*24*time.Hour, "Session duration")

	// DB config
	flags.StringVar(&config.DB.DataSource, "db-data-source", "", "Database connection string")
	flags.StringVar(&config.DB.LogLevel, "db-log-level", zapcore.WarnLevel.String(), "Database log level")
	flags.BoolVar(&config.DB.PrepareStmt, "db-prepare-stmt", true, "Enable prepared statements")
	flags.BoolVar(&config.DB.Pool.Enable, "db-pool-enable", true, "Enable database pool")
	flags.IntVar(&config.DB.Pool.MaxOpenConnections, "db-pool-max-open-connections", 25, "Database max open connections")
	flags.IntVar(&config.DB.Pool.MaxIdleConnections, "db-pool-max-idle-connections", 25, "Database max idle connections")
	duration.DurationVar(flags, &config.DB.Pool.MaxLifetime, "db-pool-max-lifetime", 10*time.Minute, "Database max connection lifetime")

	// Cache config
	flags.IntVar(&config.Cache.MaxSize, "cache-max-size", 10*1024*1024, "Max cache size in bytes")
	flags.StringVar(&config.Cache.RedisAddr, "cache-redis-addr", "", "Redis address")
	flags.StringVar(&config.Cache.RedisPass, "cache-redis-pass", "", "Redis password")

	// Storage config
	flags.StringVar(&config.Storage.Root, "storage-root", "uploads", "Blob storage root directory")
	flags.StringVar(&config.Storage.BaseURL, "storage-base-url", "", "Base URL for share links (defaults to request host)")
}
