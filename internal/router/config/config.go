package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	StorageDriver  string        `mapstructure:"STORAGE_DRIVER"`
	PostgresConn   string        `mapstructure:"POSTGRES_CONN"`
	MigrationURL   string        `mapstructure:"MIGRATION_URL"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

// LoadConfig загружает конфигурацию из файла
func LoadConfig(path string) (cfg Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("STORAGE_DRIVER", "postgres")
	viper.SetDefault("TOKEN_TTL", "24h")
	viper.SetDefault("REQUEST_TIMEOUT", "5s")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}
	err = viper.Unmarshal(&cfg)
	return
}
