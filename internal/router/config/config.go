package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the env file.
type Config struct {
	ServerAddress string        `mapstructure:"SERVER_ADDRESS"`
	AppBaseURL    string        `mapstructure:"APP_BASE_URL"`
	PostgresConn  string        `mapstructure:"POSTGRES_CONN"`
	MigrationURL  string        `mapstructure:"MIGRATION_URL"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	TokenTTL      time.Duration `mapstructure:"TOKEN_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RabbitMQURL   string        `mapstructure:"RABBITMQ_URL"`
	AMQPExchange  string        `mapstructure:"AMQP_EXCHANGE"`
	ResetTokenTTL time.Duration `mapstructure:"RESET_TOKEN_TTL"`
	SeedUsers     bool          `mapstructure:"SEED_USERS"`
}

// LoadConfig loads configuration from the app.env file at path.
func LoadConfig(path string) (cfg Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("TOKEN_TTL", 24*time.Hour)
	viper.SetDefault("RESET_TOKEN_TTL", time.Hour)
	viper.SetDefault("AMQP_EXCHANGE", "sos.notifications")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}
	err = viper.Unmarshal(&cfg)
	return
}
