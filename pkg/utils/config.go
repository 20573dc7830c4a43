package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Reservation ReservationConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type ReservationConfig struct {
	// CancelWindowHours is the minimum lead time, in hours before the
	// resource's scheduled start, for a cancellation to be accepted.
	CancelWindowHours int

	// LockTimeoutMS bounds how long a reserve/cancel transaction waits on
	// the resource row lock before failing as retryable contention.
	LockTimeoutMS int

	// ContentionRetries is how many times the facade retries a contended
	// call before giving up.
	ContentionRetries int

	// RetryInitialMS seeds the exponential backoff between retries.
	RetryInitialMS int
}

func (r ReservationConfig) CancelWindow() time.Duration {
	return time.Duration(r.CancelWindowHours) * time.Hour
}

func (r ReservationConfig) LockTimeout() time.Duration {
	return time.Duration(r.LockTimeoutMS) * time.Millisecond
}

func (r ReservationConfig) RetryInitial() time.Duration {
	return time.Duration(r.RetryInitialMS) * time.Millisecond
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("CANCEL_WINDOW_HOURS", 24)
	viper.SetDefault("LOCK_TIMEOUT_MS", 3000)
	viper.SetDefault("CONTENTION_RETRIES", 3)
	viper.SetDefault("RETRY_INITIAL_MS", 100)
	viper.SetDefault("LOG_PATH", "logs/")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Reservation: ReservationConfig{
			CancelWindowHours: viper.GetInt("CANCEL_WINDOW_HOURS"),
			LockTimeoutMS:     viper.GetInt("LOCK_TIMEOUT_MS"),
			ContentionRetries: viper.GetInt("CONTENTION_RETRIES"),
			RetryInitialMS:    viper.GetInt("RETRY_INITIAL_MS"),
		},
	}

	return config, nil
}
