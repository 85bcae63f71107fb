package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMariaDB = "mariadb"
	BackendBolt    = "bolt"
)

type Settings struct {
	StorageBackend string
	CacheRoot      string
	BoltPath       string

	MariaDBDSN      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	ServerPort int

	// Download proxy for origin-restricted fetches.
	APIBaseURL     string
	APIBearerToken string

	RedisAddr     string
	RedisPassword string

	JWTPublicKey string

	ThumbMaxDimension int
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	viper.SetDefault("STORAGE_BACKEND", BackendMariaDB)
	viper.SetDefault("THUMB_MAX_DIMENSION", 320)

	if !viper.IsSet("CACHE_ROOT") {
		return nil, fmt.Errorf("CACHE_ROOT is required")
	}
	if !viper.IsSet("SERVER_PORT") {
		return nil, fmt.Errorf("SERVER_PORT is required")
	}

	backend := viper.GetString("STORAGE_BACKEND")
	switch backend {
	case BackendMariaDB:
		if !viper.IsSet("MARIADB_DSN") {
			return nil, fmt.Errorf("MARIADB_DSN is required with the mariadb backend")
		}
		if !viper.IsSet("MARIADB_MAX_OPEN_CONN") {
			return nil, fmt.Errorf("MARIADB_MAX_OPEN_CONN is required with the mariadb backend")
		}
		if !viper.IsSet("MARIADB_MAX_IDLE_CONNS") {
			return nil, fmt.Errorf("MARIADB_MAX_IDLE_CONNS is required with the mariadb backend")
		}
		if !viper.IsSet("MARIADB_CONN_MAX_LIFETIME") {
			return nil, fmt.Errorf("MARIADB_CONN_MAX_LIFETIME is required with the mariadb backend")
		}
	case BackendBolt:
		if !viper.IsSet("BOLT_PATH") {
			return nil, fmt.Errorf("BOLT_PATH is required with the bolt backend")
		}
	default:
		return nil, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendMariaDB, BackendBolt, backend)
	}

	return &Settings{
		StorageBackend:    backend,
		CacheRoot:         viper.GetString("CACHE_ROOT"),
		BoltPath:          viper.GetString("BOLT_PATH"),
		MariaDBDSN:        viper.GetString("MARIADB_DSN"),
		MaxOpenConns:      viper.GetInt("MARIADB_MAX_OPEN_CONN"),
		MaxIdleConns:      viper.GetInt("MARIADB_MAX_IDLE_CONNS"),
		ConnMaxLifetime:   time.Duration(viper.GetInt("MARIADB_CONN_MAX_LIFETIME")) * time.Second,
		ServerPort:        viper.GetInt("SERVER_PORT"),
		APIBaseURL:        viper.GetString("API_BASE_URL"),
		APIBearerToken:    viper.GetString("API_BEARER_TOKEN"),
		RedisAddr:         viper.GetString("REDIS_ADDR"),
		RedisPassword:     viper.GetString("REDIS_PASSWORD"),
		JWTPublicKey:      viper.GetString("JWT_PUBLIC_KEY"),
		ThumbMaxDimension: viper.GetInt("THUMB_MAX_DIMENSION"),
	}, nil
}
