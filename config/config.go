package config

import (
	"fmt"
	"os"
	"time"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	HTTP          HTTPConfig          `koanf:"http"`
	Store         StoreConfig         `koanf:"store"`
	Mongo         MongoConfig         `koanf:"mongo"`
	Auth          AuthConfig          `koanf:"auth"`
	RateLimit     RateLimitConfig     `koanf:"ratelimit"`
	Announcements AnnouncementsConfig `koanf:"announcements"`
	Log           LogConfig           `koanf:"log"`
	// SeedUsers are created at startup; meant for the memory driver.
	SeedUsers []SeedUser `koanf:"seed_users"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type StoreConfig struct {
	Driver string `koanf:"driver"`
}

type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type AuthConfig struct {
	SigningKey string        `koanf:"signing_key"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
}

type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

type AnnouncementsConfig struct {
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type SeedUser struct {
	Login        string `koanf:"login"`
	PasswordHash string `koanf:"password_hash"`
	Email        string `koanf:"email"`
	Nickname     string `koanf:"nickname"`
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required for the mongo driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	for _, u := range c.SeedUsers {
		if u.Login == "" || u.PasswordHash == "" {
			return fmt.Errorf("seed users need login and password_hash")
		}
	}
	return nil
}

func GetSecret(key string) (string, error) {
	val, exist := os.LookupEnv(key)
	if exist {
		return val, nil
	}
	return "", fmt.Errorf("no env variable with key %v", key)
}
