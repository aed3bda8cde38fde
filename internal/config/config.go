package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	pkgcfg "github.com/Skotchmaster/course_market/pkg/config"
)

type Config struct {
	ServiceName  string
	Port         string
	DatabaseURL  string
	LogLevel     string
	JWTSecret    []byte
	TokenTTL     time.Duration
	KafkaBrokers []string
	ES           ESConfig
	S3           S3Config
}

type ESConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	URLTTL    time.Duration
}

// FromEnv reads the process environment without any required checks.
func FromEnv() Config {
	return Config{
		ServiceName:  pkgcfg.EnvDefault("SERVICE_NAME", "course_market"),
		Port:         pkgcfg.EnvDefault("SERVER_PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		LogLevel:     pkgcfg.EnvDefault("LOG_LEVEL", "info"),
		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:     pkgcfg.EnvDurationDefault("TOKEN_TTL", 30*24*time.Hour),
		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),
		ES: ESConfig{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    pkgcfg.EnvDefault("ES_INDEX", "courses"),
		},
		S3: S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    pkgcfg.EnvDefault("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			URLTTL:    pkgcfg.EnvDurationDefault("UPLOAD_URL_TTL", 15*time.Minute),
		},
	}
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := FromEnv()

	pkgcfg.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgcfg.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	return cfg
}
