package config

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config carries the process configuration, loaded from the environment
// (a .env file is picked up automatically).
type Config struct {
	DBDriver     string // sqlite or postgres
	DBDSN        string
	RedisAddr    string
	KafkaBrokers string // empty disables the change queue
	Compression  string // snapshot codec: "", gzip, brotli, lz4
}

func LoadConfig() *Config {
	return &Config{
		DBDriver:     envOr("PAGEMINT_DB_DRIVER", "sqlite"),
		DBDSN:        envOr("PAGEMINT_DB_DSN", ".data/pagemint.db"),
		RedisAddr:    envOr("PAGEMINT_REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: os.Getenv("PAGEMINT_KAFKA_BROKERS"),
		Compression:  envOr("PAGEMINT_COMPRESSION", "gzip"),
	}
}

// GetDb opens the configured database.
func GetDb(cnf *Config) *gorm.DB {
	var dialector gorm.Dialector
	switch cnf.DBDriver {
	case "postgres":
		dialector = postgres.Open(cnf.DBDSN)
	default:
		dialector = sqlite.Open(cnf.DBDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to open database: %v", err)
	}
	return db
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
