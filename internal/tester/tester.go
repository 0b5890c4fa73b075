package tester

import (
	"os"

	"github.com/pagemint/pagemint/internal/cache"
	"github.com/pagemint/pagemint/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	db     *gorm.DB
	dbPath string
)

// Setup opens a fresh sqlite database in a per-process temp dir, so test
// packages running in parallel do not share a file.
func Setup() {
	_ = os.Setenv("ENV", "test")

	path, err := os.MkdirTemp("", "pagemint-test-")
	if err != nil {
		panic(err)
	}
	dbPath = path

	db, err = gorm.Open(sqlite.Open(dbPath+"/pagemint.db"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	err = model.Migrate(db)
	if err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

func RemoveDBFile() {
	if dbPath == "" {
		return
	}
	err := os.RemoveAll(dbPath)
	if err != nil {
		panic(err)
	}
}

func Redis() *cache.Redis {
	return cache.NewRedis("localhost:6379")
}
