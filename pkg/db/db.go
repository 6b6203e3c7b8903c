package db

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

const (
	DBTypeFile     = "file"
	DBTypeMemory   = "memory"
	DBTypePostgres = "postgres"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// GetInstance returns the process-wide connection, opening and migrating it on
// first use. Later calls ignore the dialector.
func GetInstance(dialector gorm.Dialector) *DB {
	once.Do(func() {
		inst, err := Open(dialector)
		if err != nil {
			common.GetLogger().Fatal("Failed to open database", zap.Error(err))
		}
		instance = inst
	})
	return instance
}

// Open connects, migrates and tunes a new connection pool. Callers own the result.
func Open(dialector gorm.Dialector) (*DB, error) {
	logger := common.GetLogger()

	conn, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	logger.Info("Connected to database with dialector", zap.String("dialector", dialector.Name()))

	if d, ok := dialector.(*sqlite.Dialector); ok {
		if err := tuneSqlite(conn, d.DSN); err != nil {
			return nil, err
		}
	}

	if err := conn.AutoMigrate(models.AllModels()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("Database migration completed")

	return &DB{Conn: conn}, nil
}

func (d *DB) Close() error {
	sqlDB, err := d.Conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func tuneSqlite(conn *gorm.DB, dsn string) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if isMemoryDSN(dsn) {
		// shared-cache memory databases report table locks instead of waiting,
		// so writers are funnelled through one connection.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("enable sqlite foreign key support: %w", err)
	}
	if err := conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return fmt.Errorf("set sqlite journal mode: %w", err)
	}
	if err := conn.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return fmt.Errorf("set sqlite busy timeout: %w", err)
	}
	return nil
}

// UseDialectorFromEnv picks the store named by IOT_DB_TYPE, defaulting to a sqlite file.
func UseDialectorFromEnv() gorm.Dialector {
	return UseDialector(os.Getenv(common.EnvKeyIOTDBType), "", "")
}

// UseDialector picks the store for a configured type. An empty path or dsn
// falls back to the environment.
func UseDialector(dbType, path, dsn string) gorm.Dialector {
	switch dbType {
	case DBTypeMemory:
		return UseMemorySqliteDialector()
	case DBTypePostgres:
		if dsn == "" {
			return UsePostgresDialector()
		}
		return postgres.Open(dsn)
	default:
		if path == "" {
			return UseSqliteDialector()
		}
		return sqlite.Open(path)
	}
}

func UseSqliteDialector() gorm.Dialector {
	var dbPath string
	var found bool
	if dbPath, found = os.LookupEnv(common.EnvKeyIOTDbPath); !found {
		dbPath = "iaq.db"
	}
	return sqlite.Open(dbPath)
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}

// UseIsolatedMemorySqliteDialector returns a named in-memory database that no
// other dialector shares. It lives as long as its pool keeps a connection open.
func UseIsolatedMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
}

func UsePostgresDialector() gorm.Dialector {
	dsn, found := os.LookupEnv(common.EnvKeyIOTDbDSN)
	if !found {
		dsn = "host=localhost user=postgres password=postgres dbname=iaq port=5432 sslmode=disable"
	}
	return postgres.Open(dsn)
}
