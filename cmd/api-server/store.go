package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"library-admin/internal/config"
	"library-admin/internal/shared/storage"
	"library-admin/internal/shared/storage/dbutil"
	"library-admin/internal/shared/storage/driver/postgres"
	"library-admin/internal/shared/storage/driver/sqlite"
	"library-admin/internal/shared/storage/mongostore"
	"library-admin/internal/shared/storage/repository"
)

// openStore 按配置的驱动打开持久化存储，SQL 驱动会自动建表
func openStore(cfg *config.Config) (storage.PersistentStore, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongoDB:
		return mongostore.NewStore(cfg.DatabaseURL, cfg.DatabaseName)
	case config.DriverSQLite:
		if err := ensureSQLiteDir(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		db, err := sqlite.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return migrated(db, sqlite.NewDialect())
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return migrated(db, postgres.NewDialect())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// migrated 执行自动建表后包装为通用 SQL 存储
func migrated(db *sql.DB, dialect dbutil.Dialect) (storage.PersistentStore, error) {
	if err := dialect.AutoMigrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return repository.NewStore(db, dialect), nil
}

// ensureSQLiteDir 创建 sqlite 文件所在目录
func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(strings.TrimPrefix(dsn, "file:"), "sqlite:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
