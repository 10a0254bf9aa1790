// Package db opens the snapshot database and runs migrations. File DSNs
// use the CGo-free sqlite driver; libsql:// and wss:// DSNs go through
// the libsql connector so snapshots can target a remote database.
package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/f1r3fly-io/rholang-analyzer/models"
)

// Connect opens dsn and migrates the snapshot schema.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	config := &gorm.Config{}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	} else {
		config.Logger = logger.Default.LogMode(logger.Silent)
	}

	var dialector gorm.Dialector
	if isURL(dsn) {
		var connector driver.Connector
		var err error
		if token := os.Getenv("RHOLANG_ANALYZER_LIBSQL_AUTH_TOKEN"); token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("creating libsql connector: %w", err)
		}
		dialector = gormsqlite.New(gormsqlite.Config{
			DriverName: "libsql",
			Conn:       sql.OpenDB(connector),
			DSN:        dsn,
		})
	} else {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	}

	conn, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.AutoMigrate(&models.Snapshot{}, &models.SymbolRow{}, &models.ContractRow{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return conn, nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "libsql://") ||
		strings.HasPrefix(dsn, "wss://") ||
		strings.HasPrefix(dsn, "https://")
}
