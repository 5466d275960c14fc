package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"KCMS-gateway/internal/platform/config"
)

const driverName = "mysql"

func DSN(c config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=Local&charset=utf8mb4",
		c.Username, c.Password, c.Host, c.Port, c.DBName)
}

func Connect(c config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(driverName, DSN(c))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// ゲートウェイ用途なので小さめのプール
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
