/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-08 17:16:56
 * @FilePath: \inventory-app\backend\internal\infra\client\mysql_client.go
 * @LastEditTime: 2025-10-23 15:02:27
 */
package client

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"inventory-app/backend/internal/config"

	mysqlDSN "github.com/go-sql-driver/mysql"
	mysqlDriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const defaultMySQLParams = "charset=utf8mb4&parseTime=true&loc=Local"

// validateMySQLConfig 校验必填字段。
func validateMySQLConfig(cfg config.MySQLConfig) error {
	var missing []string
	if strings.TrimSpace(cfg.Host) == "" {
		missing = append(missing, "MYSQL_HOST")
	}
	if strings.TrimSpace(cfg.Username) == "" {
		missing = append(missing, "MYSQL_USERNAME")
	}
	if strings.TrimSpace(cfg.Database) == "" {
		missing = append(missing, "MYSQL_DATABASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("mysql config incomplete: %s", strings.Join(missing, ", "))
	}
	return nil
}

// BuildMySQLDSN 拼接 DSN 并交给驱动解析校验，返回规范化后的 DSN。
func BuildMySQLDSN(cfg config.MySQLConfig) (string, error) {
	if err := validateMySQLConfig(cfg); err != nil {
		return "", err
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	params := strings.TrimPrefix(strings.TrimSpace(cfg.Params), "?")
	if params == "" {
		params = defaultMySQLParams
	}

	raw := fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		cfg.Username,
		cfg.Password,
		net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		cfg.Database,
		params,
	)
	parsed, err := mysqlDSN.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if !parsed.ParseTime {
		return "", errors.New("mysql params must enable parseTime")
	}
	return parsed.FormatDSN(), nil
}

// OpenMySQL 创建 GORM MySQL 连接并配置连接池。
func OpenMySQL(cfg config.MySQLConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	dsn, err := BuildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	if gormCfg == nil {
		gormCfg = &gorm.Config{Logger: NewGormLogger()}
	}

	db, err := gorm.Open(mysqlDriver.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open gorm mysql: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetConnMaxLifetime(60 * time.Minute)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
