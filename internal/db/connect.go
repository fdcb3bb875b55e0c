package db

import (
	"fmt"
	"net"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/zulandar/multidb/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the MySQL DSN for the metadata store. An empty database selects
// none, which is what CREATE DATABASE needs.
func DSN(sc config.StoreConfig, database string) string {
	c := gomysql.NewConfig()
	c.User = sc.User
	c.Passwd = sc.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port))
	c.DBName = database
	c.ParseTime = true
	return c.FormatDSN()
}

// Connect opens a GORM connection to the metadata database.
func Connect(sc config.StoreConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(DSN(sc, sc.Database)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", sc.Host, sc.Port, sc.Database, err)
	}
	return db, nil
}

// ConnectAdmin opens a GORM connection to the metadata server without
// selecting a database, used for CREATE DATABASE operations.
func ConnectAdmin(sc config.StoreConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(DSN(sc, "")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: admin connect to %s:%d: %w", sc.Host, sc.Port, err)
	}
	return db, nil
}

// DropDatabase drops the named database if it exists.
func DropDatabase(adminDB *gorm.DB, name string) error {
	sql := fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", name)
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: drop database %s: %w", name, err)
	}
	return nil
}

// CreateDatabase creates the named database if it doesn't already exist.
func CreateDatabase(adminDB *gorm.DB, name string) error {
	sql := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: create database %s: %w", name, err)
	}
	return nil
}
