package persistence

import (
	"database/sql"
	"errors"
	"os"
	"strings"
)

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv reads DATABASE_URL in the form
// "<driver>://<driver-args>", e.g. "mysql://root:root@(127.0.0.1:3306)/lexgate?parseTime=True&loc=Local".
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	databaseURL := os.ExpandEnv(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return nil, errors.New("environment variable DATABASE_URL is not set")
	}
	idx := strings.Index(databaseURL, "://")
	if idx <= 0 || idx+3 >= len(databaseURL) {
		return nil, errors.New("invalid DATABASE_URL: " + databaseURL)
	}
	return &DatabaseConfig{DriverType: databaseURL[0:idx], DriverArgs: databaseURL[idx+3:]}, nil
}

// PrepareMysqlDatabase creates the database named in driverArgs when absent.
func PrepareMysqlDatabase(driverArgs string) error {
	idx := strings.LastIndex(driverArgs, "/")
	if idx < 0 {
		return errors.New("invalid mysql driver args: " + driverArgs)
	}
	serverArgs := driverArgs[0:idx] + "/"
	nameAndOptions := driverArgs[idx+1:]
	databaseName := nameAndOptions
	if optIdx := strings.Index(nameAndOptions, "?"); optIdx >= 0 {
		databaseName = nameAndOptions[0:optIdx]
	}
	if databaseName == "" {
		return errors.New("database name is not found in driver args")
	}

	db, err := sql.Open("mysql", serverArgs)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` CHARACTER SET utf8mb4")
	return err
}
