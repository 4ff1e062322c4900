package main

import (
	"database/sql"
	devenv "exchangestats/dev/env"
	"exchangestats/internal/sink/db"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const devDatabase = "exchangestats.db"

func createDb(filename, schema string) error {
	dbPath, err := devenv.ResolvePath(filepath.Join(devenv.StatePrefix, filename))
	if err != nil {
		return err
	}

	_, err = os.Stat(dbPath)
	if err == nil {
		fmt.Println("database already created at", dbPath)
		return nil
	}

	fmt.Println("creating database at", dbPath)
	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer database.Close()
	_, err = database.Exec(schema)
	return err
}

func CreateEmptyDBs() error {
	return createDb(devDatabase, db.Schema)
}

func PrintConfigLocations() {
	slog.Info(
		"to store crawls in the dev database, point the database at it in exchangestats.local.json5",
		"example", fmt.Sprintf(`{database: {file: "%s/%s"}}`, devenv.StatePrefix, devDatabase),
	)
}
