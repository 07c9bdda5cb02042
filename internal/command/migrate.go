package command

import (
	"fmt"
	"io"

	"fintool/internal/storage"
)

// RunMigrate brings the SQLite schema up to date.
func RunMigrate(dbPath string, out io.Writer) error {
	version, err := storage.RunMigrations(dbPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema at version %d (%s)\n", version, dbPath)
	return nil
}
