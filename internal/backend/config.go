package backend

import (
	"fmt"

	"fintool/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	c := Config{
		Source: SourceType(appConfig.RecordSource),
		Export: ExportType(appConfig.ExportBackend),

		DataDirectory:   appConfig.DataDir,
		SQLiteDBPath:    appConfig.SQLiteDBPath,
		ExcelOutputPath: appConfig.ExcelOutputPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Source.IsValid() {
		return fmt.Errorf("invalid record source: %s", c.Source)
	}
	if !c.Export.IsValid() {
		return fmt.Errorf("invalid export backend: %s", c.Export)
	}

	switch c.Source {
	case SQLiteSource:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite records")
		}
	case JSONSource:
		// DataDirectory defaults to "finance_data" if empty
	}

	switch c.Export {
	case SheetsExport:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets export")
		}
	case ExcelExport:
		if c.ExcelOutputPath == "" {
			return fmt.Errorf("Excel output path is required for excel export")
		}
	case MemoryExport:
	}

	return nil
}

// SourceTypeStrings returns all valid record source names
func SourceTypeStrings() []string {
	return []string{JSONSource.String(), SQLiteSource.String()}
}

// ExportTypeStrings returns all valid export backend names
func ExportTypeStrings() []string {
	return []string{MemoryExport.String(), SheetsExport.String(), ExcelExport.String()}
}
