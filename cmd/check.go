package cmd

import (
	"fmt"

	"account-mirror/core/config"
	"account-mirror/core/database"
	"account-mirror/core/logger"
	"account-mirror/feature/profile/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// checkCmd verifies the mirror schema without mutating it. Useful before
// pointing a new binary at an existing database.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the mirror database schema",
	Long: `Checks that every mirror table exists and reports its columns.
No migrations are run; use 'start' or 'import' to create missing tables.`,
	RunE: runCheck,
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	tables := make([]string, 0, len(models.All()))
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("failed to parse model: %w", err)
		}
		tables = append(tables, stmt.Schema.Table)
	}

	missing := database.MissingTables(db, tables...)
	if len(missing) > 0 {
		l.Warn("Schema incomplete", zap.Strings("missing_tables", missing))
		return fmt.Errorf("schema incomplete: %d table(s) missing", len(missing))
	}

	for _, table := range tables {
		columns, err := database.GetTableColumns(db, table)
		if err != nil {
			return err
		}
		l.Info("Table present",
			zap.String("table", table),
			zap.Int("columns", len(columns)))
	}

	l.Info("Schema complete", zap.Int("tables", len(tables)))
	return nil
}
