package cmd

import (
	"context"
	"fmt"
	"os"

	"account-mirror/core/config"
	"account-mirror/core/database"
	"account-mirror/core/logger"
	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/snapshot"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the import command
	importAccount        string
	importDeleteMissing  bool
	importKeepExtraRunes bool
)

// importCmd imports a snapshot file directly, without going through the
// HTTP surface. Useful for bootstrapping a mirror from an exported file.
var importCmd = &cobra.Command{
	Use:   "import <snapshot.json>",
	Short: "Import an account snapshot from a file",
	Long: `Imports a full account snapshot from a JSON file.

The account is created if it does not exist yet. The import runs
synchronously and prints a per-stage report when done.

Examples:
  # Import into account "main"
  import --account main snapshot.json

  # Import and delete everything absent from the snapshot
  import --account main --delete-missing snapshot.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importAccount, "account", "", "Account name to import into (required)")
	importCmd.Flags().BoolVar(&importDeleteMissing, "delete-missing", false, "Delete monsters, runes and crafts absent from the snapshot")
	importCmd.Flags().BoolVar(&importKeepExtraRunes, "keep-extra-runes", false, "With --delete-missing, keep runes absent from the snapshot")
	_ = importCmd.MarkFlagRequired("account")

	RootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	// Read and decode the snapshot before touching the database
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read snapshot file: %w", err)
	}
	payload, err := snapshot.Decode(raw)
	if err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Find or create the target account
	var account models.Account
	if err := db.Where(models.Account{Name: importAccount}).FirstOrCreate(&account).Error; err != nil {
		return fmt.Errorf("failed to resolve account %q: %w", importAccount, err)
	}

	opts := snapshot.OptionsFromConfig(cfg.Import)
	if importDeleteMissing {
		opts.DeleteMissingMonsters = true
		opts.DeleteMissingRunes = !importKeepExtraRunes
	}

	l.Info("Starting snapshot import",
		zap.String("account", account.Name),
		zap.Uint("account_id", account.ID),
	)

	report, err := snapshot.NewReconciler(db, l, opts).Run(ctx, account.ID, payload)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	printImportReport(l, report)
	return nil
}

// printImportReport logs the per-stage outcome of an import.
func printImportReport(l *zap.Logger, report *snapshot.ImportReport) {
	stages := []struct {
		name   string
		counts snapshot.StageCounts
	}{
		{"materials", report.Materials},
		{"shrine", report.Shrine},
		{"buildings", report.Buildings},
		{"runes", report.Runes},
		{"artifacts", report.Artifacts},
		{"monsters", report.Monsters},
		{"pieces", report.Pieces},
		{"crafts", report.Crafts},
		{"rta", report.RTA},
		{"sweep", report.Sweep},
	}
	for _, s := range stages {
		l.Info("Stage result",
			zap.String("stage", s.name),
			zap.Int("created", s.counts.Created),
			zap.Int("updated", s.counts.Updated),
			zap.Int("unchanged", s.counts.Unchanged),
			zap.Int("deleted", s.counts.Deleted),
			zap.Int("failed", s.counts.Failed),
		)
	}
	for _, skip := range report.Skips {
		l.Warn("Skipped entry",
			zap.String("family", skip.Family),
			zap.Int64("external_id", skip.ExternalID),
			zap.String("reason", skip.Reason),
		)
	}
}
