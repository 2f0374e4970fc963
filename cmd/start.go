package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"account-mirror/core/config"
	"account-mirror/core/database"
	"account-mirror/core/jobs"
	"account-mirror/core/loader"
	"account-mirror/core/logger"
	"account-mirror/core/middleware/auth"
	"account-mirror/core/middleware/rayid"
	"account-mirror/core/storage"
	"account-mirror/feature/profile"
	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/snapshot"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the account mirror server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(models.All()...); err != nil {
			logg.Fatal("Failed to migrate database", zap.Error(err))
		}

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
			BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		})

		// 5. Initialize Snapshot Archive (Optional)
		var archive storage.Client
		if cfg.Storage.Enabled {
			archive, err = storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			logg.Info("Snapshot archiving enabled", zap.String("bucket", cfg.Storage.Bucket))
		}

		// 6. Initialize Job Runner
		runner := jobs.NewRunner(logg)

		// 7. Initialize Feature Loader
		mgr := loader.NewManager()

		// Register Features
		defaults := snapshot.OptionsFromConfig(cfg.Import)
		mgr.Register(profile.NewFeature(db, logg, runner, defaults, archive, cfg.Storage.Bucket))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			// Log error if happened
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Auth (Protect API)
		app.Use(auth.New(cfg.Server.ApiKey))

		// 8. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
		// Let in-flight imports finish before exiting.
		runner.Wait()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
