package config

import (
	"reflect"
	"strings"

	"account-mirror/core/database"
	"account-mirror/core/logger"
	"account-mirror/core/server"
	"account-mirror/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the snapshot archive (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Import holds the default snapshot import options.
	Import ImportConfig `mapstructure:"import"`
}

// ImportConfig holds the account-configurable snapshot import defaults.
// Per-request options override these values.
type ImportConfig struct {
	// ClearProfile wipes the account's mirror before every import.
	ClearProfile bool `mapstructure:"clear_profile" default:"false"`
	// MinimumStars excludes monsters whose base grade is below this value.
	MinimumStars int `mapstructure:"minimum_stars" default:"1"`
	// IgnoreSilver excludes monsters that cannot awaken.
	IgnoreSilver bool `mapstructure:"ignore_silver" default:"false"`
	// IgnoreMaterial excludes material-archetype monsters.
	IgnoreMaterial bool `mapstructure:"ignore_material" default:"false"`
	// ExceptWithRunes reinstates excluded monsters that have equipment.
	ExceptWithRunes bool `mapstructure:"except_with_runes" default:"true"`
	// ExceptLightDark reinstates excluded Light/Dark monsters.
	ExceptLightDark bool `mapstructure:"except_light_dark" default:"true"`
	// ExceptFusionIngredient reinstates excluded fusion-food monsters.
	ExceptFusionIngredient bool `mapstructure:"except_fusion_ingredient" default:"true"`
	// DeleteMissingMonsters removes monsters absent from the snapshot.
	DeleteMissingMonsters bool `mapstructure:"delete_missing_monsters" default:"false"`
	// DeleteMissingRunes removes runes, artifacts and crafts absent from
	// the snapshot.
	DeleteMissingRunes bool `mapstructure:"delete_missing_runes" default:"false"`
	// LockMonsters applies the payload's lock list to imported monsters.
	LockMonsters bool `mapstructure:"lock_monsters" default:"true"`
	// DefaultPriority is assigned to newly created monsters.
	DefaultPriority string `mapstructure:"default_priority" default:""`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values
// in Viper based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
