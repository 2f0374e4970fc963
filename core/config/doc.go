// Package config loads and composes the application configuration.
//
// Configuration is assembled from three layers, in increasing precedence:
//
//  1. Defaults declared as 'default' struct tags on each section's Config
//  2. A .env file in the working directory, if present
//  3. Environment variables, mapped by section (e.g. DATABASE_HOST,
//     IMPORT_MINIMUM_STARS)
//
// Each core package owns its own Config struct; this package only composes
// them. The Import section carries the account-level snapshot import
// defaults, which individual import requests may override.
package config
