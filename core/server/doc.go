// Package server holds the HTTP server configuration.
//
// The Fiber application itself is assembled in the start command; this
// package only defines the configuration section so that core/config can
// compose it into the application Config.
package server
