// Package config handles configuration loading, parsing, and validation
// from a config file and SCRY_-prefixed environment variables. It provides
// type-safe access to the settings of the HTTP server, the database, token
// verification, due selection, session tally storage and the scheduling engine.
package config
