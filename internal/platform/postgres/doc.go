// Package postgres implements the store interfaces on PostgreSQL through the
// pgx database/sql driver, and embeds the goose migrations that create the
// study schema.
package postgres
