// Package database provides the PostgreSQL connection pool used by the
// optional match sink.
package database
