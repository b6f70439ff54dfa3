// Package writer persists matched hedge fills.
//
// Sinks:
//   - Parquet file per RIC, falling back to CSV when the parquet write fails
//   - PostgreSQL table (optional), bulk loaded with COPY
//
// All sinks are append-only. The file sinks carry the full snapshot (levels
// and features); the database carries the match columns only.
package writer
