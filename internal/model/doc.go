// Package model defines shared data types used across the hedge-LOB pipeline.
//
// Conventions:
//   - Prices and sizes: float64, NaN where the source value is null or absent
//   - Timestamps: time.Time in UTC; zone-naive source data keeps its wall clock
//   - Book levels: 1-based in names and reports, 0-based in arrays
package model
