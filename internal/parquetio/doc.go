// Package parquetio reads and writes flat parquet tables.
//
// The LOB and hedge files come from an external vendor with schemas this
// pipeline does not control, so reading is by column name through a Record
// with lenient typed accessors. Writing takes an explicit field list; every
// field is nullable and NaN floats are stored as nulls.
package parquetio
