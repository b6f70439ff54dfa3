// Package hedge loads and cleans hedge-order execution reports.
//
// Files are FIX-style execution reports, one row per report, keyed by
// CLORDID. Only TRANSACTTIME is required; every filter that depends on an
// optional column is skipped when that column is absent.
package hedge
