// Package lob loads limit-order-book snapshots and derives public features.
//
// Source files hold one row per snapshot with the columns
// "Alias Underlying RIC", "Date-Time" and L{i}-{Ask,Bid}{Price,Size} for
// i = 1..10. A file's depth is the number of consecutive levels, from L1,
// that have all four columns; deeper levels are left NaN.
package lob
