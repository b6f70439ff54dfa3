// Package matching pairs hedge fills with the LOB snapshots they most
// plausibly traded against.
//
// For each fill the engine searches the snapshots in a window around the
// fill time. It first looks for a level quoting exactly the execution price
// with enough size, then for one within a tick. Levels are scanned
// shallowest first and snapshots in time order within each level, so the
// shallowest qualifying level wins even when a deeper one is earlier.
package matching
