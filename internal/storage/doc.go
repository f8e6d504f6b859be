// Package storage keeps a bounded history of model outputs (insights and
// suggestions) so the dashboard can show what was generated earlier.
//
// Two drivers are available:
//   - "file": JSON Lines file, compacted when it grows past a multiple of the retention limit
//   - "sqlite": SQLite database through the pure-Go modernc driver
//
// Tasks and schedules are never stored here.
package storage
