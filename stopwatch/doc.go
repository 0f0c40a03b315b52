// Package stopwatch records named timing checkpoints ("laps") and derives
// elapsed-time statistics from them.
//
// Usage:
//
//	timer := stopwatch.New()
//	timer.Lap("bootstrap: start")
//	// ...
//	timer.Lap("shutdown")
//
//	report := timer.Statistics()
//	data, _ := json.Marshal(report)
//
// A LapTimer is not safe for concurrent use; it is owned by a single
// application lifecycle.
package stopwatch
