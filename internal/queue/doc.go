// Package queue persists render jobs in SQLite and defines their
// lifecycle: pending jobs wait in one of four lanes, a worker marks them
// running, streams captured tool output into the record, and finishes them
// completed or failed. Output reads are offset-based so pollers can drain
// incrementally without mutating the job.
package queue
