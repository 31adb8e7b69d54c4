// Package logs tails the daemon log file for the CLI.
//
// It reads with bounded memory, supports a negative offset for "last N
// lines", and backs the follow mode of `moviola logs -f`. Callers cancel
// the context to stop follow polling.
package logs
