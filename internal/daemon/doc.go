// Package daemon coordinates the long-running Moviola process.
//
// It wires configuration, the job store, and the worker manager into a single
// lifecycle with flock-based locking to prevent multiple instances, and hosts
// the optional HTTP API. The daemon exposes queue maintenance helpers and the
// submission path shared by the IPC and HTTP surfaces.
//
// Keep orchestration logic here: individual job kinds live in their own
// packages while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
