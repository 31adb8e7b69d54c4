package testsupport

import (
	"context"
	"testing"

	"moviola/internal/config"
	"moviola/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustEnqueue inserts a job for tests using the provided store.
func MustEnqueue(t testing.TB, store *queue.Store, kind queue.Kind, project string, params queue.Params) *queue.Job {
	t.Helper()

	job, err := store.Enqueue(context.Background(), kind, project, params)
	if err != nil {
		t.Fatalf("enqueue %s job: %v", kind, err)
	}
	return job
}
