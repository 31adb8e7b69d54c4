package worker

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"moviola/internal/logging"
	"moviola/internal/queue"
)

// flushThreshold is the number of buffered lines that triggers a write.
const flushThreshold = 16

// outputSink batches captured tool output into the job record so pollers
// see it while the job is still running, without a DB write per line.
type outputSink struct {
	store  *queue.Store
	jobID  int64
	logger *slog.Logger

	mu    sync.Mutex
	buf   strings.Builder
	lines int
}

func newOutputSink(store *queue.Store, jobID int64, logger *slog.Logger) *outputSink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &outputSink{store: store, jobID: jobID, logger: logger}
}

func (s *outputSink) Line(text string) {
	s.mu.Lock()
	s.buf.WriteString(text)
	s.buf.WriteByte('\n')
	s.lines++
	shouldFlush := s.lines >= flushThreshold
	s.mu.Unlock()

	if shouldFlush {
		s.flush()
	}
}

// Close flushes any buffered output.
func (s *outputSink) Close() {
	s.flush()
}

func (s *outputSink) flush() {
	s.mu.Lock()
	if s.buf.Len() == 0 {
		s.mu.Unlock()
		return
	}
	chunk := s.buf.String()
	s.buf.Reset()
	s.lines = 0
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.AppendOutput(ctx, s.jobID, chunk); err != nil {
		s.logger.Warn("failed to append job output", logging.Error(err))
	}
}
