package slideshow_test

import (
	"context"
	"strings"
	"testing"

	"moviola/internal/queue"
	"moviola/internal/slideshow"
	"moviola/internal/testsupport"
)

type fakeRunner struct {
	name string
	args []string
	runs int
}

func (r *fakeRunner) Run(_ context.Context, name string, args []string, onLine func(string)) error {
	r.name = name
	r.args = append([]string(nil), args...)
	r.runs++
	if onLine != nil {
		onLine("stitching")
	}
	return nil
}

type lineSink struct {
	lines []string
}

func (s *lineSink) Line(text string) { s.lines = append(s.lines, text) }

func TestExecuteBuildsToolArgs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	handler := slideshow.NewBuilder(cfg, runner)

	job := &queue.Job{
		ID:         1,
		Project:    "gala",
		Kind:       queue.KindSlideshow,
		ParamsJSON: `{"files":["a.jpg","b.jpg"],"duration":2.5,"outputFile":"show.mp4"}`,
	}
	if err := handler.Execute(context.Background(), job, &lineSink{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if runner.name != cfg.Tools.Slideshow {
		t.Fatalf("expected slideshow tool, got %q", runner.name)
	}
	want := "--project gala --duration 2.5 --outfile show.mp4 a.jpg b.jpg"
	if strings.Join(runner.args, " ") != want {
		t.Fatalf("unexpected args %v, want %q", runner.args, want)
	}
}

func TestExecuteAppliesDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	handler := slideshow.NewBuilder(cfg, runner)

	job := &queue.Job{ID: 1, Project: "gala", Kind: queue.KindSlideshow, ParamsJSON: `{"files":["a.jpg"]}`}
	if err := handler.Execute(context.Background(), job, &lineSink{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "--project gala --duration 5 --outfile slideshow.mp4 a.jpg"
	if strings.Join(runner.args, " ") != want {
		t.Fatalf("unexpected args %v, want %q", runner.args, want)
	}
}

func TestExecuteRequiresImages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	handler := slideshow.NewBuilder(cfg, runner)

	job := &queue.Job{ID: 1, Project: "gala", Kind: queue.KindSlideshow}
	err := handler.Execute(context.Background(), job, &lineSink{})
	if err == nil || !strings.Contains(err.Error(), "at least one image") {
		t.Fatalf("expected image requirement error, got %v", err)
	}
	if runner.runs != 0 {
		t.Fatal("expected no tool invocation")
	}
}
