package render_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moviola/internal/project"
	"moviola/internal/queue"
	"moviola/internal/render"
	"moviola/internal/testsupport"
)

type fakeRunner struct {
	calls [][]string
}

func (r *fakeRunner) Run(_ context.Context, name string, args []string, onLine func(string)) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	if onLine != nil {
		onLine("rendering")
	}
	return nil
}

type lineSink struct {
	lines []string
}

func (s *lineSink) Line(text string) { s.lines = append(s.lines, text) }

func renderJob(paramsJSON string) *queue.Job {
	return &queue.Job{ID: 1, Project: "gala", Kind: queue.KindRender, ParamsJSON: paramsJSON}
}

func TestExecutePitivi(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	handler := render.NewRenderer(cfg, runner)

	if err := handler.Execute(context.Background(), renderJob(`{}`), &lineSink{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one renderer call, got %d", len(runner.calls))
	}
	edlPath := filepath.Join(cfg.LibraryDir, "gala", "edit", cfg.Render.EDLFile)
	outputPath := filepath.Join(cfg.LibraryDir, "gala", "output", cfg.Render.OutputFile)
	want := []string{cfg.Tools.PitiviRender, edlPath, outputPath}
	if strings.Join(runner.calls[0], " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected call %v, want %v", runner.calls[0], want)
	}
}

func TestExecuteRejectsUnknownMode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := render.NewRenderer(cfg, &fakeRunner{})

	err := handler.Execute(context.Background(), renderJob(`{"mode":"avid"}`), &lineSink{})
	if err == nil || !strings.Contains(err.Error(), `unknown render mode "avid"`) {
		t.Fatalf("expected unknown mode error, got %v", err)
	}
}

func TestExecuteCinelerraWritesBatchList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	handler := render.NewRenderer(cfg, runner)

	job := renderJob(`{"mode":"cinelerra","outputFile":"final.mp4"}`)
	if err := handler.Execute(context.Background(), job, &lineSink{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	batchPath := filepath.Join(cfg.LibraryDir, "gala", "edit", render.BatchFileName)
	data, err := os.ReadFile(batchPath)
	if err != nil {
		t.Fatalf("expected batch list written: %v", err)
	}
	if !strings.Contains(string(data), "final.mp4") {
		t.Fatalf("batch list missing output path:\n%s", data)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected one cin call, got %d", len(runner.calls))
	}
	want := []string{cfg.Tools.Cinelerra, "-r", batchPath}
	if strings.Join(runner.calls[0], " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected call %v, want %v", runner.calls[0], want)
	}
}

func TestExecuteCinelerraProxyRewritesEDL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	handler := render.NewRenderer(cfg, runner)

	layout, err := project.NewLayout(cfg.LibraryDir, "gala")
	if err != nil {
		t.Fatalf("NewLayout failed: %v", err)
	}
	if err := layout.Ensure(layout.ProxyDir()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if err := layout.WriteProxyFactor(0.25); err != nil {
		t.Fatalf("WriteProxyFactor failed: %v", err)
	}
	proxyEDL := filepath.Join(layout.ProxyDir(), "cut.xml")
	if err := os.WriteFile(proxyEDL, []byte("<edl/>"), 0o644); err != nil {
		t.Fatalf("write proxy EDL: %v", err)
	}

	job := renderJob(`{"mode":"cinelerra","edlFile":"cut.xml","proxyEdl":true}`)
	if err := handler.Execute(context.Background(), job, &lineSink{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	edlPath := filepath.Join(layout.EditDir(), "cut.xml")
	staged, err := os.ReadFile(edlPath)
	if err != nil {
		t.Fatalf("expected proxy EDL staged into edit/: %v", err)
	}
	if string(staged) != "<edl/>" {
		t.Fatalf("unexpected staged EDL %q", staged)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("expected proxychange then cin, got %d calls", len(runner.calls))
	}
	rewrite := runner.calls[0]
	if rewrite[0] != cfg.Tools.ProxyChange || rewrite[1] != edlPath {
		t.Fatalf("unexpected proxychange call %v", rewrite)
	}
	joined := strings.Join(rewrite, " ")
	for _, fragment := range []string{
		"-f " + layout.ProxyDir() + "/(.*)$",
		"-t " + layout.EditDir() + `/\1`,
		"-s 0.25",
		"-v -a",
	} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("proxychange call missing %q: %v", fragment, rewrite)
		}
	}
	if runner.calls[1][0] != cfg.Tools.Cinelerra {
		t.Fatalf("expected cin call second, got %v", runner.calls[1])
	}
}

func TestBuildBatchList(t *testing.T) {
	data, err := render.BuildBatchList("/lib/gala/edit/cut.xml", "/lib/gala/output/final.mp4")
	if err != nil {
		t.Fatalf("BuildBatchList failed: %v", err)
	}
	doc := string(data)
	for _, fragment := range []string{
		`<JOBS WARN="1">`,
		`EDL_PATH="/lib/gala/edit/cut.xml"`,
		`SRC="/lib/gala/output/final.mp4"`,
		"PATH /lib/gala/output/final.mp4",
		"VIDEO_CODEC h264.mp4",
		"FF_VIDEO_OPTIONS crf=17",
		`FFORMAT="mp4"`,
		`RATE="48000"`,
	} {
		if !strings.Contains(doc, fragment) {
			t.Fatalf("batch list missing %q:\n%s", fragment, doc)
		}
	}
	if !strings.HasPrefix(doc, "<?xml") {
		t.Fatalf("expected XML header, got %q", doc[:20])
	}
}
