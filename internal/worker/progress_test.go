package worker

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/texsynth/internal/pipeline"
)

func rendered(name string, nodes, failed int, elapsed time.Duration) Result {
	return Result{
		Job:      Job{Name: name},
		Rendered: pipeline.Rendered{Path: name + ".png", Nodes: nodes, FailedNodes: failed},
		Elapsed:  elapsed,
	}
}

func TestProgress_RecordTalliesNodes(t *testing.T) {
	p := NewProgress(4, false)

	p.Record(rendered("marble", 5, 0, 20*time.Millisecond))
	p.Record(rendered("coral", 5, 2, 90*time.Millisecond))
	p.Record(Result{Job: Job{Name: "lava"}, Rendered: pipeline.Rendered{UpToDate: true}})
	p.Record(Result{Job: Job{Name: "bad"}, Err: errors.New("no output node")})

	if p.finished != 4 || p.failed != 1 || p.upToDate != 1 {
		t.Errorf("finished/failed/upToDate = %d/%d/%d, want 4/1/1", p.finished, p.failed, p.upToDate)
	}
	if p.nodes != 10 {
		t.Errorf("Expected 10 evaluated nodes, got %d", p.nodes)
	}
	if p.badNodes != 2 {
		t.Errorf("Expected 2 failed nodes, got %d", p.badNodes)
	}
	if p.slowest.Job.Name != "coral" {
		t.Errorf("Expected coral as slowest, got %q", p.slowest.Job.Name)
	}
}

func TestProgress_StatusLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(2, true)
	p.out = &buf

	p.Record(rendered("coral", 6, 1, time.Millisecond))

	out := buf.String()
	for _, want := range []string{"[============            ]", " 50%", "1/2 textures", "6 nodes", "(1 failed)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "errors") {
		t.Errorf("No job failed, got %q", out)
	}
}

func TestProgress_DoneEndsLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(1, true)
	p.out = &buf

	p.Record(rendered("crystal", 5, 0, time.Millisecond))
	buf.Reset()
	p.Done()

	out := buf.String()
	if !strings.Contains(out, "100%") || !strings.Contains(out, " in ") {
		t.Errorf("Unexpected final line %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Expected final line to end with a newline")
	}
}

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(3, false)
	p.out = &buf

	p.Record(rendered("a", 1, 0, 0))
	p.Done()

	if buf.Len() != 0 {
		t.Errorf("Expected no output when disabled, got %q", buf.String())
	}
}

func TestProgress_Summary(t *testing.T) {
	p := NewProgress(3, false)
	p.Record(rendered("marble", 5, 0, 10*time.Millisecond))
	p.Record(rendered("coral", 5, 1, 40*time.Millisecond))
	p.Record(Result{Job: Job{Name: "bad"}, Err: errors.New("boom")})

	s := p.Summary()
	for _, want := range []string{"Rendered 2/3 textures", "1 failed;", "evaluated 10 nodes, 1 failed", "slowest coral (40ms)"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in summary %q", want, s)
		}
	}
}

func TestProgress_EmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(0, true)
	p.out = &buf
	p.Done()

	if !strings.Contains(buf.String(), "0/0 textures") {
		t.Errorf("Expected '0/0 textures' in output, got %q", buf.String())
	}
}
