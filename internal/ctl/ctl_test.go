package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"artd/internal/controller"
	"artd/internal/httpapi"
	"artd/pkg/types"
)

type testServer struct {
	ctrl   *controller.Controller
	events *controller.Broadcaster
	srv    *httptest.Server
	dir    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"landscapes.prompts": "[prompts]\nhill\nlake\n",
		"portraits.prompts":  "[config]\nrepeat = yes\n[prompts]\nface\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	events := controller.NewBroadcaster()
	c := controller.New(controller.Config{WorkerNames: []string{"gpu0", "gpu1"}, PromptsDir: dir, Publisher: events})
	srv := httptest.NewServer(httpapi.NewMux(c, events))
	t.Cleanup(srv.Close)
	return &testServer{ctrl: c, events: events, srv: srv, dir: dir}
}

// run executes artctl with args against ts and returns stdout.
func (ts *testServer) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--server", ts.srv.URL}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	ts := newTestServer(t)
	out, err := ts.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"running", "0 busy, 2 idle", "no prompt file loaded"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	out, err = ts.run(t, "--json", "status")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var s types.StatusResponse
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("json: %v\n%s", err, out)
	}
	if s.State != "running" || len(s.Workers) != 2 {
		t.Fatalf("unexpected status: %+v", s)
	}
}

func TestControlCommands(t *testing.T) {
	ts := newTestServer(t)
	out, err := ts.run(t, "pause")
	if err != nil || !strings.Contains(out, "pause: server is paused") {
		t.Fatalf("pause: %v %q", err, out)
	}
	out, _ = ts.run(t, "pause")
	if !strings.Contains(out, "no change") {
		t.Fatalf("second pause: %q", out)
	}
	if _, err := ts.run(t, "unpause"); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if ts.ctrl.IsPaused() {
		t.Fatalf("controller still paused")
	}
	if _, err := ts.run(t, "shutdown"); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if ts.ctrl.State() != controller.StateShuttingDown {
		t.Fatalf("state=%s", ts.ctrl.State())
	}
}

func TestLoadAndPromptsCommands(t *testing.T) {
	ts := newTestServer(t)
	out, err := ts.run(t, "load", "landscapes")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(out, "landscapes  0 of 2 completed") {
		t.Fatalf("unexpected load output:\n%s", out)
	}
	if got := ts.ctrl.PromptSource().Name; got != "landscapes" {
		t.Fatalf("active source=%s", got)
	}

	out, err = ts.run(t, "prompts")
	if err != nil {
		t.Fatalf("prompts: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "* landscapes") || !strings.HasPrefix(lines[1], "  portraits") {
		t.Fatalf("unexpected prompts output:\n%s", out)
	}

	_, err = ts.run(t, "load", filepath.Join(ts.dir, "missing.prompts"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
}

func TestLogCommand(t *testing.T) {
	ts := newTestServer(t)
	for _, l := range []string{"alpha", "beta", "gamma"} {
		ts.ctrl.OutputLog().Append(l)
	}
	out, err := ts.run(t, "log", "--tail", "2")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if out != "beta\ngamma\n" {
		t.Fatalf("unexpected tail: %q", out)
	}
	out, err = ts.run(t, "log", "--length", "1")
	if err != nil || !strings.Contains(out, "log length set to 1") {
		t.Fatalf("resize: %v %q", err, out)
	}
	if got := ts.ctrl.OutputLog().Snapshot(); len(got) != 1 || got[0] != "gamma" {
		t.Fatalf("log after resize: %v", got)
	}
	if _, err := ts.run(t, "log", "--clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if ts.ctrl.OutputLog().Len() != 0 {
		t.Fatalf("log not cleared")
	}
	if _, err := ts.run(t, "log", "--length", "-3"); err == nil {
		t.Fatalf("expected error for negative length")
	}
}

func TestWorkersCommand(t *testing.T) {
	ts := newTestServer(t)
	_ = ts.ctrl.Pool().AssignJob(2, "a misty lake")
	out, err := ts.run(t, "workers")
	if err != nil {
		t.Fatalf("workers: %v", err)
	}
	for _, want := range []string{"gpu0", "gpu1", "idle", "working", "a misty lake"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestEventsCommand(t *testing.T) {
	ts := newTestServer(t)
	done := make(chan struct{})
	var out string
	var runErr error
	go func() {
		defer close(done)
		out, runErr = ts.run(t, "events", "--count", "1")
	}()
	deadline := time.Now().Add(3 * time.Second)
	for ts.events.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("events command never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	ts.ctrl.Pause()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("events command did not exit")
	}
	if runErr != nil || !strings.Contains(out, "paused") {
		t.Fatalf("events: %v %q", runErr, out)
	}
}

func TestSettingsFromEnv(t *testing.T) {
	ts := newTestServer(t)
	t.Setenv("ARTCTL_SERVER", ts.srv.URL)
	var out bytes.Buffer
	cmd := NewRootCmd(&out, &bytes.Buffer{})
	cmd.SetArgs([]string{"source"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("source: %v", err)
	}
	if !strings.Contains(out.String(), "no prompt file loaded") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestSettingsFromConfigFile(t *testing.T) {
	ts := newTestServer(t)
	cfg := filepath.Join(t.TempDir(), "artctl.yaml")
	if err := os.WriteFile(cfg, []byte("server: "+ts.srv.URL+"\njson: true\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	cmd := NewRootCmd(&out, &bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfg, "source"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("source: %v", err)
	}
	var src types.PromptSourceInfo
	if err := json.Unmarshal(out.Bytes(), &src); err != nil {
		t.Fatalf("expected JSON output: %v\n%s", err, out.String())
	}
}

func TestClient_DecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "plain failure", http.StatusBadGateway)
	}))
	defer srv.Close()
	_, err := NewClient(srv.URL, time.Second).Status(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Message != "plain failure" {
		t.Fatalf("unexpected error: %#v", err)
	}
}
