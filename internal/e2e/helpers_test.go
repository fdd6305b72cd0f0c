package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"artd/internal/controller"
	"artd/internal/fleet"
	"artd/internal/httpapi"
)

// stack is a controller driven by a fleet and served over HTTP.
type stack struct {
	ctrl    *controller.Controller
	events  *controller.Broadcaster
	srv     *httptest.Server
	dir     string
	fleetCh chan error
}

func newStack(t *testing.T, workers int, exec fleet.Executor) *stack {
	t.Helper()
	dir := t.TempDir()
	events := controller.NewBroadcaster()
	c := controller.New(controller.Config{Workers: workers, LogCapacity: 500, PromptsDir: dir, Publisher: events})
	srv := httptest.NewServer(httpapi.NewMux(c, events))
	s := &stack{ctrl: c, events: events, srv: srv, dir: dir, fleetCh: make(chan error, 1)}
	f := fleet.New(c, exec, fleet.Config{Interval: 5 * time.Millisecond, DrainTimeout: 2 * time.Second})
	go func() { s.fleetCh <- f.Run(context.Background()) }()
	t.Cleanup(func() {
		c.Shutdown()
		select {
		case <-s.fleetCh:
		case <-time.After(5 * time.Second):
			t.Errorf("fleet did not stop")
		}
		srv.Close()
		events.Close()
	})
	return s
}

func (s *stack) writePrompts(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(s.dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func (s *stack) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, body := httpDo(t, http.MethodGet, s.srv.URL+path, nil)
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v body=%s", path, err, body)
		}
	}
	return resp.StatusCode
}

func (s *stack) post(t *testing.T, path string, payload any, out any) int {
	t.Helper()
	var b []byte
	if payload != nil {
		var err error
		if b, err = json.Marshal(payload); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	resp, body := httpDo(t, http.MethodPost, s.srv.URL+path, b)
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v body=%s", path, err, body)
		}
	}
	return resp.StatusCode
}

func httpDo(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// gate blocks jobs until released; started receives every job that began.
type gate struct {
	started chan controller.Job
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan controller.Job, 64), release: make(chan struct{})}
}

func (g *gate) Execute(ctx context.Context, job controller.Job, out io.Writer) error {
	g.started <- job
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
