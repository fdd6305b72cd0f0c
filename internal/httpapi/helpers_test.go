package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"artd/internal/controller"
)

// newTestController returns a controller with two workers whose prompts
// directory holds beta.prompts (3 prompts), alpha.prompts (1 prompt) and
// broken.prompts (no [prompts] section).
func newTestController(t *testing.T) (*controller.Controller, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"beta.prompts":   "[prompts]\none\ntwo\nthree\n",
		"alpha.prompts":  "[config]\nrepeat = no\n[prompts]\nonly\n",
		"broken.prompts": "[config]\nrepeat = yes\n",
		"notes.txt":      "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	c := controller.New(controller.Config{WorkerNames: []string{"gpu0", "gpu1"}, LogCapacity: 10, PromptsDir: dir})
	return c, dir
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
}
