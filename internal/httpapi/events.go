package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sseBuffer is the per-stream event buffer; a stream that falls further
// behind loses events.
const sseBuffer = 64

// eventsHandler streams controller events as server-sent events. Each frame
// carries the event name and its JSON encoding. The stream ends when the
// client goes away, the server base context is canceled, or the source closes.
func eventsHandler(src EventSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fl, ok := w.(http.Flusher)
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		ch, unsubscribe := src.Subscribe(sseBuffer)
		defer unsubscribe()
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()

		sseClients.Inc()
		defer sseClients.Dec()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": connected\n\n")
		fl.Flush()

		keepAlive := time.NewTicker(sseKeepAlive)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-ch:
				if !ok {
					return
				}
				data, err := json.Marshal(e)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, data)
				fl.Flush()
			case <-keepAlive.C:
				fmt.Fprint(w, ": ping\n\n")
				fl.Flush()
			}
		}
	}
}
