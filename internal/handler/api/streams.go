package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fhuszti/media-cache-go/internal/port"
)

const heartbeatInterval = 30 * time.Second

// ItemsStreamHandler streams the keyed item collection as server-sent events.
// A fresh snapshot is emitted on every mutation.
func ItemsStreamHandler(svc port.ItemStreamSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteError(w, http.StatusInternalServerError, "streaming unsupported", nil)
			return
		}

		id, ch := svc.SubscribeItems()
		defer svc.UnsubscribeItems(id)

		setStreamHeaders(w)
		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case snap, open := <-ch:
				if !open {
					return
				}
				if err := writeEvent(w, "items", snap); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

// QueueStreamHandler streams queue state snapshots as server-sent events.
func QueueStreamHandler(svc port.QueueStreamSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteError(w, http.StatusInternalServerError, "streaming unsupported", nil)
			return
		}

		id, ch := svc.SubscribeQueue()
		defer svc.UnsubscribeQueue(id)

		setStreamHeaders(w)
		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case snap, open := <-ch:
				if !open {
					return
				}
				if err := writeEvent(w, "queue", snap); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return nil
}
