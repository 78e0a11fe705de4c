package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-compressor/internal/pipeline"
)

// Event names on the compression stream
const (
	eventProgress = "progress"
	eventResult   = "result"
	eventError    = "error"
	eventComplete = "complete"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// eventStream writes numbered server-sent events for one compression run.
// It is not safe for concurrent use; the pipeline invokes progress callbacks
// on the goroutine running the handler.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
	// err holds the first write failure; later writes are dropped
	err error
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	return &eventStream{w: w, flusher: flusher, nextID: 1}, nil
}

// send writes one event. After a failed write (usually a client that went
// away) every later send is a no-op returning the same error.
func (s *eventStream) send(event string, data any) error {
	if s.err != nil {
		return s.err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.nextID, event, payload); err != nil {
		s.err = err
		return err
	}
	s.nextID++
	s.flusher.Flush()
	return nil
}

func (s *eventStream) progress(e pipeline.ProgressEvent) error {
	return s.send(eventProgress, e)
}

func (s *eventStream) result(resp CompressResponse) error {
	return s.send(eventResult, resp)
}

func (s *eventStream) fail(err error) error {
	return s.send(eventError, map[string]string{"error": err.Error()})
}

func (s *eventStream) complete(runID string, status string) error {
	return s.send(eventComplete, map[string]string{
		"run_id": runID,
		"status": status,
	})
}
