package daemon

import (
	"net/http"
	"sync"

	"github.com/silogos/Antree-sub001/internal/api"
	"github.com/silogos/Antree-sub001/internal/event"
	"github.com/silogos/Antree-sub001/internal/logging"
)

// flusherConn adapts an SSE response stream to the hub's connection
// interface. The stream headers go out exactly once, from whichever side
// touches the connection first: the handler after subscribing, or the write
// pump delivering the first frame.
type flusherConn struct {
	w    http.ResponseWriter
	f    http.Flusher
	once sync.Once
}

func (c *flusherConn) begin() {
	c.once.Do(func() {
		c.w.Header().Set("Content-Type", "text/event-stream")
		c.w.Header().Set("Cache-Control", "no-cache")
		c.w.Header().Set("Connection", "keep-alive")
		c.w.WriteHeader(http.StatusOK)
		c.f.Flush()
	})
}

func (c *flusherConn) Write(p []byte) (int, error) {
	c.begin()
	return c.w.Write(p)
}

func (c *flusherConn) Flush() { c.f.Flush() }

// handleEvents streams domain events over Server-Sent Events. Clients scope
// their subscription with repeatable ?queue= and ?session= parameters and
// receive every event routed to any of those topics exactly once.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, api.CodeInternal, "streaming unsupported")
		return
	}

	query := r.URL.Query()
	var topics []string
	for _, id := range query["queue"] {
		if id != "" {
			topics = append(topics, event.QueueTopic(id))
		}
	}
	for _, id := range query["session"] {
		if id != "" {
			topics = append(topics, event.SessionTopic(id))
		}
	}
	if len(topics) == 0 {
		s.writeError(w, http.StatusUnprocessableEntity, api.CodeValidation, "at least one queue or session parameter is required")
		return
	}

	// Register before the headers go out so a client that sees a 200 never
	// misses events broadcast right after connecting.
	conn := &flusherConn{w: w, f: flusher}
	id, done, err := s.daemon.hub.Subscribe(topics, conn)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, api.CodeInternal, "event hub is shut down")
		return
	}
	conn.begin()

	s.log().Info("event subscriber connected",
		logging.String(logging.FieldSubscriberID, id),
		logging.Int("topics", len(topics)))

	select {
	case <-r.Context().Done():
		s.daemon.hub.Unsubscribe(id)
	case <-done:
	}
	s.log().Info("event subscriber disconnected", logging.String(logging.FieldSubscriberID, id))
}
