package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/silogos/Antree-sub001/internal/event"
	"github.com/silogos/Antree-sub001/internal/logging"
	"github.com/silogos/Antree-sub001/internal/store"
)

// ErrValidation marks request-shaped failures such as empty names or unknown
// lifecycle states. Callers can map it to a client error without inspecting
// message text.
var ErrValidation = errors.New("validation failed")

// Broadcaster receives domain events after their mutation has been
// persisted. Delivery is best effort; a failed or absent broadcaster never
// unwinds a committed change.
type Broadcaster interface {
	Broadcast(ev event.Event)
}

// Manager drives all domain mutations. It persists through the store first
// and only then announces the change, so subscribers never observe an event
// for state that does not exist.
type Manager struct {
	store  *store.Store
	hub    Broadcaster
	logger *slog.Logger
}

// NewManager wires a manager around the store and an optional broadcaster.
func NewManager(st *store.Store, hub Broadcaster, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		store:  st,
		hub:    hub,
		logger: logging.NewComponentLogger(logger, "lifecycle"),
	}
}

func (m *Manager) broadcast(ev event.Event) {
	if m.hub == nil {
		return
	}
	m.hub.Broadcast(ev)
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func requireName(name, what string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationErr("%s name must not be empty", what)
	}
	return name, nil
}
