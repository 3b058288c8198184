package lifecycle

import (
	"context"
	"strings"

	"github.com/silogos/Antree-sub001/internal/api"
	"github.com/silogos/Antree-sub001/internal/event"
	"github.com/silogos/Antree-sub001/internal/logging"
	"github.com/silogos/Antree-sub001/internal/store"
)

// CreateItem enqueues a ticket into the queue's active session. The caller
// names the starting stage explicitly; the store rejects stages owned by a
// different session.
func (m *Manager) CreateItem(ctx context.Context, queueID, number, name, statusID string, metadata map[string]string) (*store.Item, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, validationErr("item number must not be empty")
	}
	name, err := requireName(name, "item")
	if err != nil {
		return nil, err
	}
	if statusID == "" {
		return nil, validationErr("item status must be specified")
	}
	sess, err := m.store.ActiveSession(ctx, queueID)
	if err != nil {
		return nil, err
	}
	item, err := m.store.CreateItem(ctx, sess.ID, statusID, number, name, metadata)
	if err != nil {
		return nil, err
	}
	m.logger.Info("item created",
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldQueueID, item.QueueID),
		logging.String(logging.FieldSessionID, item.SessionID))
	m.broadcast(event.New(event.TypeItemCreated, item.QueueID, item.SessionID, api.FromItem(item)))
	return item, nil
}

// GetItem fetches a single ticket.
func (m *Manager) GetItem(ctx context.Context, id string) (*store.Item, error) {
	return m.store.GetItem(ctx, id)
}

// ListItems returns a session's tickets in creation order, optionally
// filtered to one status.
func (m *Manager) ListItems(ctx context.Context, sessionID, statusID string) ([]*store.Item, error) {
	return m.store.ListItems(ctx, sessionID, statusID)
}

// UpdateItem edits a ticket's name or metadata. The number and session
// binding are immutable.
func (m *Manager) UpdateItem(ctx context.Context, id string, name *string, metadata map[string]string) (*store.Item, error) {
	current, err := m.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	nextName := current.Name
	if name != nil {
		nextName, err = requireName(*name, "item")
		if err != nil {
			return nil, err
		}
	}
	nextMetadata := current.Metadata
	if metadata != nil {
		nextMetadata = metadata
	}
	item, err := m.store.UpdateItem(ctx, id, nextName, nextMetadata)
	if err != nil {
		return nil, err
	}
	m.broadcast(event.New(event.TypeItemUpdated, item.QueueID, item.SessionID, api.FromItem(item)))
	return item, nil
}

// MoveItem advances a ticket to another status within its session and
// announces the move with both the old and new status for dashboards that
// animate transitions.
func (m *Manager) MoveItem(ctx context.Context, id, statusID string) (*store.Item, error) {
	current, err := m.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := m.store.MoveItem(ctx, id, statusID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("item moved",
		logging.String(logging.FieldItemID, item.ID),
		logging.String("from_status", current.StatusID),
		logging.String("to_status", item.StatusID))
	m.broadcast(event.New(event.TypeItemStatusChanged, item.QueueID, item.SessionID, map[string]any{
		"item":         api.FromItem(item),
		"fromStatusId": current.StatusID,
		"toStatusId":   item.StatusID,
	}))
	return item, nil
}

// DeleteItem removes a ticket and announces the removal.
func (m *Manager) DeleteItem(ctx context.Context, id string) error {
	item, err := m.store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if err := m.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	m.logger.Info("item deleted", logging.String(logging.FieldItemID, id))
	m.broadcast(event.New(event.TypeItemDeleted, item.QueueID, item.SessionID, map[string]string{"id": id}))
	return nil
}
