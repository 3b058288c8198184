package lifecycle

import (
	"context"

	"github.com/silogos/Antree-sub001/internal/api"
	"github.com/silogos/Antree-sub001/internal/event"
	"github.com/silogos/Antree-sub001/internal/logging"
	"github.com/silogos/Antree-sub001/internal/store"
)

// CreateQueue persists a queue bound to a template and announces it.
func (m *Manager) CreateQueue(ctx context.Context, name, templateID, createdBy string) (*store.Queue, error) {
	name, err := requireName(name, "queue")
	if err != nil {
		return nil, err
	}
	q, err := m.store.CreateQueue(ctx, name, templateID, createdBy)
	if err != nil {
		return nil, err
	}
	m.logger.Info("queue created",
		logging.String(logging.FieldQueueID, q.ID),
		logging.String("template_id", q.TemplateID))
	m.broadcast(event.New(event.TypeQueueCreated, q.ID, "", api.FromQueue(q)))
	return q, nil
}

// GetQueue fetches a single queue.
func (m *Manager) GetQueue(ctx context.Context, id string) (*store.Queue, error) {
	return m.store.GetQueue(ctx, id)
}

// ListQueues returns all queues.
func (m *Manager) ListQueues(ctx context.Context) ([]*store.Queue, error) {
	return m.store.ListQueues(ctx)
}

// UpdateQueue renames or toggles a queue and announces the change. Nil
// fields keep their stored values.
func (m *Manager) UpdateQueue(ctx context.Context, id string, name *string, active *bool, updatedBy string) (*store.Queue, error) {
	current, err := m.store.GetQueue(ctx, id)
	if err != nil {
		return nil, err
	}
	nextName := current.Name
	if name != nil {
		nextName, err = requireName(*name, "queue")
		if err != nil {
			return nil, err
		}
	}
	nextActive := current.IsActive
	if active != nil {
		nextActive = *active
	}
	q, err := m.store.UpdateQueue(ctx, id, nextName, nextActive, updatedBy)
	if err != nil {
		return nil, err
	}
	m.logger.Info("queue updated", logging.String(logging.FieldQueueID, q.ID))
	m.broadcast(event.New(event.TypeQueueUpdated, q.ID, "", api.FromQueue(q)))
	return q, nil
}

// DeleteQueue removes a queue with its sessions and items, then announces
// the removal so dashboards can drop stale views.
func (m *Manager) DeleteQueue(ctx context.Context, id string) error {
	if err := m.store.DeleteQueue(ctx, id); err != nil {
		return err
	}
	m.logger.Info("queue deleted", logging.String(logging.FieldQueueID, id))
	m.broadcast(event.New(event.TypeQueueDeleted, id, "", map[string]string{"id": id}))
	return nil
}
