package lifecycle

import (
	"context"
	"strings"

	"github.com/silogos/Antree-sub001/internal/store"
)

// StatusSpec describes one stage of a template or session pipeline.
type StatusSpec struct {
	Label string
	Color string
}

func normalizeSpecs(specs []StatusSpec) ([]*store.TemplateStatus, error) {
	if len(specs) == 0 {
		return nil, validationErr("template requires at least one status")
	}
	statuses := make([]*store.TemplateStatus, 0, len(specs))
	for i, spec := range specs {
		label := strings.TrimSpace(spec.Label)
		if label == "" {
			return nil, validationErr("status %d has an empty label", i+1)
		}
		statuses = append(statuses, &store.TemplateStatus{
			Label: label,
			Color: strings.TrimSpace(spec.Color),
		})
	}
	return statuses, nil
}

// CreateTemplate persists a template with its ordered statuses.
func (m *Manager) CreateTemplate(ctx context.Context, name string, statuses []StatusSpec) (*store.Template, error) {
	name, err := requireName(name, "template")
	if err != nil {
		return nil, err
	}
	specs, err := normalizeSpecs(statuses)
	if err != nil {
		return nil, err
	}
	tpl, err := m.store.CreateTemplate(ctx, name, false, specs)
	if err != nil {
		return nil, err
	}
	m.logger.Info("template created",
		"template_id", tpl.ID,
		"statuses", len(tpl.Statuses))
	return tpl, nil
}

// GetTemplate fetches a template with its statuses.
func (m *Manager) GetTemplate(ctx context.Context, id string) (*store.Template, error) {
	return m.store.GetTemplate(ctx, id)
}

// ListTemplates returns all templates.
func (m *Manager) ListTemplates(ctx context.Context) ([]*store.Template, error) {
	return m.store.ListTemplates(ctx)
}

// AppendTemplateStatus adds a stage to the end of a template's pipeline.
// Existing sessions keep their cloned pipelines; only future resets pick up
// the new stage.
func (m *Manager) AppendTemplateStatus(ctx context.Context, templateID, label, color string) (*store.TemplateStatus, error) {
	label, err := requireName(label, "status")
	if err != nil {
		return nil, err
	}
	return m.store.AppendTemplateStatus(ctx, templateID, label, strings.TrimSpace(color))
}

// DeleteTemplate removes a template and its status definitions.
func (m *Manager) DeleteTemplate(ctx context.Context, id string) error {
	if err := m.store.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	m.logger.Info("template deleted", "template_id", id)
	return nil
}
