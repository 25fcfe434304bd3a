package sqlstore

import (
	"context"
	"fmt"

	"github.com/procwise/procwise/model"
	"github.com/procwise/procwise/service/dao"
)

// TemplateDAO implements dao.Service for templates.
type TemplateDAO struct {
	store *Store
}

var _ dao.Service[string, model.Template] = (*TemplateDAO)(nil)
var _ dao.Atomic = (*TemplateDAO)(nil)

// Atomically groups writes issued with the inner context into one
// transaction shared by every DAO of this store.
func (d *TemplateDAO) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.store.Atomically(ctx, fn)
}

func (d *TemplateDAO) Save(ctx context.Context, t *model.Template) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	m, err := toTemplateModel(t)
	if err != nil {
		return err
	}
	_, err = d.store.conn(ctx).NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("description = EXCLUDED.description").
		Set("steps = EXCLUDED.steps").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: save template: %w", err)
	}
	return nil
}

func (d *TemplateDAO) Load(ctx context.Context, id string) (*model.Template, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	m := new(templateModel)
	err := d.store.conn(ctx).NewSelect().Model(m).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, dao.ErrNotFound
		}
		return nil, fmt.Errorf("sqlstore: load template: %w", err)
	}
	return fromTemplateModel(m)
}

func (d *TemplateDAO) Delete(ctx context.Context, id string) error {
	res, err := d.store.conn(ctx).NewDelete().
		TableExpr("procwise_templates").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: delete template: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return dao.ErrNotFound
	}
	return nil
}

func (d *TemplateDAO) List(ctx context.Context, _ ...*dao.Parameter) ([]*model.Template, error) {
	var models []templateModel
	err := d.store.conn(ctx).NewSelect().Model(&models).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list templates: %w", err)
	}
	out := make([]*model.Template, 0, len(models))
	for i := range models {
		t, convErr := fromTemplateModel(&models[i])
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, t)
	}
	return out, nil
}
