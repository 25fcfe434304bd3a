package sqlstore

import (
	"context"
	"fmt"

	"github.com/procwise/procwise/runtime/execution"
	"github.com/procwise/procwise/service/dao"
)

// ProcessDAO implements dao.Service for processes. Save enforces the
// optimistic version check that serializes racing step executions across
// engine processes.
type ProcessDAO struct {
	store *Store
}

var _ dao.Service[string, execution.Process] = (*ProcessDAO)(nil)
var _ dao.Atomic = (*ProcessDAO)(nil)

// Atomically groups writes issued with the inner context into one
// transaction shared by every DAO of this store.
func (d *ProcessDAO) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.store.Atomically(ctx, fn)
}

func (d *ProcessDAO) Save(ctx context.Context, p *execution.Process) error {
	if p == nil {
		return dao.ErrNilEntity
	}
	if p.ID == "" {
		return dao.ErrInvalidID
	}
	m := toProcessModel(p)
	if p.Version <= 1 {
		_, err := d.store.conn(ctx).NewInsert().Model(m).Exec(ctx)
		if err != nil {
			if isDuplicateKey(err) {
				return dao.ErrConflict
			}
			return fmt.Errorf("sqlstore: insert process: %w", err)
		}
		return nil
	}
	// The update only lands when the stored row still carries the previous
	// version; a zero row count means another writer advanced the process.
	res, err := d.store.conn(ctx).NewUpdate().Model(m).
		WherePK().
		Where("version = ?", p.Version-1).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: update process: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		exists, existsErr := d.store.conn(ctx).NewSelect().
			TableExpr("procwise_processes").
			Where("id = ?", p.ID).
			Exists(ctx)
		if existsErr != nil {
			return fmt.Errorf("sqlstore: update process: %w", existsErr)
		}
		if !exists {
			return dao.ErrNotFound
		}
		return dao.ErrConflict
	}
	return nil
}

func (d *ProcessDAO) Load(ctx context.Context, id string) (*execution.Process, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	m := new(processModel)
	err := d.store.conn(ctx).NewSelect().Model(m).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, dao.ErrNotFound
		}
		return nil, fmt.Errorf("sqlstore: load process: %w", err)
	}
	return fromProcessModel(m), nil
}

func (d *ProcessDAO) Delete(ctx context.Context, id string) error {
	res, err := d.store.conn(ctx).NewDelete().
		TableExpr("procwise_processes").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: delete process: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return dao.ErrNotFound
	}
	return nil
}

func (d *ProcessDAO) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Process, error) {
	var models []processModel
	q := d.store.conn(ctx).NewSelect().Model(&models)
	for _, parameter := range parameters {
		switch parameter.Name {
		case dao.ParamTemplateID:
			q = q.Where("template_id = ?", parameter.Value)
		case dao.ParamNumber:
			q = q.Where("number = ?", parameter.Value)
		case dao.ParamStatus:
			q = q.Where("status = ?", parameter.Value)
		}
	}
	err := q.Order("number ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list processes: %w", err)
	}
	out := make([]*execution.Process, 0, len(models))
	for i := range models {
		out = append(out, fromProcessModel(&models[i]))
	}
	return out, nil
}
