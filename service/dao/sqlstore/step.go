package sqlstore

import (
	"context"
	"fmt"

	"github.com/procwise/procwise/runtime/execution"
	"github.com/procwise/procwise/service/dao"
)

// StepDAO implements dao.Service for step executions.
type StepDAO struct {
	store *Store
}

var _ dao.Service[string, execution.StepExecution] = (*StepDAO)(nil)

func (d *StepDAO) Save(ctx context.Context, s *execution.StepExecution) error {
	if s == nil {
		return dao.ErrNilEntity
	}
	if s.ID == "" {
		return dao.ErrInvalidID
	}
	m, err := toStepModel(s)
	if err != nil {
		return err
	}
	_, err = d.store.conn(ctx).NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("form_data = EXCLUDED.form_data").
		Set("started_at = EXCLUDED.started_at").
		Set("completed_at = EXCLUDED.completed_at").
		Set("notes = EXCLUDED.notes").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: save step execution: %w", err)
	}
	return nil
}

func (d *StepDAO) Load(ctx context.Context, id string) (*execution.StepExecution, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	m := new(stepModel)
	err := d.store.conn(ctx).NewSelect().Model(m).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, dao.ErrNotFound
		}
		return nil, fmt.Errorf("sqlstore: load step execution: %w", err)
	}
	return fromStepModel(m)
}

func (d *StepDAO) Delete(ctx context.Context, id string) error {
	res, err := d.store.conn(ctx).NewDelete().
		TableExpr("procwise_step_executions").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: delete step execution: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return dao.ErrNotFound
	}
	return nil
}

func (d *StepDAO) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.StepExecution, error) {
	var models []stepModel
	q := d.store.conn(ctx).NewSelect().Model(&models)
	for _, parameter := range parameters {
		switch parameter.Name {
		case dao.ParamProcessID:
			q = q.Where("process_id = ?", parameter.Value)
		case dao.ParamAssignedUserID:
			q = q.Where("assigned_user_id = ?", parameter.Value)
		case dao.ParamStatus:
			q = q.Where("status = ?", parameter.Value)
		}
	}
	err := q.Order("step_order ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list step executions: %w", err)
	}
	out := make([]*execution.StepExecution, 0, len(models))
	for i := range models {
		s, convErr := fromStepModel(&models[i])
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, s)
	}
	return out, nil
}
