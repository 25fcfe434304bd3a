package sqlstore

import (
	"context"
	"fmt"

	"github.com/procwise/procwise/auth"
	"github.com/procwise/procwise/service/acl"
)

// ACL implements the template access-control list on the grants table.
type ACL struct {
	store *Store
}

var _ acl.Service = (*ACL)(nil)

func (a *ACL) Grant(ctx context.Context, templateID, userID string) error {
	m := &grantModel{TemplateID: templateID, UserID: userID}
	_, err := a.store.conn(ctx).NewInsert().Model(m).
		On("CONFLICT (template_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: grant access: %w", err)
	}
	return nil
}

func (a *ACL) Revoke(ctx context.Context, templateID, userID string) error {
	_, err := a.store.conn(ctx).NewDelete().
		TableExpr("procwise_template_grants").
		Where("template_id = ? AND user_id = ?", templateID, userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: revoke access: %w", err)
	}
	return nil
}

func (a *ACL) Authorized(ctx context.Context, templateID string) ([]string, error) {
	var userIDs []string
	err := a.store.conn(ctx).NewSelect().
		TableExpr("procwise_template_grants").
		Column("user_id").
		Where("template_id = ?", templateID).
		Order("user_id ASC").
		Scan(ctx, &userIDs)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list authorized users: %w", err)
	}
	return userIDs, nil
}

func (a *ACL) CanAccess(ctx context.Context, caller auth.Caller, templateID string) (bool, error) {
	if caller.IsAdmin {
		return true, nil
	}
	exists, err := a.store.conn(ctx).NewSelect().
		TableExpr("procwise_template_grants").
		Where("template_id = ? AND user_id = ?", templateID, caller.UserID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("sqlstore: check access: %w", err)
	}
	return exists, nil
}

func (a *ACL) Drop(ctx context.Context, templateID string) error {
	_, err := a.store.conn(ctx).NewDelete().
		TableExpr("procwise_template_grants").
		Where("template_id = ?", templateID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: drop grants: %w", err)
	}
	return nil
}
