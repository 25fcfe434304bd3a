package procwise

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procwise/procwise/auth"
	"github.com/procwise/procwise/model"
	"github.com/procwise/procwise/runtime/execution"
	"github.com/procwise/procwise/service/directory"
	dmemory "github.com/procwise/procwise/service/directory/memory"
	"github.com/procwise/procwise/service/template"
)

// TestService_EndToEnd drives a complete expense approval through the
// default in-memory wiring: define, start, execute both steps, report.
func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	requester := auth.Caller{UserID: "u-requester", Name: "Ana"}
	approver := auth.Caller{UserID: "u-approver", Name: "Bruno"}

	users := dmemory.New()
	users.AddUser(&directory.User{ID: "u-requester", Name: "Ana Lima"})
	users.AddUser(&directory.User{ID: "u-approver", Name: "Bruno Costa"})
	users.AddClient(&directory.Client{ID: "c1", Name: "Acme Ltda"})

	service := New(WithDirectory(users))
	assert.Equal(t, template.DeletePolicyReject, service.Config().Templates.DeletePolicy)

	created, err := service.Templates().Create(ctx, requester, &template.Input{
		Name: "Aprovação de Despesas",
		Steps: []*template.StepInput{
			{Name: "Solicitação", ResponsibleUserID: "u-requester",
				FormFields: []*model.FieldSpec{
					{ID: "amount", Type: model.FieldTypeNumber, Label: "Valor", Required: true},
				}},
			{Name: "Aprovação", ResponsibleUserID: "u-approver",
				FormFields: []*model.FieldSpec{
					{ID: "approved", Type: model.FieldTypeCheckbox, Label: "Aprovado"},
				}},
		},
	})
	assert.NoError(t, err)

	aProcess, err := service.Engine().Start(ctx, requester, created.ID, "c1")
	assert.NoError(t, err)
	assert.Equal(t, "Aprovação de Despesas PROC-000001", aProcess.Name)

	steps, err := service.Engine().Steps(ctx, aProcess.ID)
	assert.NoError(t, err)
	assert.Len(t, steps, 2)

	_, err = service.Engine().ExecuteStep(ctx, requester, steps[0].ID, map[string]interface{}{
		"amount": 1500.5,
	}, "nota anexa")
	assert.NoError(t, err)

	_, err = service.Engine().ExecuteStep(ctx, approver, steps[1].ID, map[string]interface{}{
		"approved": true,
	}, "")
	assert.NoError(t, err)

	report, err := service.Reports().Build(ctx, requester, aProcess.ID)
	assert.NoError(t, err)
	assert.Equal(t, execution.StatusCompleted, report.ProcessInfo.Status)
	assert.Equal(t, "Acme Ltda", report.ProcessInfo.ClientName)
	assert.Equal(t, float64(1500.5), report.Steps[0].FormData["amount"])
	assert.Equal(t, true, report.Steps[1].FormData["approved"])
}

// TestService_UpdateKeepsInstancesExecutable edits a template while an
// instance is in flight; the instance's steps must still execute against
// the renamed definition.
func TestService_UpdateKeepsInstancesExecutable(t *testing.T) {
	ctx := context.Background()
	requester := auth.Caller{UserID: "u-requester", Name: "Ana"}

	users := dmemory.New()
	users.AddUser(&directory.User{ID: "u-requester", Name: "Ana Lima"})
	users.AddClient(&directory.Client{ID: "c1", Name: "Acme Ltda"})

	service := New(WithDirectory(users))
	created, err := service.Templates().Create(ctx, requester, &template.Input{
		Name: "Cadastro de Fornecedor",
		Steps: []*template.StepInput{
			{Name: "Dados", ResponsibleUserID: "u-requester",
				FormFields: []*model.FieldSpec{
					{ID: "cnpj", Type: model.FieldTypeText, Label: "CNPJ", Required: true},
				}},
		},
	})
	assert.NoError(t, err)

	aProcess, err := service.Engine().Start(ctx, requester, created.ID, "c1")
	assert.NoError(t, err)

	_, err = service.Templates().Update(ctx, requester, created.ID, &template.Input{
		Name: "Cadastro de Fornecedor v2",
		Steps: []*template.StepInput{
			{Name: "Dados do fornecedor", ResponsibleUserID: "u-requester",
				FormFields: []*model.FieldSpec{
					{ID: "cnpj", Type: model.FieldTypeText, Label: "CNPJ", Required: true},
				}},
		},
	})
	assert.NoError(t, err)

	steps, err := service.Engine().Steps(ctx, aProcess.ID)
	assert.NoError(t, err)
	executed, err := service.Engine().ExecuteStep(ctx, requester, steps[0].ID, map[string]interface{}{
		"cnpj": "12.345.678/0001-90",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, execution.StepStatusCompleted, executed.Status)
}

func TestService_DefaultWiring(t *testing.T) {
	service := New()
	assert.NotNil(t, service.Templates())
	assert.NotNil(t, service.Engine())
	assert.NotNil(t, service.Reports())
	assert.NotNil(t, service.ACL())
	assert.NotNil(t, service.Directory())
	assert.NotNil(t, service.Events())
	assert.NotNil(t, service.Config())
}
