package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/procwise/procwise/auth"
	"github.com/procwise/procwise/fault"
	"github.com/procwise/procwise/service/template"
)

func (a *API) caller(r *http.Request) auth.Caller {
	caller, _ := auth.CallerFrom(r.Context())
	return caller
}

// ── Templates ───────────────────────────────────────────────────

func (a *API) createTemplate(w http.ResponseWriter, r *http.Request) {
	var input template.Input
	if !a.decode(w, r, &input) {
		return
	}
	created, err := a.service.Templates().Create(r.Context(), a.caller(r), &input)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateTemplate(w http.ResponseWriter, r *http.Request) {
	var input template.Input
	if !a.decode(w, r, &input) {
		return
	}
	updated, err := a.service.Templates().Update(r.Context(), a.caller(r), mux.Vars(r)["id"], &input)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) getTemplate(w http.ResponseWriter, r *http.Request) {
	found, err := a.service.Templates().Get(r.Context(), a.caller(r), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, found)
}

func (a *API) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Templates().Delete(r.Context(), a.caller(r), mux.Vars(r)["id"]); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, nil)
}

func (a *API) listAccessibleTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := a.service.Templates().ListAccessible(r.Context(), a.caller(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, templates)
}

// ── Template ACL ────────────────────────────────────────────────

type accessRequest struct {
	UserID string `json:"userId"`
}

func (a *API) grantAccess(w http.ResponseWriter, r *http.Request) {
	caller := a.caller(r)
	if !caller.IsAdmin {
		a.writeError(w, r, fault.NewAuthorization("only admins may manage template access"))
		return
	}
	var input accessRequest
	if !a.decode(w, r, &input) {
		return
	}
	if input.UserID == "" {
		a.writeError(w, r, fault.NewValidation("userId is required"))
		return
	}
	if err := a.service.ACL().Grant(r.Context(), mux.Vars(r)["id"], input.UserID); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, nil)
}

func (a *API) revokeAccess(w http.ResponseWriter, r *http.Request) {
	caller := a.caller(r)
	if !caller.IsAdmin {
		a.writeError(w, r, fault.NewAuthorization("only admins may manage template access"))
		return
	}
	vars := mux.Vars(r)
	if err := a.service.ACL().Revoke(r.Context(), vars["id"], vars["userId"]); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, nil)
}

func (a *API) listAuthorizedUsers(w http.ResponseWriter, r *http.Request) {
	caller := a.caller(r)
	if !caller.IsAdmin {
		a.writeError(w, r, fault.NewAuthorization("only admins may manage template access"))
		return
	}
	userIDs, err := a.service.ACL().Authorized(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, userIDs)
}

// ── Instances ───────────────────────────────────────────────────

type startInstanceRequest struct {
	TemplateID string `json:"templateId"`
	ClientID   string `json:"clientId"`
}

func (a *API) startInstance(w http.ResponseWriter, r *http.Request) {
	var input startInstanceRequest
	if !a.decode(w, r, &input) {
		return
	}
	if input.TemplateID == "" || input.ClientID == "" {
		a.writeError(w, r, fault.NewValidation("templateId and clientId are required"))
		return
	}
	started, err := a.service.Engine().Start(r.Context(), a.caller(r), input.TemplateID, input.ClientID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, started)
}

func (a *API) deleteInstance(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Engine().Delete(r.Context(), a.caller(r), mux.Vars(r)["id"]); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, nil)
}

func (a *API) instanceByNumber(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["number"]
	number, err := parseProcessNumber(raw)
	if err != nil {
		a.writeError(w, r, fault.NewValidation("invalid process number %q", raw))
		return
	}
	found, err := a.service.Engine().ByNumber(r.Context(), number)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, found)
}

func (a *API) instanceSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := a.service.Engine().Steps(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, steps)
}

func (a *API) instanceReport(w http.ResponseWriter, r *http.Request) {
	built, err := a.service.Reports().Build(r.Context(), a.caller(r), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, built)
}

// ── Step executions ─────────────────────────────────────────────

type executeStepRequest struct {
	FormData map[string]interface{} `json:"formData"`
	Notes    string                 `json:"notes,omitempty"`
}

func (a *API) executeStep(w http.ResponseWriter, r *http.Request) {
	var input executeStepRequest
	if !a.decode(w, r, &input) {
		return
	}
	executed, err := a.service.Engine().ExecuteStep(r.Context(), a.caller(r), mux.Vars(r)["id"], input.FormData, input.Notes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, executed)
}

func (a *API) skipStep(w http.ResponseWriter, r *http.Request) {
	skipped, err := a.service.Engine().SkipStep(r.Context(), a.caller(r), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, skipped)
}

func (a *API) myTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := a.service.Engine().MyTasks(r.Context(), a.caller(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tasks)
}

// parseProcessNumber accepts both the raw integer and the rendered
// "PROC-000123" form.
func parseProcessNumber(raw string) (int64, error) {
	trimmed := strings.TrimPrefix(strings.ToUpper(raw), "PROC-")
	return strconv.ParseInt(trimmed, 10, 64)
}
