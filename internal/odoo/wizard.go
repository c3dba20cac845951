package odoo

import (
	"context"
	"fmt"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/model"
)

// relationalFields are many2one fields the web client reads with their
// display name.
var relationalFields = []string{"employee_id", "mode_company_id", "category_id", "department_id"}

// plainFields are the scalar fields of the attendance report wizard.
var plainFields = []string{"report_type", "date_from", "date_to", "is_company", "atten_type", "types", "mode_type", "company_all"}

// fieldSpec lists the fields onchange and web_save read back.
func fieldSpec() map[string]any {
	spec := make(map[string]any, len(plainFields)+len(relationalFields))
	for _, f := range plainFields {
		spec[f] = map[string]any{}
	}
	for _, f := range relationalFields {
		spec[f] = map[string]any{"fields": map[string]any{"display_name": map[string]any{}}}
	}
	return spec
}

// wizardValues are the field values saved on the wizard record. The same
// filters are later passed to the xlsx renderer as report options.
func wizardValues(req model.ReportRequest) map[string]any {
	values := map[string]any{
		"report_type":     req.ReportType,
		"date_from":       req.From(),
		"date_to":         req.To(),
		"is_company":      false,
		"atten_type":      false,
		"types":           false,
		"mode_type":       req.Mode,
		"employee_id":     false,
		"mode_company_id": false,
		"category_id":     false,
		"department_id":   false,
		"company_all":     model.CompanyScopeAll,
	}
	switch req.Mode {
	case model.ModeCategory:
		values["category_id"] = req.CategoryID
	case model.ModeCompany:
		values["mode_company_id"] = req.CompanyID
	}
	return values
}

// Onchange asks the server for the wizard's default values. It changes
// nothing server-side and mirrors what the web form does when opened.
func (c *Client) Onchange(ctx context.Context, session model.Session, req model.ReportRequest) (map[string]any, error) {
	args := []any{[]any{}, map[string]any{}, []any{}, fieldSpec()}
	kwargs := map[string]any{"context": c.userContext(session, req)}

	var result struct {
		Value map[string]any `json:"value"`
	}
	if err := c.callKW(ctx, c.config.Model, "onchange", args, kwargs, &result); err != nil {
		return nil, classifyRPC(err, common.ErrProtocol, "onchange")
	}

	c.logger.Debug("onchange defaults", "fields", len(result.Value))
	return result.Value, nil
}

// ConfigureReport saves a new wizard record with the request's filters and
// returns its id. Each call creates a new record.
func (c *Client) ConfigureReport(ctx context.Context, session model.Session, req model.ReportRequest) (int64, error) {
	args := []any{[]any{}, wizardValues(req)}
	kwargs := map[string]any{
		"context":       c.userContext(session, req),
		"specification": fieldSpec(),
	}

	var records []struct {
		ID int64 `json:"id"`
	}
	if err := c.callKW(ctx, c.config.Model, "web_save", args, kwargs, &records); err != nil {
		return 0, classifyRPC(err, common.ErrConfiguration, "web_save")
	}
	if len(records) == 0 || records[0].ID <= 0 {
		return 0, common.NewStepError(common.ErrConfiguration, "web_save", "response has no record id")
	}

	c.logger.Info("wizard saved", "wizard_id", records[0].ID)
	return records[0].ID, nil
}

// FindWizard looks for the newest wizard record this user saved with the
// same filters, so a retried configure step can reuse it.
func (c *Client) FindWizard(ctx context.Context, session model.Session, req model.ReportRequest) (int64, bool, error) {
	values := wizardValues(req)
	domain := []any{
		[]any{"create_uid", "=", session.UID},
		[]any{"report_type", "=", values["report_type"]},
		[]any{"date_from", "=", values["date_from"]},
		[]any{"date_to", "=", values["date_to"]},
		[]any{"mode_type", "=", values["mode_type"]},
		[]any{"category_id", "=", values["category_id"]},
		[]any{"mode_company_id", "=", values["mode_company_id"]},
	}
	kwargs := map[string]any{
		"domain":  domain,
		"fields":  []string{"id"},
		"limit":   1,
		"order":   "id desc",
		"context": c.userContext(session, req),
	}

	var records []struct {
		ID int64 `json:"id"`
	}
	if err := c.callKW(ctx, c.config.Model, "search_read", []any{}, kwargs, &records); err != nil {
		return 0, false, classifyRPC(err, common.ErrProtocol, "search_read")
	}
	if len(records) == 0 || records[0].ID <= 0 {
		return 0, false, nil
	}
	return records[0].ID, true, nil
}

// TriggerGeneration presses the wizard's xlsx button and returns the name of
// the report action to download.
func (c *Client) TriggerGeneration(ctx context.Context, session model.Session, req model.ReportRequest, wizardID int64) (string, error) {
	params := map[string]any{
		"model":  c.config.Model,
		"method": c.config.ButtonMethod,
		"args":   []any{[]int64{wizardID}},
		"kwargs": map[string]any{"context": c.userContext(session, req)},
	}

	var action struct {
		ReportName string `json:"report_name"`
	}
	if err := c.call(ctx, "/web/dataset/call_button", params, c.config.ButtonTimeout, &action); err != nil {
		return "", classifyRPC(err, common.ErrGeneration, "call_button")
	}
	if action.ReportName == "" {
		return "", common.NewStepError(common.ErrGeneration, "call_button", fmt.Sprintf("wizard %d returned no report_name", wizardID))
	}

	c.logger.Info("report generated", "report_name", action.ReportName, "wizard_id", wizardID)
	return action.ReportName, nil
}
