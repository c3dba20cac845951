package odoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/model"
)

// Content types accepted for a downloaded workbook.
const (
	ContentTypeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeOctet = "application/octet-stream"
)

// DownloadArtifact fetches the rendered workbook for a generated report.
func (c *Client) DownloadArtifact(ctx context.Context, session model.Session, req model.ReportRequest, wizardID int64, reportName string) ([]byte, error) {
	if session.CSRFToken == "" {
		return nil, common.NewFatalStepError(common.ErrDownload, "download", "session has no csrf token", nil)
	}

	form, err := c.downloadForm(session, req, wizardID, reportName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.DownloadTimeout)
	defer cancel()

	endpoint := c.config.endpoint("/report/download")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("X-CSRF-Token", session.CSRFToken)
	httpReq.Header.Set("Referer", c.config.endpoint("/web"))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &common.StepError{Kind: common.ErrDownload, Step: "download", Err: err, Transient: true}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.StepError{Kind: common.ErrDownload, Step: "download", Err: err, Transient: true}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &common.StepError{
			Kind:      common.ErrDownload,
			Step:      "download",
			Err:       &common.HTTPError{URL: endpoint, StatusCode: resp.StatusCode, Body: excerpt(body)},
			Transient: true,
		}
	}

	ctype := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(ctype, ContentTypeXLSX) && !strings.Contains(ctype, ContentTypeOctet) {
		return nil, common.NewStepError(common.ErrDownload, "download",
			fmt.Sprintf("unexpected content type %q: %s", ctype, excerpt(body)))
	}

	c.logger.Info("report downloaded", "report_name", reportName, "bytes", len(body))
	return body, nil
}

// downloadForm builds the form the web client posts to /report/download:
// a JSON [url, type] pair whose url carries the report options and context.
func (c *Client) downloadForm(session model.Session, req model.ReportRequest, wizardID int64, reportName string) (url.Values, error) {
	reportCtx := c.userContext(session, req)
	reportCtx["active_model"] = c.config.Model
	reportCtx["active_id"] = wizardID
	reportCtx["active_ids"] = []int64{wizardID}

	options, err := json.Marshal(wizardValues(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode report options: %w", err)
	}
	contextJSON, err := json.Marshal(reportCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report context: %w", err)
	}

	query := url.Values{}
	query.Set("options", string(options))
	query.Set("context", string(contextJSON))
	reportPath := fmt.Sprintf("/report/xlsx/%s?%s", reportName, query.Encode())

	data, err := json.Marshal([]string{reportPath, "xlsx"})
	if err != nil {
		return nil, fmt.Errorf("failed to encode report path: %w", err)
	}

	form := url.Values{}
	form.Set("data", string(data))
	form.Set("context", string(contextJSON))
	// The controller requires a token field but never checks its value.
	form.Set("token", "dummy-because-api-expects-one")
	form.Set("csrf_token", session.CSRFToken)
	return form, nil
}
