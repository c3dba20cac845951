package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type fakeSheetsServer struct {
	t           *testing.T
	requests    []string
	updateCodes []int
	bodies      map[string]map[string]any
}

func (f *fakeSheetsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/v4/spreadsheets/sheet-1"):
		_, _ = io.WriteString(w, `{"sheets":[{"properties":{"sheetId":0,"title":"Summary"}},{"properties":{"sheetId":99,"title":"OT"}}]}`)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	case r.Method == http.MethodPut:
		if len(f.updateCodes) > 0 {
			code := f.updateCodes[0]
			f.updateCodes = f.updateCodes[1:]
			w.WriteHeader(code)
			_, _ = io.WriteString(w, `{"error":{"code":`+strconv.Itoa(code)+`,"message":"Quota exceeded for quota metric 'Write requests'","status":"RESOURCE_EXHAUSTED"}}`)
			return
		}
		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.bodies[r.URL.Query().Get("valueInputOption")+" "+path] = body
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.bodies["batchUpdate"] = body
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	default:
		http.NotFound(w, r)
	}
}

func newFakeSheets(t *testing.T) (*fakeSheetsServer, API) {
	t.Helper()
	fake := &fakeSheetsServer{t: t, bodies: map[string]map[string]any{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return fake, NewGoogleAPI(srv)
}

func TestGoogleAPI_SheetID(t *testing.T) {
	_, api := newFakeSheets(t)

	id, err := api.SheetID(context.Background(), "sheet-1", "OT")
	require.NoError(t, err)
	assert.Equal(t, int64(99), id)

	_, err = api.SheetID(context.Background(), "sheet-1", "Missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGoogleAPI_PublishRoundTrip(t *testing.T) {
	fake, api := newFakeSheets(t)
	p, _ := newTestPublisher(api, 200)

	dest := model.Destination{SpreadsheetID: "sheet-1", Tab: "OT"}
	result, err := p.Publish(context.Background(), dest, makeTable(3, 5), model.DefaultLayout(47))
	require.NoError(t, err)
	assert.Equal(t, 4, result.RowsWritten)

	var dataBody map[string]any
	for key, body := range fake.bodies {
		if strings.HasPrefix(key, "USER_ENTERED") && strings.Contains(key, "A1:E4") {
			dataBody = body
		}
	}
	require.NotNil(t, dataBody, "data update not received: %v", fake.requests)
	assert.Len(t, dataBody["values"], 4)

	batch := fake.bodies["batchUpdate"]
	require.NotNil(t, batch)
	requests := batch["requests"].([]any)
	require.Len(t, requests, 1)
	grid := requests[0].(map[string]any)["repeatCell"].(map[string]any)["range"].(map[string]any)
	assert.Equal(t, float64(99), grid["sheetId"])
	assert.Equal(t, float64(3), grid["startRowIndex"])
	assert.Equal(t, float64(4), grid["endRowIndex"])
}

func TestGoogleAPI_QuotaIsClassified(t *testing.T) {
	fake, api := newFakeSheets(t)
	fake.updateCodes = []int{http.StatusTooManyRequests}

	err := api.Update(context.Background(), "sheet-1", "'OT'!A1:B2", [][]any{{"a", "b"}}, model.ValueInputRaw)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrQuota)
	assert.True(t, common.IsTransient(err))
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		err       error
		name      string
		quota     bool
		transient bool
	}{
		{name: "nil", err: nil},
		{name: "rate limited", err: &googleapi.Error{Code: 429}, quota: true, transient: true},
		{name: "quota message", err: &googleapi.Error{Code: 403, Message: "Quota exceeded for quota metric"}, quota: true, transient: true},
		{name: "server error", err: &googleapi.Error{Code: 503}, transient: true},
		{name: "bad request", err: &googleapi.Error{Code: 400, Message: "Unable to parse range"}},
		{name: "other", err: errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyAPIError(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.quota, errors.Is(got, common.ErrQuota))
			assert.Equal(t, tt.transient, common.IsTransient(got))
		})
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, saveToken(path, token))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, loaded.Expiry.Equal(token.Expiry))

	valid, err := RefreshTokenIfNeeded(context.Background(), OAuth2Config{}, loaded, nil)
	require.NoError(t, err)
	assert.Equal(t, "access", valid.AccessToken)
}

func TestNewService_MissingServiceAccount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServiceAccountPath = filepath.Join(t.TempDir(), "missing.json")
	_, err := NewService(context.Background(), cfg)
	assert.Error(t, err)
}
