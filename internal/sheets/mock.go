package sheets

import (
	"context"
	"sync"

	"google.golang.org/api/sheets/v4"
)

// MockAPI is an in-memory implementation of API for testing.
type MockAPI struct {
	SheetIDs     map[string]int64
	UpdateFunc   func(call UpdateCall) error
	Clears       []string
	Updates      []UpdateCall
	BatchUpdates [][]*sheets.Request
	mu           sync.Mutex
}

// UpdateCall records a single values update.
type UpdateCall struct {
	SpreadsheetID string
	Range         string
	ValueInput    string
	Values        [][]any
}

// NewMockAPI creates a mock with one known tab.
func NewMockAPI(tab string, sheetID int64) *MockAPI {
	return &MockAPI{
		SheetIDs: map[string]int64{tab: sheetID},
	}
}

// SheetID implements API.
func (m *MockAPI) SheetID(_ context.Context, _ string, tab string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.SheetIDs[tab]
	if !ok {
		return 0, errTabNotFound(tab)
	}
	return id, nil
}

// Clear implements API.
func (m *MockAPI) Clear(_ context.Context, _ string, rng string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Clears = append(m.Clears, rng)
	return nil
}

// Update implements API. A failing UpdateFunc is still recorded.
func (m *MockAPI) Update(_ context.Context, spreadsheetID, rng string, values [][]any, valueInput string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := UpdateCall{
		SpreadsheetID: spreadsheetID,
		Range:         rng,
		ValueInput:    valueInput,
		Values:        values,
	}
	m.Updates = append(m.Updates, call)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(call)
	}
	return nil
}

// BatchUpdate implements API.
func (m *MockAPI) BatchUpdate(_ context.Context, _ string, requests []*sheets.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchUpdates = append(m.BatchUpdates, requests)
	return nil
}

// GetUpdates returns a copy of all update calls.
func (m *MockAPI) GetUpdates() []UpdateCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]UpdateCall, len(m.Updates))
	copy(calls, m.Updates)
	return calls
}
