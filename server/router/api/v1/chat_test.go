package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mesero-ai/mesero/ai/agent"
	"github.com/mesero-ai/mesero/internal/metrics"
	"github.com/mesero-ai/mesero/internal/profile"
	"github.com/mesero-ai/mesero/store"
)

// fakeDriver satisfies store.Driver with canned data for handler tests.
type fakeDriver struct {
	turnsByConversation map[string][]*store.ConversationTurn
	conversations       map[string][]*store.ConversationSummary
	lineItemsByGroup    map[int64][]*store.LineItem
	unpaid              []*store.LineItem
	feedback            map[string]bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		turnsByConversation: map[string][]*store.ConversationTurn{},
		conversations:       map[string][]*store.ConversationSummary{},
		lineItemsByGroup:    map[int64][]*store.LineItem{},
		feedback:            map[string]bool{},
	}
}

func (d *fakeDriver) GetDB() *sql.DB                    { return nil }
func (d *fakeDriver) Close() error                      { return nil }
func (d *fakeDriver) Migrate(ctx context.Context) error { return nil }

func (d *fakeDriver) CreateLineItemAssigningGroup(ctx context.Context, create *store.LineItem) (*store.LineItem, error) {
	return create, nil
}
func (d *fakeDriver) GetLatestLineItem(ctx context.Context) (*store.LineItem, error) {
	return nil, nil
}
func (d *fakeDriver) GetOpenLineItem(ctx context.Context, customerID string, since int64) (*store.LineItem, error) {
	return nil, nil
}
func (d *fakeDriver) GetLatestLineItemByAddress(ctx context.Context, address string, since int64) (*store.LineItem, error) {
	return nil, store.ErrNotFound
}
func (d *fakeDriver) ListLineItemsByGroup(ctx context.Context, groupID int64) ([]*store.LineItem, error) {
	return d.lineItemsByGroup[groupID], nil
}
func (d *fakeDriver) UpdateStatusByGroup(ctx context.Context, groupID int64, status store.LineItemStatus, updatedTs int64) error {
	rows, ok := d.lineItemsByGroup[groupID]
	if !ok {
		return store.ErrNotFound
	}
	for _, row := range rows {
		row.Status = status
		row.UpdatedTs = updatedTs
	}
	return nil
}
func (d *fakeDriver) ListUnpaidBetween(ctx context.Context, from, to int64) ([]*store.LineItem, error) {
	return d.unpaid, nil
}

func (d *fakeDriver) CreateTurn(ctx context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error) {
	return create, nil
}
func (d *fakeDriver) ListRecentTurns(ctx context.Context, userID string, limit int) ([]*store.ConversationTurn, error) {
	return nil, nil
}
func (d *fakeDriver) ListTurnsByConversation(ctx context.Context, conversationID string) ([]*store.ConversationTurn, error) {
	return d.turnsByConversation[conversationID], nil
}
func (d *fakeDriver) ListConversations(ctx context.Context, userID string) ([]*store.ConversationSummary, error) {
	return d.conversations[userID], nil
}
func (d *fakeDriver) SetTurnFeedback(ctx context.Context, turnUID string, helpful bool) error {
	if _, ok := d.feedback[turnUID]; !ok {
		return store.ErrNotFound
	}
	d.feedback[turnUID] = helpful
	return nil
}

func (d *fakeDriver) GetCustomer(ctx context.Context, customerID string) (*store.Customer, error) {
	return &store.Customer{ID: customerID}, nil
}
func (d *fakeDriver) UpsertCustomer(ctx context.Context, upsert *store.UpsertCustomer) (*store.Customer, error) {
	return &store.Customer{ID: upsert.ID}, nil
}
func (d *fakeDriver) ListProducts(ctx context.Context, find *store.FindProduct) ([]*store.Product, error) {
	return nil, nil
}

type fakeOrchestrator struct {
	gotReq *agent.ChatRequest
	result *agent.ChatResult
	err    error
}

func (f *fakeOrchestrator) ProcessMessage(ctx context.Context, req *agent.ChatRequest) (*agent.ChatResult, error) {
	f.gotReq = req
	return f.result, f.err
}

func newTestService(driver *fakeDriver, orchestrator ChatOrchestrator) (*APIV1Service, *echo.Echo) {
	p := &profile.Profile{DefaultRestaurant: "Macchiato"}
	service := NewAPIV1Service(p, store.New(driver, p), orchestrator, metrics.NewExporter(metrics.DefaultConfig()))
	e := echo.New()
	service.RegisterRoutes(e)
	return service, e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMessageHandler(t *testing.T) {
	orchestrator := &fakeOrchestrator{result: &agent.ChatResult{TurnUID: "abc123", Text: "Hello!"}}
	_, e := newTestService(newFakeDriver(), orchestrator)

	rec := postJSON(e, "/api/agent/chat/message",
		`{"query": "hi", "user_id": "573001112233", "conversation_id": "c1", "conversation_name": "lunch", "restaurant_name": "Macchiato"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp chatMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "abc123", resp.ID)
	require.Equal(t, "Hello!", resp.Text)

	require.Equal(t, "hi", orchestrator.gotReq.Query)
	require.Equal(t, "lunch", orchestrator.gotReq.ConversationLabel)
}

func TestMessageHandlerValidation(t *testing.T) {
	_, e := newTestService(newFakeDriver(), &fakeOrchestrator{})

	rec := postJSON(e, "/api/agent/chat/message", `{"query": "", "user_id": ""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoteHandler(t *testing.T) {
	driver := newFakeDriver()
	driver.feedback["abc123"] = false
	_, e := newTestService(driver, &fakeOrchestrator{})

	rec := postJSON(e, "/api/agent/chat/vote", `{"id": "abc123", "rate": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, driver.feedback["abc123"])

	var resp voteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "OK", resp.Text)
	require.True(t, resp.State)
}

func TestVoteHandlerNotFound(t *testing.T) {
	_, e := newTestService(newFakeDriver(), &fakeOrchestrator{})

	rec := postJSON(e, "/api/agent/chat/vote", `{"id": "missing", "rate": true}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionsHandler(t *testing.T) {
	driver := newFakeDriver()
	driver.conversations["u1"] = []*store.ConversationSummary{
		{ConversationID: "c1", ConversationLabel: "lunch", EarliestCreatedTs: 100},
	}
	_, e := newTestService(driver, &fakeOrchestrator{})

	rec := postJSON(e, "/api/agent/chat/sessions", `{"user_id": "u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "u1", resp.UserID)
	require.Len(t, resp.Sessions, 1)
	require.Equal(t, "lunch", resp.Sessions[0].ConversationName)
}

func TestSessionsHandlerEmptyIs404(t *testing.T) {
	_, e := newTestService(newFakeDriver(), &fakeOrchestrator{})

	rec := postJSON(e, "/api/agent/chat/sessions", `{"user_id": "nobody"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOneSessionHandler(t *testing.T) {
	driver := newFakeDriver()
	driver.turnsByConversation["c1"] = []*store.ConversationTurn{
		{UID: "t1", UserMessage: "hi", AssistantMessage: "hello", CreatedTs: 100},
	}
	_, e := newTestService(driver, &fakeOrchestrator{})

	rec := postJSON(e, "/api/agent/chat/get_one_session", `{"conversation_id": "c1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []turnEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "t1", entries[0].ID)
}

func TestGetOneSessionHandlerEmptyIs404(t *testing.T) {
	_, e := newTestService(newFakeDriver(), &fakeOrchestrator{})

	rec := postJSON(e, "/api/agent/chat/get_one_session", `{"conversation_id": "missing"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
