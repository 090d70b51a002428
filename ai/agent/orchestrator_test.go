package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesero-ai/mesero/ai/llm"
	"github.com/mesero-ai/mesero/internal/metrics"
	"github.com/mesero-ai/mesero/internal/profile"
	"github.com/mesero-ai/mesero/store"
)

type fakeOracle struct {
	responses []*llm.ChatResponse
	errs      []error
	calls     [][]llm.Message
}

func (f *fakeOracle) Chat(ctx context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	return "", nil, errors.New("not used")
}

func (f *fakeOracle) ChatWithTools(ctx context.Context, messages []llm.Message, tools []llm.ToolDescriptor) (*llm.ChatResponse, *llm.CallStats, error) {
	round := len(f.calls)
	f.calls = append(f.calls, messages)
	if round < len(f.errs) && f.errs[round] != nil {
		return nil, nil, f.errs[round]
	}
	if round < len(f.responses) {
		return f.responses[round], &llm.CallStats{TotalTokens: 10}, nil
	}
	return &llm.ChatResponse{Content: "fallback"}, nil, nil
}

func (f *fakeOracle) Warmup(ctx context.Context) {}

type fakeDispatcher struct {
	results map[string]string
	errs    map[string]error
	calls   []string
	turns   []*TurnContext
}

func (f *fakeDispatcher) Descriptors() []llm.ToolDescriptor {
	return []llm.ToolDescriptor{{Name: "get_menu", Parameters: "{}"}}
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, turn *TurnContext, name, rawArgs string) (string, error) {
	f.calls = append(f.calls, name)
	f.turns = append(f.turns, turn)
	if err, ok := f.errs[name]; ok {
		return "", err
	}
	return f.results[name], nil
}

type fakeTurnStore struct {
	customer *store.Customer
	history  []*store.ConversationTurn
	created  []*store.ConversationTurn
}

func (f *fakeTurnStore) GetCustomer(ctx context.Context, customerID string) (*store.Customer, error) {
	if f.customer != nil {
		return f.customer, nil
	}
	return &store.Customer{ID: customerID}, nil
}

func (f *fakeTurnStore) ListRecentTurns(ctx context.Context, userID string, limit int) ([]*store.ConversationTurn, error) {
	return f.history, nil
}

func (f *fakeTurnStore) CreateTurn(ctx context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error) {
	f.created = append(f.created, create)
	return create, nil
}

func newTestOrchestrator(oracle *fakeOracle, dispatcher *fakeDispatcher, st *fakeTurnStore) *Orchestrator {
	p := &profile.Profile{
		DefaultRestaurant: "Macchiato",
		HistoryWindow:     10,
		MaxToolRounds:     3,
		LLMModel:          "test-model",
		LLMProvider:       "test",
	}
	return NewOrchestrator(p, oracle, dispatcher, st, nil, metrics.NewExporter(metrics.DefaultConfig()))
}

func TestProcessMessageDirectAnswer(t *testing.T) {
	oracle := &fakeOracle{responses: []*llm.ChatResponse{{Content: "Hello! Want to see the menu?"}}}
	dispatcher := &fakeDispatcher{}
	st := &fakeTurnStore{}

	result, err := newTestOrchestrator(oracle, dispatcher, st).ProcessMessage(context.Background(), &ChatRequest{
		Query:          "hi",
		UserID:         "573001112233",
		ConversationID: "conv-1",
	})
	require.NoError(t, err)
	require.Equal(t, "Hello! Want to see the menu?", result.Text)
	require.NotEmpty(t, result.TurnUID)
	require.Empty(t, dispatcher.calls)

	// The completed turn is persisted as a single row pairing both sides.
	require.Len(t, st.created, 1)
	require.Equal(t, "hi", st.created[0].UserMessage)
	require.Equal(t, "Hello! Want to see the menu?", st.created[0].AssistantMessage)
	require.Equal(t, result.TurnUID, st.created[0].UID)
}

func TestProcessMessageToolRound(t *testing.T) {
	oracle := &fakeOracle{responses: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{{ID: "1", Function: llm.FunctionCall{Name: "get_menu", Arguments: "{}"}}}},
		{Content: "We have burgers and pizza."},
	}}
	dispatcher := &fakeDispatcher{results: map[string]string{"get_menu": "Burger $10, Pizza $15"}}
	st := &fakeTurnStore{}

	result, err := newTestOrchestrator(oracle, dispatcher, st).ProcessMessage(context.Background(), &ChatRequest{
		Query:  "what do you have?",
		UserID: "573001112233",
	})
	require.NoError(t, err)
	require.Equal(t, "We have burgers and pizza.", result.Text)
	require.Equal(t, []string{"get_menu"}, dispatcher.calls)

	// The capability result is folded into the second round as a message.
	require.Len(t, oracle.calls, 2)
	last := oracle.calls[1][len(oracle.calls[1])-1]
	require.Equal(t, "user", last.Role)
	require.Equal(t, "[Result from get_menu]: Burger $10, Pizza $15", last.Content)

	// The turn context, not the oracle, decides the restaurant.
	require.Equal(t, "Macchiato", dispatcher.turns[0].RestaurantID)
	require.Equal(t, "573001112233", dispatcher.turns[0].CustomerID)
}

func TestProcessMessageCapabilityErrorIsFolded(t *testing.T) {
	oracle := &fakeOracle{responses: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{{ID: "1", Function: llm.FunctionCall{Name: "get_menu", Arguments: "{}"}}}},
		{Content: "Sorry, the menu is unavailable right now."},
	}}
	dispatcher := &fakeDispatcher{errs: map[string]error{"get_menu": fmt.Errorf("db down")}}
	st := &fakeTurnStore{}

	result, err := newTestOrchestrator(oracle, dispatcher, st).ProcessMessage(context.Background(), &ChatRequest{
		Query:  "menu please",
		UserID: "573001112233",
	})
	require.NoError(t, err)
	require.Equal(t, "Sorry, the menu is unavailable right now.", result.Text)

	last := oracle.calls[1][len(oracle.calls[1])-1]
	require.True(t, strings.HasPrefix(last.Content, "[Result from get_menu]: Error:"), "got %q", last.Content)
}

func TestProcessMessageOracleDown(t *testing.T) {
	oracle := &fakeOracle{errs: []error{errors.New("connection refused")}}
	st := &fakeTurnStore{}

	result, err := newTestOrchestrator(oracle, &fakeDispatcher{}, st).ProcessMessage(context.Background(), &ChatRequest{
		Query:  "hi",
		UserID: "573001112233",
	})
	require.NoError(t, err)
	require.Equal(t, apologyOracleDown, result.Text)

	// Even a degraded turn is persisted.
	require.Len(t, st.created, 1)
	require.Equal(t, apologyOracleDown, st.created[0].AssistantMessage)
}

func TestProcessMessageRoundCapExhausted(t *testing.T) {
	loop := &llm.ChatResponse{ToolCalls: []llm.ToolCall{{ID: "1", Function: llm.FunctionCall{Name: "get_menu", Arguments: "{}"}}}}
	oracle := &fakeOracle{responses: []*llm.ChatResponse{loop, loop, loop, loop}}
	dispatcher := &fakeDispatcher{results: map[string]string{"get_menu": "menu"}}
	st := &fakeTurnStore{}

	result, err := newTestOrchestrator(oracle, dispatcher, st).ProcessMessage(context.Background(), &ChatRequest{
		Query:  "hi",
		UserID: "573001112233",
	})
	require.NoError(t, err)
	require.Equal(t, apologyGaveUp, result.Text)
	require.Len(t, oracle.calls, 3) // MaxToolRounds
}

func TestProcessMessageHistoryOrder(t *testing.T) {
	oracle := &fakeOracle{responses: []*llm.ChatResponse{{Content: "ok"}}}
	st := &fakeTurnStore{
		// Newest first, as the store returns them.
		history: []*store.ConversationTurn{
			{UserMessage: "second question", AssistantMessage: "second answer"},
			{UserMessage: "first question", AssistantMessage: "first answer"},
		},
	}

	_, err := newTestOrchestrator(oracle, &fakeDispatcher{}, st).ProcessMessage(context.Background(), &ChatRequest{
		Query:  "third question",
		UserID: "573001112233",
	})
	require.NoError(t, err)

	messages := oracle.calls[0]
	require.Equal(t, "system", messages[0].Role)
	require.Equal(t, "first question", messages[1].Content)
	require.Equal(t, "first answer", messages[2].Content)
	require.Equal(t, "second question", messages[3].Content)
	require.Equal(t, "second answer", messages[4].Content)
	require.Equal(t, "third question", messages[5].Content)
}

func TestProcessMessageEmptyQuery(t *testing.T) {
	_, err := newTestOrchestrator(&fakeOracle{}, &fakeDispatcher{}, &fakeTurnStore{}).ProcessMessage(context.Background(), &ChatRequest{UserID: "1"})
	require.Error(t, err)
}
