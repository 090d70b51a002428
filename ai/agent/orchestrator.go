package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mesero-ai/mesero/ai/llm"
	"github.com/mesero-ai/mesero/internal/metrics"
	"github.com/mesero-ai/mesero/internal/profile"
	"github.com/mesero-ai/mesero/plugin/whatsapp"
	"github.com/mesero-ai/mesero/store"
)

const (
	// apologyOracleDown is returned when the oracle cannot be reached at all.
	apologyOracleDown = "I'm sorry, I'm having trouble answering right now. Please try again in a moment. 🙏"

	// apologyGaveUp is returned when the round cap is exhausted without a
	// final answer.
	apologyGaveUp = "I'm sorry, I couldn't finish handling that request. Could you rephrase it or try again? 🙏"

	// persistTimeout bounds the detached turn save after the reply is ready.
	persistTimeout = 10 * time.Second
)

// ChatRequest is one inbound customer message.
type ChatRequest struct {
	Query             string
	UserID            string // WhatsApp number, doubles as customer id
	ConversationID    string
	ConversationLabel string
	RestaurantID      string
}

// ChatResult is the completed turn: the persisted turn identifier and
// the assistant's final text.
type ChatResult struct {
	TurnUID string
	Text    string
}

// Dispatcher is the capability surface the orchestrator drives. It is
// satisfied by Registry.
type Dispatcher interface {
	Descriptors() []llm.ToolDescriptor
	Dispatch(ctx context.Context, turn *TurnContext, name, rawArgs string) (string, error)
}

// TurnStore is the slice of the store the orchestrator needs. It is
// satisfied by *store.Store.
type TurnStore interface {
	GetCustomer(ctx context.Context, customerID string) (*store.Customer, error)
	ListRecentTurns(ctx context.Context, userID string, limit int) ([]*store.ConversationTurn, error)
	CreateTurn(ctx context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error)
}

// Orchestrator drives one chat turn: system prompt + bounded history +
// oracle rounds with capability dispatch, then a single persisted turn.
type Orchestrator struct {
	profile  *profile.Profile
	llm      llm.Service
	registry Dispatcher
	store    TurnStore
	bridge   *whatsapp.Client
	metrics  *metrics.Exporter
	limiter  *rate.Limiter
}

// NewOrchestrator wires the turn loop.
func NewOrchestrator(p *profile.Profile, oracle llm.Service, registry Dispatcher, st TurnStore, bridge *whatsapp.Client, exporter *metrics.Exporter) *Orchestrator {
	return &Orchestrator{
		profile:  p,
		llm:      oracle,
		registry: registry,
		store:    st,
		bridge:   bridge,
		metrics:  exporter,
		// Process-wide guard against runaway oracle loops.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// ProcessMessage runs the full turn. It always produces a reply: oracle
// failures and exhausted rounds degrade to an apology, and the turn is
// persisted on a detached context so a dropped client connection does
// not lose it.
func (o *Orchestrator) ProcessMessage(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("empty query")
	}
	restaurantID := req.RestaurantID
	if restaurantID == "" {
		restaurantID = o.profile.DefaultRestaurant
	}

	started := time.Now()

	turn := &TurnContext{
		CustomerID:        req.UserID,
		ConversationID:    req.ConversationID,
		ConversationLabel: req.ConversationLabel,
		RestaurantID:      restaurantID,
	}

	customer, err := o.store.GetCustomer(ctx, req.UserID)
	if err != nil {
		// A missing profile only costs prompt personalization.
		slog.Warn("failed to load customer profile", "customer_id", req.UserID, "error", err)
	}

	messages, err := o.buildMessages(ctx, req, restaurantID, customer)
	if err != nil {
		return nil, err
	}

	reply, rounds, success := o.runOracleLoop(ctx, turn, messages)

	uid := o.persistTurn(ctx, req, reply)
	o.metrics.RecordChatTurn(restaurantID, time.Since(started), rounds, success)
	o.relayReply(req.UserID, reply)

	return &ChatResult{TurnUID: uid, Text: reply}, nil
}

// buildMessages assembles system prompt + bounded history + the new
// user message.
func (o *Orchestrator) buildMessages(ctx context.Context, req *ChatRequest, restaurantID string, customer *store.Customer) ([]llm.Message, error) {
	window := o.profile.HistoryWindow
	if window <= 0 {
		window = 10
	}

	history, err := o.store.ListRecentTurns(ctx, req.UserID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	messages := []llm.Message{llm.SystemPrompt(BuildSystemPrompt(time.Now(), restaurantID, customer))}
	// ListRecentTurns returns newest first; the oracle wants oldest first.
	for i := len(history) - 1; i >= 0; i-- {
		messages = append(messages,
			llm.UserMessage(history[i].UserMessage),
			llm.AssistantMessage(history[i].AssistantMessage),
		)
	}
	messages = append(messages, llm.UserMessage(req.Query))
	return messages, nil
}

// runOracleLoop runs bounded ChatWithTools rounds. It returns the final
// reply text, the number of rounds consumed, and whether the turn ended
// with a real answer rather than an apology.
func (o *Orchestrator) runOracleLoop(ctx context.Context, turn *TurnContext, messages []llm.Message) (string, int, bool) {
	maxRounds := o.profile.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = 6
	}
	descriptors := o.registry.Descriptors()

	for round := 1; round <= maxRounds; round++ {
		if err := o.limiter.Wait(ctx); err != nil {
			slog.Warn("oracle rate limiter aborted", "error", err)
			return apologyOracleDown, round, false
		}

		response, stats, err := o.llm.ChatWithTools(ctx, messages, descriptors)
		if stats != nil {
			o.metrics.RecordLLMUsage(o.profile.LLMModel, o.profile.LLMProvider,
				stats.PromptTokens, stats.CompletionTokens,
				time.Duration(stats.TotalDurationMs)*time.Millisecond)
		}
		if err != nil {
			slog.Error("oracle call failed", "round", round, "error", err)
			return apologyOracleDown, round, false
		}

		slog.Debug("oracle round completed",
			"round", round,
			"tool_calls", len(response.ToolCalls),
			"content_length", len(response.Content),
		)

		if len(response.ToolCalls) == 0 {
			if response.Content == "" {
				return apologyGaveUp, round, false
			}
			return response.Content, round, true
		}

		if response.Content != "" {
			messages = append(messages, llm.AssistantMessage(response.Content))
		}
		messages = append(messages, o.runCapabilityBatch(ctx, turn, response.ToolCalls)...)
	}

	slog.Warn("oracle round cap exhausted", "max_rounds", maxRounds, "customer_id", turn.CustomerID)
	return apologyGaveUp, maxRounds, false
}

// runCapabilityBatch executes every requested capability concurrently
// and folds each outcome back as a conversation message. Failures are
// folded too; a capability error never aborts the turn.
func (o *Orchestrator) runCapabilityBatch(ctx context.Context, turn *TurnContext, calls []llm.ToolCall) []llm.Message {
	results := make([]string, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			result, err := o.registry.Dispatch(gctx, turn, call.Function.Name, call.Function.Arguments)
			if err != nil {
				result = fmt.Sprintf("Error: %v", err)
			}
			results[i] = result
			return nil
		})
	}
	// Workers never return errors; outcomes are folded into results.
	_ = g.Wait()

	messages := make([]llm.Message, len(calls))
	for i, call := range calls {
		messages[i] = llm.UserMessage(fmt.Sprintf("[Result from %s]: %s", call.Function.Name, results[i]))
	}
	return messages
}

// persistTurn saves the completed turn on a context detached from the
// request so a client disconnect after the reply is computed does not
// lose the write.
func (o *Orchestrator) persistTurn(ctx context.Context, req *ChatRequest, reply string) string {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	uid := shortuuid.New()
	_, err := o.store.CreateTurn(detached, &store.ConversationTurn{
		UID:               uid,
		UserID:            req.UserID,
		ConversationID:    req.ConversationID,
		ConversationLabel: req.ConversationLabel,
		UserMessage:       req.Query,
		AssistantMessage:  reply,
		CreatedTs:         time.Now().Unix(),
	})
	if err != nil {
		slog.Error("failed to persist turn",
			"conversation_id", req.ConversationID,
			"user_id", req.UserID,
			"error", err,
		)
	}
	return uid
}

// relayReply forwards the assistant reply to the customer's WhatsApp
// via the bridge, when one is configured. Best-effort.
func (o *Orchestrator) relayReply(userID, reply string) {
	if o.bridge == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := o.bridge.SendText(ctx, userID, reply); err != nil {
			slog.Warn("failed to relay reply over whatsapp", "user_id", userID, "error", err)
		}
	}()
}
