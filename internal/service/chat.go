package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"realtychat/internal/metrics"
	"realtychat/internal/model"
	"realtychat/internal/session"
)

// ChatConfig holds the reply limits of a chat service
type ChatConfig struct {
	DisplayLimit int // cards per reply
	HistoryLimit int // messages kept in the session window
}

// ChatDeps are the collaborators of a chat service. Areas, Investments,
// Turns and Fallback are optional.
type ChatDeps struct {
	Parser      *IntentParser
	Search      *SearchService
	Sessions    session.Store
	Areas       AreaResolver
	Investments InvestmentStore
	Turns       TurnLogger
	Fallback    *FallbackResponder
	Logger      *zap.Logger
}

// ChatService runs one conversational turn end to end
type ChatService struct {
	parser      *IntentParser
	search      *SearchService
	sessions    session.Store
	areas       AreaResolver
	investments InvestmentStore
	turns       TurnLogger
	fallback    *FallbackResponder
	logger      *zap.Logger
	cfg         ChatConfig
}

// NewChatService creates a new chat service
func NewChatService(deps ChatDeps, cfg ChatConfig) *ChatService {
	if cfg.DisplayLimit <= 0 {
		cfg.DisplayLimit = 6
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := deps.Fallback
	if fallback == nil {
		fallback = NewFallbackResponder(nil, DefaultBreakerSettings(), logger)
	}
	return &ChatService{
		parser:      deps.Parser,
		search:      deps.Search,
		sessions:    deps.Sessions,
		areas:       deps.Areas,
		investments: deps.Investments,
		turns:       deps.Turns,
		fallback:    fallback,
		logger:      logger,
		cfg:         cfg,
	}
}

// HandleTurn classifies text, merges its slots into the session, answers and
// persists the new state. An empty sessionID starts a new session.
// Collaborator failures degrade the reply; only a cancelled context is an error.
func (s *ChatService) HandleTurn(ctx context.Context, sessionID, text string) (*model.TurnResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timer := prometheus.NewTimer(metrics.TurnLatency)
	defer timer.ObserveDuration()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	state, persist := s.loadState(ctx, sessionID)

	text = strings.TrimSpace(text)
	if text == "" {
		return &model.TurnResult{
			SessionID: sessionID,
			Intent:    model.IntentResult{Name: model.IntentFallback},
			Reply:     textReply(ReplyEmptyMessage),
			Session:   state,
		}, nil
	}

	parsed := s.parser.Parse(text)
	intent := parsed.Intent

	// reset wins over anything else stated in the same text
	if intent.Name == model.IntentReset {
		state.Reset()
		reply := textReply(ReplyReset)
		if persist {
			s.saveState(ctx, state)
		}
		s.logTurn(ctx, state, text, intent, model.Slots{}, reply, model.ModeNone)
		metrics.TurnsTotal.WithLabelValues(intent.Name, string(reply.Type)).Inc()
		return &model.TurnResult{SessionID: sessionID, Intent: intent, Reply: reply, Session: state}, nil
	}

	incoming := parsed.Slots.Clone()
	if intent.Name == model.IntentNearest {
		if area, ok := s.parser.NearArea(text); ok {
			incoming.City = &area
		}
	}
	if incoming.City != nil {
		city := s.resolveArea(ctx, *incoming.City)
		incoming.City = &city
	}

	state.Slots = model.Merge(state.Slots, incoming)
	state.TurnIndex++
	state.History = session.AppendHistory(state.History, "user", text, s.cfg.HistoryLimit)

	reply, mode := s.route(ctx, intent.Name, incoming, state)

	state.History = session.AppendHistory(state.History, "assistant", historyEntry(reply), s.cfg.HistoryLimit)
	if persist {
		s.saveState(ctx, state)
	}
	s.logTurn(ctx, state, text, intent, incoming, reply, mode)
	metrics.TurnsTotal.WithLabelValues(intent.Name, string(reply.Type)).Inc()

	return &model.TurnResult{
		SessionID: sessionID,
		Intent:    intent,
		Slots:     incoming,
		Reply:     reply,
		Session:   state,
	}, nil
}

// ResetSession drops the stored state of a session
func (s *ChatService) ResetSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Session returns the stored state, or nil when there is none
func (s *ChatService) Session(ctx context.Context, sessionID string) (*model.SessionState, error) {
	return s.sessions.Get(ctx, sessionID)
}

func (s *ChatService) route(ctx context.Context, intent string, incoming model.Slots, state *model.SessionState) (model.Reply, model.RelaxMode) {
	statesSearch := incoming.City != nil || incoming.Type != nil

	switch intent {
	case model.IntentSetBudget, model.IntentSetLocation, model.IntentSetType,
		model.IntentRentOrBuy, model.IntentBrowse:
		return s.searchReply(ctx, intent, state.Slots)

	case model.IntentNearest:
		return s.nearestReply(ctx, state.Slots)

	case model.IntentInvestment:
		return s.investmentReply(ctx), model.ModeNone

	case model.IntentGreet, model.IntentFallback:
		// "hi, houses in kandy" is a search
		if statesSearch {
			return s.searchReply(ctx, model.IntentBrowse, state.Slots)
		}
	}

	if content, ok := faqReplies[intent]; ok {
		return textReply(content), model.ModeNone
	}
	return textReply(s.fallback.Respond(ctx, state.History, contextBlob(state.Slots))), model.ModeNone
}

func (s *ChatService) searchReply(ctx context.Context, intent string, slots model.Slots) (model.Reply, model.RelaxMode) {
	out, err := s.search.Search(ctx, slots)
	var insufficient *InsufficientFiltersError
	switch {
	case errors.As(err, &insufficient):
		return clarifyReply(intent, insufficient.Missing), model.ModeNone
	case err != nil:
		s.logger.Error("Search failed", zap.Error(err))
		return textReply(ReplyDegraded), model.ModeNone
	case out.Degraded:
		return textReply(ReplyDegraded), out.Mode
	case len(out.Listings) == 0:
		return textReply(s.search.NoMatchHint(ctx, slots)), out.Mode
	}
	return s.cardsReply(out), out.Mode
}

// nearestReply searches the named area, defaulting the type to apartment.
// The default is not stored in the session.
func (s *ChatService) nearestReply(ctx context.Context, slots model.Slots) (model.Reply, model.RelaxMode) {
	if slots.City == nil {
		return textReply(ReplyNearestNoArea), model.ModeNone
	}
	q := slots.Clone()
	if q.Type == nil {
		q.Type = model.TypePtr(model.TypeApartment)
	}
	out, err := s.search.Search(ctx, q)
	switch {
	case err != nil:
		s.logger.Error("Nearest search failed", zap.Error(err))
		return textReply(ReplyDegraded), model.ModeNone
	case out.Degraded:
		return textReply(ReplyDegraded), out.Mode
	case len(out.Listings) == 0:
		return textReply(ReplyNearestNone), out.Mode
	}
	return s.cardsReply(out), out.Mode
}

func (s *ChatService) cardsReply(out model.SearchOutcome) model.Reply {
	return model.Reply{
		Type:    model.ReplyCards,
		Preface: out.Preface,
		Mode:    out.Mode,
		Items:   BuildCards(out.Listings, out.Mode, s.cfg.DisplayLimit),
	}
}

func (s *ChatService) investmentReply(ctx context.Context) model.Reply {
	if s.investments == nil {
		return textReply(ReplyNoInvestments)
	}
	items, err := s.investments.OpenInvestments(ctx, s.cfg.DisplayLimit)
	if err != nil {
		s.logger.Error("Investments lookup failed", zap.Error(err))
		metrics.StoreErrors.WithLabelValues("investments").Inc()
		return textReply(ReplyDegraded)
	}
	if len(items) == 0 {
		return textReply(ReplyNoInvestments)
	}
	return model.Reply{
		Type:        model.ReplyInvestments,
		Content:     "Here are the open investment plans.",
		Investments: items,
	}
}

func (s *ChatService) resolveArea(ctx context.Context, area string) string {
	if s.areas == nil {
		return area
	}
	city, err := s.areas.ResolveArea(ctx, area)
	if err != nil {
		s.logger.Warn("Area resolution failed", zap.String("area", area), zap.Error(err))
		metrics.StoreErrors.WithLabelValues("areas").Inc()
		return area
	}
	if city == "" {
		return area
	}
	return city
}

// loadState returns the stored state, or a fresh one for a new session.
// When the store cannot be read the turn runs on a scratch state and persist
// is false, so the stored session is left as it was.
func (s *ChatService) loadState(ctx context.Context, id string) (state *model.SessionState, persist bool) {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		s.logger.Warn("Session load failed, answering without saving", zap.String("session_id", id), zap.Error(err))
		metrics.StoreErrors.WithLabelValues("session").Inc()
		return model.NewSessionState(id), false
	}
	if state == nil {
		state = model.NewSessionState(id)
	}
	return state, true
}

func (s *ChatService) saveState(ctx context.Context, state *model.SessionState) {
	if err := s.sessions.Save(ctx, state); err != nil {
		s.logger.Warn("Session save failed", zap.String("session_id", state.ID), zap.Error(err))
		metrics.StoreErrors.WithLabelValues("session").Inc()
	}
}

func (s *ChatService) logTurn(ctx context.Context, state *model.SessionState, text string, intent model.IntentResult, slots model.Slots, reply model.Reply, mode model.RelaxMode) {
	if s.turns == nil {
		return
	}
	count := len(reply.Items)
	if reply.Type == model.ReplyInvestments {
		count = len(reply.Investments)
	}
	err := s.turns.LogTurn(ctx, model.TurnLog{
		SessionID:   state.ID,
		TurnIndex:   state.TurnIndex,
		UserText:    text,
		Intent:      intent.Name,
		Confidence:  intent.Confidence,
		Slots:       slots,
		ReplyType:   string(reply.Type),
		ResultCount: count,
		RelaxMode:   string(mode),
	})
	if err != nil {
		s.logger.Warn("Turn log failed", zap.String("session_id", state.ID), zap.Error(err))
		metrics.StoreErrors.WithLabelValues("turns").Inc()
	}
}
