package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"realtychat/internal/model"
	"realtychat/internal/nlp"
	"realtychat/internal/session"
)

type chatHarness struct {
	svc         *ChatService
	store       *fakeListings
	sessions    session.Store
	flaky       *flakySessions
	turns       *fakeTurns
	investments *fakeInvestments
}

func newChatHarness(t *testing.T, rows ...model.Listing) *chatHarness {
	t.Helper()
	sessions, err := session.NewStore(session.StoreTypeMemory)
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })

	h := &chatHarness{
		store:       &fakeListings{rows: rows},
		sessions:    sessions,
		flaky:       &flakySessions{Store: sessions},
		turns:       &fakeTurns{},
		investments: &fakeInvestments{},
	}
	h.svc = NewChatService(ChatDeps{
		Parser:   NewIntentParser(nlp.DefaultVocabulary()),
		Search:   NewSearchService(h.store, nil, 20, zap.NewNop()),
		Sessions: h.flaky,
		Areas: &fakeAreas{ResolveFunc: func(area string) (string, error) {
			if area == "Borella" {
				return "Colombo", nil
			}
			return area, nil
		}},
		Investments: h.investments,
		Turns:       h.turns,
		Logger:      zap.NewNop(),
	}, ChatConfig{DisplayLimit: 6, HistoryLimit: 4})
	return h
}

// flakySessions fails reads while getErr is set
type flakySessions struct {
	session.Store
	getErr error
}

func (f *flakySessions) Get(ctx context.Context, id string) (*model.SessionState, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx, id)
}

func (h *chatHarness) turn(t *testing.T, sid, text string) *model.TurnResult {
	t.Helper()
	res, err := h.svc.HandleTurn(context.Background(), sid, text)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestHandleTurn_Scenario(t *testing.T) {
	h := newChatHarness(t,
		listing(1, "Galle", model.TypeApartment, 75_000_000, 3, false),
		listing(2, "Galle", model.TypeApartment, 60_000_000, 4, true),
		listing(3, "Galle", model.TypeApartment, 95_000_000, 3, false),
		listing(4, "Galle", model.TypeApartment, 40_000_000, 2, false),
	)

	res := h.turn(t, "s1", "3BR apartments in Galle under 80M")
	assert.Equal(t, model.IntentBrowse, res.Intent.Name)
	assert.Equal(t, "s1", res.SessionID)
	assert.Equal(t, []string{"city", "type", "beds", "price_max"}, res.Slots.Keys())

	require.Equal(t, model.ReplyCards, res.Reply.Type)
	assert.Equal(t, model.ModeExact, res.Reply.Mode)
	require.Len(t, res.Reply.Items, 2)
	assert.Equal(t, int64(2), res.Reply.Items[0].ID)
	assert.Equal(t, BadgeFeatured, res.Reply.Items[0].Badge)
	assert.Equal(t, int64(1), res.Reply.Items[1].ID)

	assert.Equal(t, 1, res.Session.TurnIndex)

	require.Len(t, h.turns.logs, 1)
	log := h.turns.logs[0]
	assert.Equal(t, "s1", log.SessionID)
	assert.Equal(t, 1, log.TurnIndex)
	assert.Equal(t, "cards", log.ReplyType)
	assert.Equal(t, 2, log.ResultCount)
	assert.Equal(t, "exact", log.RelaxMode)
}

func TestHandleTurn_SlotsAccumulate(t *testing.T) {
	h := newChatHarness(t, listing(1, "Kandy", model.TypeHouse, 40_000_000, 3, false))

	first := h.turn(t, "s1", "houses in Kandy")
	assert.Equal(t, model.ReplyCards, first.Reply.Type)

	second := h.turn(t, "s1", "under 50m")
	assert.Equal(t, model.IntentSetBudget, second.Intent.Name)
	assert.Equal(t, []string{"price_max"}, second.Slots.Keys())
	assert.Equal(t, []string{"city", "type", "price_max"}, second.Session.Slots.Keys())
	assert.Equal(t, model.ReplyCards, second.Reply.Type)
	assert.Equal(t, 2, second.Session.TurnIndex)

	stored, err := h.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(50_000_000), *stored.Slots.PriceMax)
	assert.Len(t, stored.History, 4)
}

func TestHandleTurn_CityChangeDropsType(t *testing.T) {
	h := newChatHarness(t, listing(1, "Galle", model.TypeHouse, 40_000_000, 3, false))

	h.turn(t, "s1", "3BR houses in Kandy under 50m")
	res := h.turn(t, "s1", "show me something in Galle")

	assert.Equal(t, model.IntentSetLocation, res.Intent.Name)
	assert.Equal(t, []string{"city"}, res.Session.Slots.Keys())
	assert.Equal(t, "Galle", *res.Session.Slots.City)
	assert.Equal(t, model.ReplyCards, res.Reply.Type)
}

func TestHandleTurn_Reset(t *testing.T) {
	h := newChatHarness(t)

	h.turn(t, "s1", "houses in Kandy under 50m")
	res := h.turn(t, "s1", "reset apartments in Galle")

	assert.Equal(t, model.IntentReset, res.Intent.Name)
	assert.Equal(t, ReplyReset, res.Reply.Content)
	assert.Empty(t, res.Slots.Keys())
	assert.Empty(t, res.Session.Slots.Keys())
	assert.Equal(t, 0, res.Session.TurnIndex)

	stored, err := h.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, stored.Slots.IsEmpty())
}

func TestHandleTurn_ResetBeatsOtherPhrases(t *testing.T) {
	h := newChatHarness(t, listing(1, "Galle", model.TypeApartment, 75_000_000, 3, false))

	h.turn(t, "s1", "3BR apartments in Galle under 80M")
	res := h.turn(t, "s1", "clear my search thank you")

	assert.Equal(t, model.IntentReset, res.Intent.Name)
	assert.Equal(t, ReplyReset, res.Reply.Content)

	stored, err := h.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, stored.Slots.IsEmpty())
}

func TestHandleTurn_SessionReadFailureKeepsStoredState(t *testing.T) {
	h := newChatHarness(t, listing(1, "Galle", model.TypeApartment, 75_000_000, 3, false))

	h.turn(t, "s1", "3BR apartments in Galle under 80M")

	h.flaky.getErr = errors.New("connection refused")
	res := h.turn(t, "s1", "thanks")
	assert.Equal(t, model.IntentThanks, res.Intent.Name)
	assert.Equal(t, ReplyThanks, res.Reply.Content)

	reset := h.turn(t, "s1", "start over")
	assert.Equal(t, ReplyReset, reset.Reply.Content)
	h.flaky.getErr = nil

	stored, err := h.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []string{"city", "type", "beds", "price_max"}, stored.Slots.Keys())
	assert.Equal(t, 1, stored.TurnIndex)
	assert.Len(t, stored.History, 2)

	// the next healthy turn continues the stored session
	next := h.turn(t, "s1", "under 90m")
	assert.Equal(t, 2, next.Session.TurnIndex)
	assert.Equal(t, "Galle", *next.Session.Slots.City)
}

func TestHandleTurn_Greet(t *testing.T) {
	h := newChatHarness(t)

	res := h.turn(t, "", "hi")
	assert.NotEmpty(t, res.SessionID, "a session id is minted")
	assert.Equal(t, model.IntentGreet, res.Intent.Name)
	assert.GreaterOrEqual(t, res.Intent.Confidence, 1.0/3.0)
	assert.Equal(t, model.ReplyText, res.Reply.Type)
	assert.Equal(t, ReplyGreet, res.Reply.Content)
	assert.Empty(t, h.store.Queries())
}

func TestHandleTurn_GreetWithSearch(t *testing.T) {
	h := newChatHarness(t, listing(1, "Kandy", model.TypeHouse, 40_000_000, 3, false))

	res := h.turn(t, "s1", "hi, houses in kandy")
	assert.Equal(t, model.IntentGreet, res.Intent.Name)
	assert.Equal(t, model.ReplyCards, res.Reply.Type)
}

func TestHandleTurn_Clarify(t *testing.T) {
	h := newChatHarness(t)

	res := h.turn(t, "s1", "under 50m")
	assert.Equal(t, model.ReplyClarify, res.Reply.Type)
	assert.Equal(t, []string{MissingCity, MissingType}, res.Reply.Missing)
	assert.Equal(t, "Got it. To refine, tell me your city or property type.", res.Reply.Content)

	res = h.turn(t, "s2", "looking for property")
	assert.Equal(t, model.ReplyClarify, res.Reply.Type)
	assert.Contains(t, res.Reply.Content, "To search, tell me your city or property type")
}

func TestHandleTurn_Relaxed(t *testing.T) {
	h := newChatHarness(t, listing(1, "Matara", model.TypeHouse, 72_500_000, 4, false))

	res := h.turn(t, "s1", "houses in Matara under 60M")
	require.Equal(t, model.ReplyCards, res.Reply.Type)
	assert.Equal(t, model.ModeRaiseBudget, res.Reply.Mode)
	assert.Equal(t, "Nothing under LKR 60,000,000. Here are options up to LKR 75,000,000.", res.Reply.Preface)
	assert.Equal(t, BadgeSimilar, res.Reply.Items[0].Badge)

	// the relaxed budget is not written back into the session
	assert.Equal(t, int64(60_000_000), *res.Session.Slots.PriceMax)
}

func TestHandleTurn_NoMatches(t *testing.T) {
	h := newChatHarness(t, listing(1, "Kandy", model.TypeLand, 10_000_000, 0, false))

	res := h.turn(t, "s1", "houses in Matara under 60M")
	assert.Equal(t, model.ReplyText, res.Reply.Type)
	assert.Equal(t, ReplyNoMatches, res.Reply.Content)
	assert.Equal(t, "none", h.turns.logs[0].RelaxMode)
}

func TestHandleTurn_StoreDown(t *testing.T) {
	h := newChatHarness(t)
	h.store.err = errors.New("connection refused")

	res := h.turn(t, "s1", "houses in Matara")
	assert.Equal(t, model.ReplyText, res.Reply.Type)
	assert.Equal(t, ReplyDegraded, res.Reply.Content)

	// the merged state is still kept
	assert.Equal(t, "Matara", *res.Session.Slots.City)
}

func TestHandleTurn_Nearest(t *testing.T) {
	h := newChatHarness(t,
		listing(1, "Colombo", model.TypeApartment, 40_000_000, 2, false),
		listing(2, "Colombo", model.TypeHouse, 90_000_000, 3, false),
	)

	res := h.turn(t, "s1", "nearest apartments to Borella")
	assert.Equal(t, model.IntentNearest, res.Intent.Name)
	assert.Equal(t, "Colombo", *res.Slots.City)
	require.Equal(t, model.ReplyCards, res.Reply.Type)
	require.Len(t, res.Reply.Items, 1)
	assert.Equal(t, int64(1), res.Reply.Items[0].ID)

	// type defaults to apartment for the search only
	res = h.turn(t, "s2", "anything near Colombo")
	require.Equal(t, model.ReplyCards, res.Reply.Type)
	assert.Equal(t, "apartment", res.Reply.Items[0].Type)
	assert.Nil(t, res.Session.Slots.Type)

	res = h.turn(t, "s3", "nearest ones")
	assert.Equal(t, ReplyNearestNoArea, res.Reply.Content)
}

func TestHandleTurn_Investments(t *testing.T) {
	h := newChatHarness(t)

	res := h.turn(t, "s1", "any investment plans?")
	assert.Equal(t, ReplyNoInvestments, res.Reply.Content)

	h.investments.items = []model.Investment{{ID: 1, Name: "Income Fund A", Status: "open"}}
	res = h.turn(t, "s1", "any investment plans?")
	require.Equal(t, model.ReplyInvestments, res.Reply.Type)
	assert.Len(t, res.Reply.Investments, 1)
	assert.Equal(t, 1, h.turns.logs[1].ResultCount)

	h.investments.err = errors.New("down")
	res = h.turn(t, "s1", "investments")
	assert.Equal(t, ReplyDegraded, res.Reply.Content)
}

func TestHandleTurn_FAQ(t *testing.T) {
	h := newChatHarness(t)

	tests := map[string]string{
		"what categories do you have": ReplyCategories,
		"what can you do":             ReplyCapabilities,
		"who are you":                 ReplyBotIdentity,
		"who made you":                ReplyBotCreator,
		"thank you":                   ReplyThanks,
		"which cities do you cover":   ReplyCoverage,
		"talk to an agent":            ReplyContactAgent,
	}
	for input, want := range tests {
		res := h.turn(t, "faq", input)
		assert.Equal(t, want, res.Reply.Content, input)
	}
}

func TestHandleTurn_Fallback(t *testing.T) {
	h := newChatHarness(t)
	res := h.turn(t, "s1", "blah blah")
	assert.Equal(t, model.IntentFallback, res.Intent.Name)
	assert.Equal(t, ReplyFallback, res.Reply.Content)

	gen := &fakeGenerator{GenerateFunc: func(history []model.Message, blob string) (string, error) {
		require.NotEmpty(t, history)
		assert.Equal(t, "blah blah", history[len(history)-1].Content)
		return "Could you tell me which city you are interested in?", nil
	}}
	h.svc.fallback = NewFallbackResponder(gen, DefaultBreakerSettings(), zap.NewNop())
	res = h.turn(t, "s2", "blah blah")
	assert.Equal(t, "Could you tell me which city you are interested in?", res.Reply.Content)
}

func TestHandleTurn_EmptyMessage(t *testing.T) {
	h := newChatHarness(t)
	res := h.turn(t, "s1", "   ")
	assert.Equal(t, ReplyEmptyMessage, res.Reply.Content)
	assert.Empty(t, h.turns.logs)
}

func TestHandleTurn_CancelledContext(t *testing.T) {
	h := newChatHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.svc.HandleTurn(ctx, "s1", "hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandleTurn_TurnLogFailureIsNotFatal(t *testing.T) {
	h := newChatHarness(t)
	h.turns.err = errors.New("disk full")
	res := h.turn(t, "s1", "hi")
	assert.Equal(t, ReplyGreet, res.Reply.Content)
}

func TestResetSession(t *testing.T) {
	h := newChatHarness(t)
	h.turn(t, "s1", "houses in Kandy")

	require.NoError(t, h.svc.ResetSession(context.Background(), "s1"))
	state, err := h.svc.Session(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, state)
}
