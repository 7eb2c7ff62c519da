package session

import (
	"context"
	"encoding/json"
	"testing"

	"adventure-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func giftState(item string, charInv []string) *models.GameState {
	return &models.GameState{
		GameID:               "harbor",
		Inventory:            []string{"coin"},
		CharacterInventories: map[string][]string{"bob": charInv},
		CharacterInteraction: &models.CharacterInteraction{
			CharacterID:   "bob",
			CharacterName: "Bob",
			ThreadID:      "thread_bob",
			Offer: &models.Offer{
				Kind:     models.OfferGift,
				ToPlayer: item,
				Pending:  models.Continuation{Scope: models.ScopeCharacter, ThreadID: "thread_bob", RunID: "run_c", ToolCallID: "call_g"},
			},
		},
	}
}

func decodeOffer(t *testing.T, next State) (SubmitToolOutputs, offerOutput) {
	t.Helper()
	submit, ok := next.(SubmitToolOutputs)
	require.True(t, ok, "got %T", next)
	var out offerOutput
	require.NoError(t, json.Unmarshal([]byte(submit.Output), &out))
	return submit, out
}

func TestGift_Accepted(t *testing.T) {
	gs := giftState("Lantern", []string{"lantern", "key"})

	next, err := AwaitingPlayerGiftResponse{}.Process(context.Background(), nil, TradeResponse{Accept: true}, gs)
	require.NoError(t, err)

	submit, out := decodeOffer(t, next)
	assert.Equal(t, "call_g", submit.Continuation.ToolCallID)
	assert.Equal(t, models.ScopeCharacter, submit.Continuation.Scope)
	assert.True(t, out.Accepted)
	assert.Equal(t, []string{"coin", "lantern"}, gs.Inventory, "the stored entry moves")
	assert.Equal(t, []string{"key"}, gs.CharacterInventories["bob"])
	assert.Equal(t, out.PlayerInventory, gs.Inventory)
	assert.Nil(t, gs.CharacterInteraction.Offer)
	assert.Equal(t, []string{"Player accepts the gift"}, gs.CharacterInteraction.Log)
}

func TestGift_Declined(t *testing.T) {
	gs := giftState("lantern", []string{"lantern"})

	next, err := AwaitingPlayerGiftResponse{}.Process(context.Background(), nil, TradeResponse{Accept: false}, gs)
	require.NoError(t, err)

	_, out := decodeOffer(t, next)
	assert.False(t, out.Accepted)
	assert.Equal(t, []string{"coin"}, gs.Inventory)
	assert.Equal(t, []string{"lantern"}, gs.CharacterInventories["bob"])
	assert.Equal(t, []string{"Player declines the gift"}, gs.CharacterInteraction.Log)
}

func TestTrade_AcceptWithVanishedItemIsNotApplied(t *testing.T) {
	gs := giftState("key", []string{"key"})
	gs.CharacterInteraction.Offer.Kind = models.OfferTrade
	gs.CharacterInteraction.Offer.FromPlayer = "sword"

	next, err := AwaitingPlayerTradeResponse{}.Process(context.Background(), nil, TradeResponse{Accept: true}, gs)
	require.NoError(t, err)

	_, out := decodeOffer(t, next)
	assert.False(t, out.Accepted)
	assert.Equal(t, []string{"coin"}, out.PlayerInventory)
	assert.Equal(t, []string{"key"}, out.CharacterInventory)
	assert.Equal(t, []string{"coin"}, gs.Inventory)
	assert.Equal(t, []string{"key"}, gs.CharacterInventories["bob"])
	assert.Nil(t, gs.CharacterInteraction.Offer)
	assert.Equal(t, []string{"The trade could not be completed"}, gs.CharacterInteraction.Log)
}

func tradeState(toPlayer, fromPlayer string) *models.GameState {
	gs := giftState(toPlayer, []string{"Brass Key", "rope"})
	gs.Inventory = []string{"Coin", "map"}
	gs.CharacterInteraction.Offer.Kind = models.OfferTrade
	gs.CharacterInteraction.Offer.FromPlayer = fromPlayer
	gs.CharacterInteraction.Offer.Pending.ToolCallID = "call_t"
	return gs
}

func TestTrade_Declined(t *testing.T) {
	gs := tradeState("brass key", "coin")

	next, err := AwaitingPlayerTradeResponse{}.Process(context.Background(), nil, TradeResponse{Accept: false}, gs)
	require.NoError(t, err)

	submit, out := decodeOffer(t, next)
	assert.Equal(t, models.ScopeCharacter, submit.Continuation.Scope)
	assert.Equal(t, "thread_bob", submit.Continuation.ThreadID)
	assert.Equal(t, "run_c", submit.Continuation.RunID)
	assert.Equal(t, "call_t", submit.Continuation.ToolCallID)
	assert.False(t, out.Accepted)
	assert.Equal(t, []string{"Coin", "map"}, out.PlayerInventory)
	assert.Equal(t, []string{"Brass Key", "rope"}, out.CharacterInventory)
	assert.Equal(t, []string{"Coin", "map"}, gs.Inventory)
	assert.Equal(t, []string{"Brass Key", "rope"}, gs.CharacterInventories["bob"])
	assert.Nil(t, gs.CharacterInteraction.Offer)
	assert.Equal(t, []string{"Player declines the trade"}, gs.CharacterInteraction.Log)
}

func TestTrade_AcceptedMovesStoredEntries(t *testing.T) {
	gs := tradeState("brass key", "COIN")

	next, err := AwaitingPlayerTradeResponse{}.Process(context.Background(), nil, TradeResponse{Accept: true}, gs)
	require.NoError(t, err)

	_, out := decodeOffer(t, next)
	assert.True(t, out.Accepted)
	assert.Equal(t, []string{"map", "Brass Key"}, gs.Inventory)
	assert.Equal(t, []string{"rope", "Coin"}, gs.CharacterInventories["bob"])
	assert.Equal(t, out.CharacterInventory, gs.CharacterInventories["bob"])
	assert.Nil(t, gs.CharacterInteraction.Offer)
	assert.Equal(t, []string{"Player accepts the trade"}, gs.CharacterInteraction.Log)
}

func TestGift_AcceptWithVanishedItem(t *testing.T) {
	gs := giftState("lantern", []string{"key"})

	next, err := AwaitingPlayerGiftResponse{}.Process(context.Background(), nil, TradeResponse{Accept: true}, gs)
	require.NoError(t, err)

	_, out := decodeOffer(t, next)
	assert.False(t, out.Accepted)
	assert.Equal(t, []string{"coin"}, gs.Inventory)
	assert.Equal(t, []string{"The gift could not be completed"}, gs.CharacterInteraction.Log)
}

func TestAwaiting_ResumeAndUnexpected(t *testing.T) {
	gs := giftState("key", []string{"key"})
	s := AwaitingPlayerGiftResponse{}

	next, err := s.Process(context.Background(), nil, Resume{}, gs)
	require.NoError(t, err)
	assert.Equal(t, s, next)

	_, err = s.Process(context.Background(), nil, EndInteraction{}, gs)
	assert.ErrorIs(t, err, ErrUnexpectedRequest)
	assert.NotNil(t, gs.CharacterInteraction.Offer)
}

func TestAwaiting_OfferKindMismatch(t *testing.T) {
	gs := giftState("key", []string{"key"})

	_, err := AwaitingPlayerTradeResponse{}.Process(context.Background(), nil, TradeResponse{Accept: true}, gs)
	assert.ErrorIs(t, err, ErrNoPendingOffer)
	assert.Equal(t, []string{"coin"}, gs.Inventory)
}

func TestProcessCharacterGift_StagesOffer(t *testing.T) {
	gs := giftState("", []string{"key"})
	gs.CharacterInteraction.Offer = nil
	call := models.Continuation{Scope: models.ScopeCharacter, ThreadID: "thread_bob", RunID: "run_c", ToolCallID: "call_g"}

	next, err := ProcessCharacterGift{toolCall: toolCall{Call: call}, Item: "key"}.Process(context.Background(), nil, Resume{}, gs)
	require.NoError(t, err)

	assert.Equal(t, AwaitingPlayerGiftResponse{}, next)
	require.NotNil(t, gs.CharacterInteraction.Offer)
	assert.Equal(t, call, gs.CharacterInteraction.Offer.Pending)
	assert.Equal(t, []string{"Bob offers you key"}, gs.CharacterInteraction.Log)
	assert.Equal(t, []string{"key"}, gs.CharacterInventories["bob"], "nothing moves before the player decides")
}
