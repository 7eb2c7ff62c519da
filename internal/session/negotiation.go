package session

import (
	"context"
	"fmt"

	"adventure-server/internal/models"
)

type offerOutput struct {
	Accepted           bool     `json:"accepted"`
	PlayerInventory    []string `json:"player_inventory"`
	CharacterInventory []string `json:"character_inventory"`
}

// ProcessCharacterTrade stages a two-way offer from the character.
type ProcessCharacterTrade struct {
	toolCall
	ToPlayer   string
	FromPlayer string
}

func (ProcessCharacterTrade) Name() string { return "ProcessCharacterTrade" }

func (s ProcessCharacterTrade) Process(_ context.Context, _ *Env, _ Request, gs *models.GameState) (State, error) {
	ci, err := interaction(gs)
	if err != nil {
		return nil, err
	}
	if !models.ContainsItem(gs.CharacterInventories[ci.CharacterID], s.ToPlayer) {
		return SubmitToolOutputs{Continuation: s.Call, Output: errorOutput("%s does not have %q", ci.CharacterName, s.ToPlayer)}, nil
	}
	if !models.ContainsItem(gs.Inventory, s.FromPlayer) {
		return SubmitToolOutputs{Continuation: s.Call, Output: errorOutput("the player does not have %q", s.FromPlayer)}, nil
	}
	ci.Offer = &models.Offer{
		Kind:       models.OfferTrade,
		ToPlayer:   s.ToPlayer,
		FromPlayer: s.FromPlayer,
		Pending:    s.Call,
	}
	ci.Log = append(ci.Log, fmt.Sprintf("%s offers %s in exchange for your %s", ci.CharacterName, s.ToPlayer, s.FromPlayer))
	return AwaitingPlayerTradeResponse{}, nil
}

// ProcessCharacterGift stages a one-way offer from the character.
type ProcessCharacterGift struct {
	toolCall
	Item string
}

func (ProcessCharacterGift) Name() string { return "ProcessCharacterGift" }

func (s ProcessCharacterGift) Process(_ context.Context, _ *Env, _ Request, gs *models.GameState) (State, error) {
	ci, err := interaction(gs)
	if err != nil {
		return nil, err
	}
	if !models.ContainsItem(gs.CharacterInventories[ci.CharacterID], s.Item) {
		return SubmitToolOutputs{Continuation: s.Call, Output: errorOutput("%s does not have %q", ci.CharacterName, s.Item)}, nil
	}
	ci.Offer = &models.Offer{
		Kind:     models.OfferGift,
		ToPlayer: s.Item,
		Pending:  s.Call,
	}
	ci.Log = append(ci.Log, fmt.Sprintf("%s offers you %s", ci.CharacterName, s.Item))
	return AwaitingPlayerGiftResponse{}, nil
}

// AwaitingPlayerTradeResponse suspends the character run until the player
// accepts or rejects the staged trade.
type AwaitingPlayerTradeResponse struct{ waiting }

func (AwaitingPlayerTradeResponse) Name() string { return "AwaitingPlayerTradeResponse" }

func (AwaitingPlayerTradeResponse) activeRun(gs *models.GameState) (string, string) {
	return pendingOfferRun(gs)
}

func (s AwaitingPlayerTradeResponse) Process(_ context.Context, _ *Env, req Request, gs *models.GameState) (State, error) {
	return resolveOffer(s, models.OfferTrade, req, gs)
}

// AwaitingPlayerGiftResponse suspends the character run until the player
// accepts or declines the staged gift.
type AwaitingPlayerGiftResponse struct{ waiting }

func (AwaitingPlayerGiftResponse) Name() string { return "AwaitingPlayerGiftResponse" }

func (AwaitingPlayerGiftResponse) activeRun(gs *models.GameState) (string, string) {
	return pendingOfferRun(gs)
}

func (s AwaitingPlayerGiftResponse) Process(_ context.Context, _ *Env, req Request, gs *models.GameState) (State, error) {
	return resolveOffer(s, models.OfferGift, req, gs)
}

func pendingOfferRun(gs *models.GameState) (string, string) {
	if gs.CharacterInteraction == nil || gs.CharacterInteraction.Offer == nil {
		return "", ""
	}
	p := gs.CharacterInteraction.Offer.Pending
	return p.ThreadID, p.RunID
}

// resolveOffer applies the player's decision and clears the offer. Both
// inventories are computed first and assigned together.
func resolveOffer(s State, kind models.OfferKind, req Request, gs *models.GameState) (State, error) {
	r, ok := req.(TradeResponse)
	if !ok {
		if _, resume := req.(Resume); resume {
			return s, nil
		}
		return nil, unexpected(s, req)
	}

	ci, err := interaction(gs)
	if err != nil {
		return nil, err
	}
	offer := ci.Offer
	if offer == nil || offer.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s offer", ErrNoPendingOffer, kind)
	}

	playerInv := gs.Inventory
	charInv := gs.CharacterInventories[ci.CharacterID]
	accepted, failed := false, false
	if r.Accept {
		var toPlayer, fromPlayer string
		charInv, toPlayer, accepted = models.TakeItem(charInv, offer.ToPlayer)
		if offer.Kind == models.OfferTrade && accepted {
			playerInv, fromPlayer, accepted = models.TakeItem(playerInv, offer.FromPlayer)
		}
		if accepted {
			// переносятся записи инвентаря, а не написание из вызова функции
			playerInv = append(append([]string{}, playerInv...), toPlayer)
			if offer.Kind == models.OfferTrade {
				charInv = append(append([]string{}, charInv...), fromPlayer)
			}
		} else {
			failed = true
			playerInv, charInv = gs.Inventory, gs.CharacterInventories[ci.CharacterID]
		}
	}

	output, err := encodeOutput(offerOutput{
		Accepted:           accepted,
		PlayerInventory:    nonNil(playerInv),
		CharacterInventory: nonNil(charInv),
	})
	if err != nil {
		return nil, err
	}

	if accepted {
		gs.Inventory = playerInv
		if gs.CharacterInventories == nil {
			gs.CharacterInventories = make(map[string][]string)
		}
		gs.CharacterInventories[ci.CharacterID] = charInv
	}
	ci.Log = append(ci.Log, decisionLine(kind, accepted, failed))
	pending := offer.Pending
	ci.Offer = nil
	return SubmitToolOutputs{Continuation: pending, Output: output}, nil
}

func decisionLine(kind models.OfferKind, accepted, failed bool) string {
	switch {
	case failed && kind == models.OfferTrade:
		return "The trade could not be completed"
	case failed:
		return "The gift could not be completed"
	case kind == models.OfferTrade && accepted:
		return "Player accepts the trade"
	case kind == models.OfferTrade:
		return "Player declines the trade"
	case accepted:
		return "Player accepts the gift"
	default:
		return "Player declines the gift"
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
