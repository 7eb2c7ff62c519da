package models

import (
	"strings"
	"time"
)

// TranscriptRole - автор записи в журнале игры.
type TranscriptRole string

const (
	RoleNarrator TranscriptRole = "narrator"
	RolePlayer   TranscriptRole = "player"
)

// TranscriptEntry - одна строка журнала рассказчика.
type TranscriptEntry struct {
	Role TranscriptRole `json:"role"`
	Text string         `json:"text"`
}

// ContinuationScope указывает, какой разговор ожидает ответа на вызов функции.
type ContinuationScope string

const (
	ScopeNarrator  ContinuationScope = "narrator"
	ScopeCharacter ContinuationScope = "character"
)

// Continuation - точка, в которой приостановлен run: ответ на ToolCallID
// должен быть отправлен в RunID на потоке ThreadID.
type Continuation struct {
	Scope      ContinuationScope `json:"scope"`
	ThreadID   string            `json:"thread_id"`
	RunID      string            `json:"run_id"`
	ToolCallID string            `json:"tool_call_id"`
}

// OfferKind - вид предложения персонажа.
type OfferKind string

const (
	OfferTrade OfferKind = "trade"
	OfferGift  OfferKind = "gift"
)

// Offer - предложение обмена или подарка, ожидающее решения игрока.
type Offer struct {
	Kind       OfferKind `json:"kind"`
	ToPlayer   string    `json:"to_player"`             // предмет персонажа
	FromPlayer string    `json:"from_player,omitempty"` // запрошенный у игрока предмет, только для обмена
	// Pending - вызов функции персонажа, на который еще не отправлен ответ.
	Pending Continuation `json:"pending"`
}

// CharacterInteraction - активный разговор с персонажем.
type CharacterInteraction struct {
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
	AssistantID   string `json:"assistant_id"`
	ThreadID      string `json:"thread_id"`
	// Origin - вызов character_interact рассказчика, которому уйдет итог разговора.
	Origin Continuation `json:"origin"`
	Log    []string     `json:"log"`
	Offer  *Offer       `json:"offer,omitempty"`
	Closed bool         `json:"closed"`
}

// GameState - сохраняемое состояние прохождения одного игрока.
type GameState struct {
	GameID               string                `json:"game_id"`
	CurrentSceneID       *string               `json:"current_scene_id,omitempty"`
	Transcript           []TranscriptEntry     `json:"transcript"`
	Inventory            []string              `json:"inventory"`
	CharacterInventories map[string][]string   `json:"character_inventories"`
	SceneItems           map[string][]string   `json:"scene_items"`
	AssistantID          string                `json:"assistant_id"`
	ThreadID             string                `json:"thread_id"`
	CharacterInteraction *CharacterInteraction `json:"character_interaction"`
	EndGameReason        *string               `json:"end_game_reason,omitempty"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// NewGameState создает начальное состояние из мира игры.
func NewGameState(world *World, assistantID, threadID string) *GameState {
	start := world.StartingScene
	gs := &GameState{
		GameID:               world.ID,
		CurrentSceneID:       &start,
		Transcript:           []TranscriptEntry{},
		Inventory:            []string{},
		CharacterInventories: make(map[string][]string, len(world.Characters)),
		SceneItems:           make(map[string][]string, len(world.Scenes)),
		AssistantID:          assistantID,
		ThreadID:             threadID,
	}
	for _, s := range world.Scenes {
		gs.SceneItems[s.ID] = append([]string{}, s.Items...)
	}
	for _, c := range world.Characters {
		gs.CharacterInventories[c.ID] = append([]string{}, c.Inventory...)
	}
	if world.Intro != "" {
		gs.AppendTranscript(RoleNarrator, world.Intro)
	}
	return gs
}

func (gs *GameState) AppendTranscript(role TranscriptRole, text string) {
	gs.Transcript = append(gs.Transcript, TranscriptEntry{Role: role, Text: text})
}

// InInteraction сообщает, направляется ли ввод игрока персонажу.
func (gs *GameState) InInteraction() bool {
	return gs.CharacterInteraction != nil
}

func (gs *GameState) IsOver() bool {
	return gs.EndGameReason != nil
}

// Clone возвращает глубокую копию состояния для публикации снимков.
func (gs *GameState) Clone() GameState {
	c := *gs
	if gs.CurrentSceneID != nil {
		id := *gs.CurrentSceneID
		c.CurrentSceneID = &id
	}
	if gs.EndGameReason != nil {
		r := *gs.EndGameReason
		c.EndGameReason = &r
	}
	c.Transcript = append([]TranscriptEntry(nil), gs.Transcript...)
	c.Inventory = append([]string(nil), gs.Inventory...)
	c.CharacterInventories = cloneItemMap(gs.CharacterInventories)
	c.SceneItems = cloneItemMap(gs.SceneItems)
	if gs.CharacterInteraction != nil {
		ci := *gs.CharacterInteraction
		ci.Log = append([]string(nil), ci.Log...)
		if ci.Offer != nil {
			o := *ci.Offer
			ci.Offer = &o
		}
		c.CharacterInteraction = &ci
	}
	return c
}

func cloneItemMap(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ContainsItem ищет предмет без учета регистра.
func ContainsItem(items []string, item string) bool {
	return indexOfItem(items, item) >= 0
}

// RemoveItem удаляет первое вхождение предмета. Исходный срез не изменяется.
func RemoveItem(items []string, item string) ([]string, bool) {
	rest, _, ok := TakeItem(items, item)
	return rest, ok
}

// TakeItem как RemoveItem, но возвращает и саму запись инвентаря
// в том написании, в котором она хранилась.
func TakeItem(items []string, item string) (rest []string, taken string, ok bool) {
	i := indexOfItem(items, item)
	if i < 0 {
		return items, "", false
	}
	out := make([]string, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), items[i], true
}

func indexOfItem(items []string, item string) int {
	item = strings.TrimSpace(item)
	for i, it := range items {
		if strings.EqualFold(it, item) {
			return i
		}
	}
	return -1
}
