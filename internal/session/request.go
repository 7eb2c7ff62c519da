package session

// Request is an external trigger fed into the Driver. Not persisted.
type Request interface {
	Kind() string
	request()
}

// Resume asks the current state to make progress without new input.
type Resume struct{}

// PlayerMessage is free text typed by the player.
type PlayerMessage struct {
	Text string
}

// TradeResponse is the player's decision on a staged trade or gift.
type TradeResponse struct {
	Accept bool
}

// EndInteraction asks to leave the active character conversation.
type EndInteraction struct{}

func (Resume) Kind() string         { return "resume" }
func (PlayerMessage) Kind() string  { return "player_message" }
func (TradeResponse) Kind() string  { return "trade_response" }
func (EndInteraction) Kind() string { return "end_interaction" }

func (Resume) request()         {}
func (PlayerMessage) request()  {}
func (TradeResponse) request()  {}
func (EndInteraction) request() {}
