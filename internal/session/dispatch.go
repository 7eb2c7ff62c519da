package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"adventure-server/internal/conversation"
	"adventure-server/internal/models"

	"github.com/invopop/jsonschema"
)

// Tool binds a function the model may call to the state that interprets it.
type Tool struct {
	Spec  conversation.FunctionSpec
	build func(call models.Continuation, arguments string) (State, error)
}

// ToolTable maps function names to tools.
type ToolTable map[string]Tool

// Specs returns the function specs sorted by name.
func (t ToolTable) Specs() []conversation.FunctionSpec {
	specs := make([]conversation.FunctionSpec, 0, len(t))
	for _, tool := range t {
		specs = append(specs, tool.Spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

func (t ToolTable) dispatch(call models.Continuation, tc conversation.ToolCall) (State, error) {
	tool, ok := t[tc.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s scope)", ErrUnknownFunction, tc.Name, call.Scope)
	}
	return tool.build(call, tc.Arguments)
}

func newTool[A any](name, description string, build func(call models.Continuation, args A) (State, error)) Tool {
	return Tool{
		Spec: conversation.FunctionSpec{
			Name:        name,
			Description: description,
			Parameters:  parametersSchema[A](),
		},
		build: func(call models.Continuation, arguments string) (State, error) {
			var args A
			if strings.TrimSpace(arguments) == "" {
				arguments = "{}"
			}
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArguments, name, err)
			}
			return build(call, args)
		},
	}
}

func parametersSchema[A any]() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
		Anonymous:      true,
	}
	s := r.Reflect(new(A))
	s.Version = ""
	s.ID = jsonschema.EmptyID
	return s
}

func required(function, field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s: %s is empty", ErrInvalidArguments, function, field)
	}
	return value, nil
}

type newSceneArgs struct {
	SceneName string `json:"scene_name" jsonschema_description:"Name of the scene the player moves to"`
}

type itemArgs struct {
	Item string `json:"item" jsonschema_description:"Name of the item"`
}

type characterInteractArgs struct {
	CharacterID string `json:"character_id" jsonschema_description:"ID of the character the player talks to"`
}

type endGameArgs struct {
	Reason string `json:"reason" jsonschema_description:"Why the game ended"`
}

type tradeArgs struct {
	ToPlayer   string `json:"to_player" jsonschema_description:"Item the character gives to the player"`
	FromPlayer string `json:"from_player" jsonschema_description:"Item the character wants from the player"`
}

// NarratorTools are the functions available to the narrator assistant.
var NarratorTools = ToolTable{
	"new_scene": newTool("new_scene", "Move the player to another scene of the game.",
		func(call models.Continuation, a newSceneArgs) (State, error) {
			name, err := required("new_scene", "scene_name", a.SceneName)
			if err != nil {
				return nil, err
			}
			return ProcessNewScene{toolCall: toolCall{Call: call}, SceneName: name}, nil
		}),
	"add_item": newTool("add_item", "Add an item to the player's inventory.",
		func(call models.Continuation, a itemArgs) (State, error) {
			item, err := required("add_item", "item", a.Item)
			if err != nil {
				return nil, err
			}
			return ProcessAddItem{toolCall: toolCall{Call: call}, Item: item}, nil
		}),
	"remove_item": newTool("remove_item", "Remove an item from the player's inventory.",
		func(call models.Continuation, a itemArgs) (State, error) {
			item, err := required("remove_item", "item", a.Item)
			if err != nil {
				return nil, err
			}
			return ProcessRemoveItem{toolCall: toolCall{Call: call}, Item: item}, nil
		}),
	"character_interact": newTool("character_interact", "Start a conversation between the player and a character in the scene.",
		func(call models.Continuation, a characterInteractArgs) (State, error) {
			id, err := required("character_interact", "character_id", a.CharacterID)
			if err != nil {
				return nil, err
			}
			return ProcessCharacterInteract{toolCall: toolCall{Call: call}, CharacterID: id}, nil
		}),
	"end_game": newTool("end_game", "End the game.",
		func(call models.Continuation, a endGameArgs) (State, error) {
			return ProcessEndGame{toolCall: toolCall{Call: call}, Reason: strings.TrimSpace(a.Reason)}, nil
		}),
}

// CharacterTools are the functions available to a character assistant.
var CharacterTools = ToolTable{
	"trade_items": newTool("trade_items", "Offer the player an item in exchange for one of theirs.",
		func(call models.Continuation, a tradeArgs) (State, error) {
			to, err := required("trade_items", "to_player", a.ToPlayer)
			if err != nil {
				return nil, err
			}
			from, err := required("trade_items", "from_player", a.FromPlayer)
			if err != nil {
				return nil, err
			}
			return ProcessCharacterTrade{toolCall: toolCall{Call: call}, ToPlayer: to, FromPlayer: from}, nil
		}),
	"give_item": newTool("give_item", "Offer the player an item as a gift.",
		func(call models.Continuation, a itemArgs) (State, error) {
			item, err := required("give_item", "item", a.Item)
			if err != nil {
				return nil, err
			}
			return ProcessCharacterGift{toolCall: toolCall{Call: call}, Item: item}, nil
		}),
}
