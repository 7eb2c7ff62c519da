package models

// CharacterSave - сохраняемые между взаимодействиями данные персонажа.
type CharacterSave struct {
	PreviousConversations []string `json:"previous_conversations"`
	Inventory             []string `json:"inventory"`
}
