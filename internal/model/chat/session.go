package chat

import "time"

// Session is the externally visible view of an anonymous conversation.
type Session struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	CreatedAt time.Time `json:"createdAt"`
	History   []Turn    `json:"history"`
}
