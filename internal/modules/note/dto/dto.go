package dto

// NoteInput is shared by create and update.
type NoteInput struct {
	Body string `json:"body"`
}
