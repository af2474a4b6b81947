package dto

type SendMessageInput struct {
	Body string `json:"body"`
}
