package domain

import "context"

// Message represents a single post made by an account.
type Message struct {
	MessageID       int64  `json:"message_id"`
	PostedBy        int64  `json:"posted_by"`
	MessageText     string `json:"message_text" validate:"notblank,min=1,max=254"`
	TimePostedEpoch int64  `json:"time_posted_epoch"`
}

// MessageRepository is the port for message persistence.
type MessageRepository interface {
	Repository[Message]
	FindAllByAuthor(ctx context.Context, accountID int64) ([]Message, error)
}
