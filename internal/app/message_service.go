package app

import (
	"context"
	"fmt"

	"socialmedia/internal/domain"

	"go.uber.org/zap"
)

// MessageService encapsulates posting and editing messages.
type MessageService struct {
	messages domain.MessageRepository
	accounts domain.AccountGetter
	log      *zap.Logger
}

// NewMessageService creates a MessageService backed by the given repositories.
func NewMessageService(messages domain.MessageRepository, accounts domain.AccountGetter, log *zap.Logger) *MessageService {
	return &MessageService{
		messages: messages,
		accounts: accounts,
		log:      orNop(log).Named("message"),
	}
}

// Post validates and stores a message. The author must exist.
func (s *MessageService) Post(ctx context.Context, candidate domain.Message) (domain.Message, error) {
	if err := validateStruct(candidate); err != nil {
		return domain.Message{}, report(s.log, "post", err)
	}

	_, ok, err := s.accounts.Get(ctx, candidate.PostedBy)
	if err != nil {
		return domain.Message{}, report(s.log, "post", err)
	}
	if !ok {
		return domain.Message{}, report(s.log, "post",
			domain.Invalid("posted_by %d does not reference an existing account", candidate.PostedBy))
	}

	created, err := s.messages.Create(ctx, candidate)
	if err != nil {
		return domain.Message{}, report(s.log, "post", err)
	}
	return created, nil
}

// Edit replaces the text of an existing message. Author and timestamp are
// never changed.
func (s *MessageService) Edit(ctx context.Context, id int64, newText string) (domain.Message, error) {
	if err := validateVar("MessageText", newText, messageTextRules); err != nil {
		return domain.Message{}, report(s.log, "edit", err)
	}

	m, ok, err := s.messages.Get(ctx, id)
	if err != nil {
		return domain.Message{}, report(s.log, "edit", err)
	}
	if !ok {
		return domain.Message{}, report(s.log, "edit", fmt.Errorf("message %d: %w", id, domain.ErrNotFound))
	}

	m.MessageText = newText
	updated, err := s.messages.Update(ctx, m)
	if err != nil {
		return domain.Message{}, report(s.log, "edit", err)
	}
	return updated, nil
}

// ListByAuthor returns the messages posted by accountID. An unknown account
// simply has no messages.
func (s *MessageService) ListByAuthor(ctx context.Context, accountID int64) ([]domain.Message, error) {
	out, err := s.messages.FindAllByAuthor(ctx, accountID)
	return out, report(s.log, "list_by_author", err)
}

// Get returns the message with the given id.
func (s *MessageService) Get(ctx context.Context, id int64) (domain.Message, bool, error) {
	m, ok, err := s.messages.Get(ctx, id)
	return m, ok, report(s.log, "get", err)
}

// List returns every message.
func (s *MessageService) List(ctx context.Context) ([]domain.Message, error) {
	out, err := s.messages.List(ctx)
	return out, report(s.log, "list", err)
}

// Delete removes a message and returns what was deleted.
func (s *MessageService) Delete(ctx context.Context, id int64) (domain.Message, bool, error) {
	m, ok, err := s.messages.Delete(ctx, id)
	return m, ok, report(s.log, "delete", err)
}
