package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"socialmedia/internal/domain"
)

const messageColumns = "message_id, posted_by, message_text, time_posted_epoch"

// MessageRepo implements domain.MessageRepository.
type MessageRepo struct {
	store
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// NewMessageRepo creates a MessageRepo.
func NewMessageRepo(conns ConnProvider) *MessageRepo {
	return &MessageRepo{store: store{conns: conns}}
}

// Get retrieves a message by ID.
func (r *MessageRepo) Get(ctx context.Context, id int64) (domain.Message, bool, error) {
	return r.queryOne(ctx, "message.get",
		"SELECT "+messageColumns+" FROM message WHERE message_id = ?", id)
}

// List returns every message.
func (r *MessageRepo) List(ctx context.Context) ([]domain.Message, error) {
	return r.queryMany(ctx, "message.list",
		"SELECT "+messageColumns+" FROM message ORDER BY message_id")
}

// FindAllByAuthor returns the messages posted by accountID.
func (r *MessageRepo) FindAllByAuthor(ctx context.Context, accountID int64) ([]domain.Message, error) {
	return r.queryMany(ctx, "message.find_all_by_author",
		"SELECT "+messageColumns+" FROM message WHERE posted_by = ? ORDER BY message_id", accountID)
}

// Create inserts a message. A posted_by that references no account yields
// ErrValidation.
func (r *MessageRepo) Create(ctx context.Context, m domain.Message) (domain.Message, error) {
	created := domain.Message{PostedBy: m.PostedBy, MessageText: m.MessageText, TimePostedEpoch: m.TimePostedEpoch}
	err := r.do(ctx, "message.create", func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx,
			r.q("INSERT INTO message (posted_by, message_text, time_posted_epoch) VALUES (?, ?, ?) RETURNING message_id"),
			created.PostedBy, created.MessageText, created.TimePostedEpoch,
		).Scan(&created.MessageID)
	})
	if errors.Is(err, errForeignKey) {
		return domain.Message{}, domain.Invalid("posted_by %d does not reference an existing account", m.PostedBy)
	}
	if err != nil {
		return domain.Message{}, err
	}
	return created, nil
}

// Update writes message_text only and returns the row as stored. Updating a
// missing id changes nothing and returns m unchanged.
func (r *MessageRepo) Update(ctx context.Context, m domain.Message) (domain.Message, error) {
	updated, ok, err := r.queryOne(ctx, "message.update",
		"UPDATE message SET message_text = ? WHERE message_id = ? RETURNING "+messageColumns,
		m.MessageText, m.MessageID)
	if err != nil {
		return domain.Message{}, err
	}
	if !ok {
		return m, nil
	}
	return updated, nil
}

// Delete removes a message and returns its last state.
func (r *MessageRepo) Delete(ctx context.Context, id int64) (domain.Message, bool, error) {
	return r.queryOne(ctx, "message.delete",
		"DELETE FROM message WHERE message_id = ? RETURNING "+messageColumns, id)
}

func (r *MessageRepo) queryOne(ctx context.Context, op, query string, args ...any) (domain.Message, bool, error) {
	var m domain.Message
	found := false
	err := r.do(ctx, op, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, r.q(query), args...).
			Scan(&m.MessageID, &m.PostedBy, &m.MessageText, &m.TimePostedEpoch)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return domain.Message{}, false, err
	}
	return m, true, nil
}

func (r *MessageRepo) queryMany(ctx context.Context, op, query string, args ...any) ([]domain.Message, error) {
	out := make([]domain.Message, 0)
	err := r.do(ctx, op, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, r.q(query), args...)
		if err != nil {
			return err
		}
		defer rows.Close() //nolint:errcheck

		for rows.Next() {
			var m domain.Message
			if err := rows.Scan(&m.MessageID, &m.PostedBy, &m.MessageText, &m.TimePostedEpoch); err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
