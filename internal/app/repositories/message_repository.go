package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/db"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
	"github.com/yigit/campuslink/internal/pkg/dberrors"
	"github.com/yigit/campuslink/internal/pkg/logger"
)

var messageColumns = []string{"id", "conversation_id", "sender_id", "content", "attachments", "is_read", "read_at", "created_at"}

// MessageRepository persists chat messages
type MessageRepository struct {
	DB *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{DB: db}
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	var attachments []byte
	if err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &attachments, &m.IsRead, &m.ReadAt, &m.CreatedAt); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, err
	}

	m.Attachments = []models.Attachment{}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &m.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments: %w", err)
		}
	}
	return &m, nil
}

func encodeAttachments(a []models.Attachment) ([]byte, error) {
	if a == nil {
		a = []models.Attachment{}
	}
	return json.Marshal(a)
}

// CreateWithCounters inserts msg, increments the unread counter of every participant
// except the sender and moves the conversation's last message pointer.
func (r *MessageRepository) CreateWithCounters(ctx context.Context, msg *models.Message) (*models.Conversation, error) {
	attachments, err := encodeAttachments(msg.Attachments)
	if err != nil {
		return nil, err
	}

	var conv *models.Conversation
	err = db.WithTransaction(ctx, r.DB, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		conv, err = lockConversation(ctx, tx, msg.ConversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(msg.SenderID) {
			return apperrors.ErrNotParticipant
		}

		sql, args, err := psql.Insert("messages").
			Columns("conversation_id", "sender_id", "content", "attachments").
			Values(msg.ConversationID, msg.SenderID, msg.Content, attachments).
			Suffix("RETURNING id, is_read, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert message query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&msg.ID, &msg.IsRead, &msg.CreatedAt); err != nil {
			return err
		}

		conv.UnreadCounts.IncrementExcept(conv.ParticipantIDs, msg.SenderID)
		counts, err := encodeCounts(conv.UnreadCounts)
		if err != nil {
			return err
		}

		conv.LastMessageID = &msg.ID
		conv.LastMessageAt = &msg.CreatedAt
		return tx.QueryRow(ctx,
			`UPDATE conversations SET unread_counts = $2, last_message_id = $3, last_message_at = $4, updated_at = NOW()
			 WHERE id = $1 RETURNING updated_at`,
			conv.ID, counts, msg.ID, msg.CreatedAt,
		).Scan(&conv.UpdatedAt)
	})
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrConversationNotFound, apperrors.ErrNotParticipant) {
			logger.Error().Err(err).Int64("conversationID", msg.ConversationID).Msg("Error storing message")
		}
		return nil, err
	}
	return conv, nil
}

// GetByID returns a message by id
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	sql, args, err := psql.Select(messageColumns...).
		From("messages").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get message query: %w", err)
	}
	return scanMessage(r.DB.QueryRow(ctx, sql, args...))
}

// ListByConversation returns up to limit messages older than beforeID, newest first
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int64, beforeID *int64, limit int) ([]*models.Message, error) {
	q := psql.Select(messageColumns...).
		From("messages").
		Where(squirrel.Eq{"conversation_id": conversationID}).
		OrderBy("id DESC").
		Limit(uint64(limit))
	if beforeID != nil {
		q = q.Where(squirrel.Lt{"id": *beforeID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list messages query: %w", err)
	}

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("conversationID", conversationID).Msg("Error listing messages")
		return nil, err
	}
	defer rows.Close()

	msgs := make([]*models.Message, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkConversationRead zeroes readerID's counter and marks other senders' messages read
func (r *MessageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	var marked int64
	err := db.WithTransaction(ctx, r.DB, func(ctx context.Context, tx pgx.Tx) error {
		conv, err := lockConversation(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(readerID) {
			return apperrors.ErrNotParticipant
		}

		tag, err := tx.Exec(ctx,
			`UPDATE messages SET is_read = TRUE, read_at = NOW()
			 WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE`,
			conversationID, readerID,
		)
		if err != nil {
			return err
		}
		marked = tag.RowsAffected()

		_, err = tx.Exec(ctx,
			`UPDATE conversations SET unread_counts = jsonb_set(unread_counts, ARRAY[$2::text], '0'::jsonb, true)
			 WHERE id = $1`,
			conversationID, fmt.Sprintf("%d", readerID),
		)
		return err
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}

// Delete removes a message and repoints the conversation's last message when needed
func (r *MessageRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTransaction(ctx, r.DB, func(ctx context.Context, tx pgx.Tx) error {
		var conversationID int64
		err := tx.QueryRow(ctx, `DELETE FROM messages WHERE id = $1 RETURNING conversation_id`, id).Scan(&conversationID)
		if err != nil {
			if dberrors.IsNoRows(err) {
				return apperrors.ErrMessageNotFound
			}
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE conversations c SET
			    last_message_id = latest.id,
			    last_message_at = latest.created_at,
			    updated_at = NOW()
			 FROM (SELECT
			         (SELECT id FROM messages WHERE conversation_id = $1 ORDER BY id DESC LIMIT 1) AS id,
			         (SELECT created_at FROM messages WHERE conversation_id = $1 ORDER BY id DESC LIMIT 1) AS created_at
			      ) latest
			 WHERE c.id = $1 AND c.last_message_id = $2`,
			conversationID, id,
		)
		return err
	})
}
