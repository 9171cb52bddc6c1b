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

// Unique index over the ordered participant pair of direct conversations
const directPairIndex = "uq_conversations_direct_pair"

var conversationColumns = []string{
	"id", "title", "is_group", "participant_ids", "unread_counts", "created_by",
	"last_message_id", "last_message_at", "created_at", "updated_at",
}

// ConversationRepository persists conversations
type ConversationRepository struct {
	DB *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{DB: db}
}

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	var counts []byte
	err := row.Scan(&c.ID, &c.Title, &c.IsGroup, &c.ParticipantIDs, &counts, &c.CreatedBy,
		&c.LastMessageID, &c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, err
	}

	c.UnreadCounts = models.UnreadCounts{}
	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &c.UnreadCounts); err != nil {
			return nil, fmt.Errorf("decode unread counts: %w", err)
		}
	}
	return &c, nil
}

func encodeCounts(counts models.UnreadCounts) ([]byte, error) {
	if counts == nil {
		counts = models.UnreadCounts{}
	}
	return json.Marshal(counts)
}

// Create inserts conv and fills its generated fields. A second direct conversation
// for the same pair fails with ErrResourceAlreadyExists.
func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	counts, err := encodeCounts(conv.UnreadCounts)
	if err != nil {
		return err
	}

	sql, args, err := psql.Insert("conversations").
		Columns("title", "is_group", "participant_ids", "unread_counts", "created_by").
		Values(conv.Title, conv.IsGroup, conv.ParticipantIDs, counts, conv.CreatedBy).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create conversation query: %w", err)
	}

	if err := r.DB.QueryRow(ctx, sql, args...).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, directPairIndex) {
			return apperrors.ErrResourceAlreadyExists
		}
		logger.Error().Err(err).Msg("Error creating conversation")
		return err
	}
	return nil
}

// GetByID returns a conversation by id
func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	sql, args, err := psql.Select(conversationColumns...).
		From("conversations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get conversation query: %w", err)
	}
	return scanConversation(r.DB.QueryRow(ctx, sql, args...))
}

// FindDirect returns the non-group conversation between exactly userA and userB
func (r *ConversationRepository) FindDirect(ctx context.Context, userA, userB int64) (*models.Conversation, error) {
	sql, args, err := psql.Select(conversationColumns...).
		From("conversations").
		Where(squirrel.Eq{"is_group": false}).
		Where("participant_ids @> ?::bigint[]", []int64{userA, userB}).
		Where("cardinality(participant_ids) = 2").
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find direct conversation query: %w", err)
	}
	return scanConversation(r.DB.QueryRow(ctx, sql, args...))
}

// ListForUser returns the user's conversations, most recently active first
func (r *ConversationRepository) ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	sql, args, err := psql.Select(conversationColumns...).
		From("conversations").
		Where("? = ANY(participant_ids)", userID).
		OrderBy("COALESCE(last_message_at, created_at) DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list conversations query: %w", err)
	}

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error listing conversations")
		return nil, err
	}
	defer rows.Close()

	convs := make([]*models.Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// UpdateTitle renames a conversation
func (r *ConversationRepository) UpdateTitle(ctx context.Context, id int64, title string) (*models.Conversation, error) {
	sql, args, err := psql.Update("conversations").
		Set("title", title).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(conversationColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update conversation query: %w", err)
	}
	return scanConversation(r.DB.QueryRow(ctx, sql, args...))
}

// lockConversation reads a conversation row under FOR UPDATE inside tx
func lockConversation(ctx context.Context, tx pgx.Tx, id int64) (*models.Conversation, error) {
	sql, args, err := psql.Select(conversationColumns...).
		From("conversations").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock conversation query: %w", err)
	}
	return scanConversation(tx.QueryRow(ctx, sql, args...))
}

// saveMembership writes participants and counters back inside tx
func saveMembership(ctx context.Context, tx pgx.Tx, conv *models.Conversation) error {
	counts, err := encodeCounts(conv.UnreadCounts)
	if err != nil {
		return err
	}
	return tx.QueryRow(ctx,
		`UPDATE conversations SET participant_ids = $2, unread_counts = $3, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`,
		conv.ID, conv.ParticipantIDs, counts,
	).Scan(&conv.UpdatedAt)
}

// AddParticipants appends userIDs not yet present, each starting with a zero counter
func (r *ConversationRepository) AddParticipants(ctx context.Context, id int64, userIDs []int64) (*models.Conversation, error) {
	var conv *models.Conversation
	err := db.WithTransaction(ctx, r.DB, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		conv, err = lockConversation(ctx, tx, id)
		if err != nil {
			return err
		}

		for _, uid := range userIDs {
			if conv.HasParticipant(uid) {
				continue
			}
			conv.ParticipantIDs = append(conv.ParticipantIDs, uid)
			conv.UnreadCounts.Reset(uid)
		}
		return saveMembership(ctx, tx, conv)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// RemoveParticipant drops userID and its counter entry
func (r *ConversationRepository) RemoveParticipant(ctx context.Context, id int64, userID int64) (*models.Conversation, error) {
	var conv *models.Conversation
	err := db.WithTransaction(ctx, r.DB, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		conv, err = lockConversation(ctx, tx, id)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(userID) {
			return apperrors.ErrNotParticipant
		}

		conv.ParticipantIDs = conv.OtherParticipants(userID)
		conv.UnreadCounts.Remove(userID)
		return saveMembership(ctx, tx, conv)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// TotalUnread sums the user's counters across all their conversations
func (r *ConversationRepository) TotalUnread(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(COALESCE((unread_counts->>$2)::bigint, 0)), 0)
		 FROM conversations WHERE $1 = ANY(participant_ids)`,
		userID, fmt.Sprintf("%d", userID),
	).Scan(&total)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error summing unread counters")
		return 0, err
	}
	return total, nil
}
