package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
	"github.com/yigit/campuslink/internal/pkg/logger"
)

var notificationColumns = []string{
	"id", "recipient_id", "sender_id", "type", "title", "message",
	"reference_type", "reference_id", "is_read", "read_at", "created_at",
}

// NotificationRepository persists notifications
type NotificationRepository struct {
	DB *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.Type, &n.Title, &n.Message,
		&n.ReferenceType, &n.ReferenceID, &n.IsRead, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a notification for a single recipient
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	sql, args, err := psql.Insert("notifications").
		Columns("recipient_id", "sender_id", "type", "title", "message", "reference_type", "reference_id").
		Values(n.RecipientID, n.SenderID, n.Type, n.Title, n.Message, n.ReferenceType, n.ReferenceID).
		Suffix("RETURNING id, is_read, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create notification query: %w", err)
	}
	return r.DB.QueryRow(ctx, sql, args...).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

func applyNotificationFilter(q squirrel.SelectBuilder, recipientID int64, filter NotificationFilter) squirrel.SelectBuilder {
	q = q.Where(squirrel.Eq{"recipient_id": recipientID})
	if filter.UnreadOnly {
		q = q.Where(squirrel.Eq{"is_read": false})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"type": filter.Type})
	}
	return q
}

// List returns one page of the recipient's notifications, newest first, plus the total
func (r *NotificationRepository) List(ctx context.Context, recipientID int64, filter NotificationFilter) ([]*models.Notification, int64, error) {
	countSQL, countArgs, err := applyNotificationFilter(psql.Select("COUNT(*)").From("notifications"), recipientID, filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count notifications query: %w", err)
	}

	var total int64
	if err := r.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Int64("recipientID", recipientID).Msg("Error counting notifications")
		return nil, 0, err
	}

	sql, args, err := applyNotificationFilter(psql.Select(notificationColumns...).From("notifications"), recipientID, filter).
		OrderBy("created_at DESC", "id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list notifications query: %w", err)
	}

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("recipientID", recipientID).Msg("Error listing notifications")
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// CountUnread counts the recipient's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, recipientID,
	).Scan(&count)
	return count, err
}

// MarkRead marks one of the recipient's notifications as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int64) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
		 WHERE id = $1 AND recipient_id = $2`,
		id, recipientID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the recipient
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE recipient_id = $1 AND is_read = FALSE`,
		recipientID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes one of the recipient's notifications
func (r *NotificationRepository) Delete(ctx context.Context, id, recipientID int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}
