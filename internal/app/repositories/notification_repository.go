package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

var notificationColumns = []string{
	"id", "user_id", "message", "sent_date", "is_read", "notification_type", "event_id",
}

func notificationDest(n *models.Notification) []any {
	return []any{&n.ID, &n.UserID, &n.Message, &n.SentDate, &n.IsRead, &n.NotificationType, &n.EventID}
}

// NotificationRepository handles notification database operations
type NotificationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// CreateMany inserts the notifications in one statement and fills in their
// IDs and sent dates
func (r *NotificationRepository) CreateMany(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	builder := r.sb.Insert("notifications").
		Columns("user_id", "message", "sent_date", "is_read", "notification_type", "event_id")
	for _, n := range notifications {
		builder = builder.Values(n.UserID, n.Message, n.SentDate, false, n.NotificationType, n.EventID)
	}
	sql, args, err := builder.Suffix("RETURNING id").ToSql()
	if err != nil {
		return buildError(err, "create notifications")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int("count", len(notifications)).Msg("Error executing create notifications query")
		return fmt.Errorf("error creating notifications: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return fmt.Errorf("error reading notification ids: %w", err)
	}
	for i := range ids {
		if i < len(notifications) {
			notifications[i].ID = ids[i]
		}
	}
	return nil
}

// GetByID returns a notification owned by userID
func (r *NotificationRepository) GetByID(ctx context.Context, id, userID int64) (*models.Notification, error) {
	sql, args, err := r.sb.Select(notificationColumns...).
		From("notifications").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, buildError(err, "get notification")
	}

	n := &models.Notification{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(notificationDest(n)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotificationNotFound
		}
		logger.Error().Err(err).Int64("notificationID", id).Msg("Error scanning notification row")
		return nil, fmt.Errorf("error retrieving notification: %w", err)
	}
	return n, nil
}

// ListByUser returns one page of the user's notifications, newest first, plus the total
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, offset, limit uint64) ([]*models.Notification, int64, error) {
	total, err := countRows(ctx, r.db, r.sb.Select("COUNT(*)").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID}), "notifications")
	if err != nil {
		return nil, 0, err
	}

	sql, args, err := r.sb.Select(notificationColumns...).
		From("notifications").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("sent_date DESC", "id DESC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, buildError(err, "list notifications")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing list notifications query")
		return nil, 0, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Notification, 0)
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(notificationDest(n)...); err != nil {
			return nil, 0, fmt.Errorf("error scanning notification: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// CountUnread returns the number of unread notifications of a user
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return countRows(ctx, r.db, r.sb.Select("COUNT(*)").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID, "is_read": false}), "unread notifications")
}

// MarkRead marks one notification owned by userID as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	sql, args, err := r.sb.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return buildError(err, "mark notification read")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("notificationID", id).Msg("Error executing mark read query")
		return fmt.Errorf("error marking notification read: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks all of a user's notifications read and returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	sql, args, err := r.sb.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"user_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, buildError(err, "mark all read")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing mark all read query")
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// Delete removes a notification owned by userID
func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	sql, args, err := r.sb.Delete("notifications").Where(squirrel.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return buildError(err, "delete notification")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("notificationID", id).Msg("Error executing delete notification query")
		return fmt.Errorf("error deleting notification: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}
