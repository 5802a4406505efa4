package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/dberrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

var feedbackColumns = []string{
	"f.id", "f.event_id", "f.user_id", "f.rating", "f.comment", "f.submitted_date",
	"u.first_name || ' ' || u.last_name", "e.title",
}

func feedbackDest(f *models.Feedback) []any {
	return []any{&f.ID, &f.EventID, &f.UserID, &f.Rating, &f.Comment, &f.SubmittedDate, &f.UserName, &f.EventTitle}
}

// FeedbackRepository handles event feedback database operations
type FeedbackRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// Create stores a rating; a second rating of the same event by the same user fails
func (r *FeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	sql, args, err := r.sb.Insert("feedbacks").
		Columns("event_id", "user_id", "rating", "comment", "submitted_date").
		Values(f.EventID, f.UserID, f.Rating, f.Comment, f.SubmittedDate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return buildError(err, "create feedback")
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&f.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "feedbacks_event_user_key") {
			return apperrors.ErrFeedbackExists
		}
		logger.Error().Err(err).Int64("eventID", f.EventID).Int64("userID", f.UserID).Msg("Error executing create feedback query")
		return fmt.Errorf("error creating feedback: %w", err)
	}
	return nil
}

// Exists reports whether the user already rated the event
func (r *FeedbackRepository) Exists(ctx context.Context, eventID, userID int64) (bool, error) {
	n, err := countRows(ctx, r.db, r.sb.Select("COUNT(*)").
		From("feedbacks").
		Where(squirrel.Eq{"event_id": eventID, "user_id": userID}), "feedback")
	return n > 0, err
}

func (r *FeedbackRepository) selectFeedback() squirrel.SelectBuilder {
	return r.sb.Select(feedbackColumns...).
		From("feedbacks f").
		Join("users u ON u.id = f.user_id").
		Join("events e ON e.id = f.event_id")
}

func (r *FeedbackRepository) query(ctx context.Context, what string, builder squirrel.SelectBuilder) ([]*models.Feedback, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, buildError(err, what)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("query", what).Msg("Error executing feedback query")
		return nil, fmt.Errorf("error listing feedback: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Feedback, 0)
	for rows.Next() {
		f := &models.Feedback{}
		if err := rows.Scan(feedbackDest(f)...); err != nil {
			return nil, fmt.Errorf("error scanning feedback: %w", err)
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// List returns one page of all feedback, newest first, plus the total
func (r *FeedbackRepository) List(ctx context.Context, offset, limit uint64) ([]*models.Feedback, int64, error) {
	total, err := countRows(ctx, r.db, r.sb.Select("COUNT(*)").From("feedbacks"), "feedback")
	if err != nil {
		return nil, 0, err
	}

	list, err := r.query(ctx, "list feedback", r.selectFeedback().
		OrderBy("f.submitted_date DESC", "f.id DESC").
		Offset(offset).
		Limit(limit))
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByEvent returns the feedback of one event, newest first
func (r *FeedbackRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.Feedback, error) {
	return r.query(ctx, "event feedback", r.selectFeedback().
		Where(squirrel.Eq{"f.event_id": eventID}).
		OrderBy("f.submitted_date DESC", "f.id DESC"))
}

// Delete removes a feedback entry
func (r *FeedbackRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("feedbacks").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return buildError(err, "delete feedback")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("feedbackID", id).Msg("Error executing delete feedback query")
		return fmt.Errorf("error deleting feedback: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrFeedbackNotFound
	}
	return nil
}
