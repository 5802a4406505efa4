package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

var contactColumns = []string{
	"id", "full_name", "email", "phone", "subject", "message", "inquiry_type",
	"submitted_date", "admin_response", "response_date", "is_resolved",
}

func contactDest(c *models.Contact) []any {
	return []any{&c.ID, &c.FullName, &c.Email, &c.Phone, &c.Subject, &c.Message, &c.InquiryType,
		&c.SubmittedDate, &c.AdminResponse, &c.ResponseDate, &c.IsResolved}
}

// ContactRepository handles contact inquiry database operations
type ContactRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// Create stores an inquiry
func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	sql, args, err := r.sb.Insert("contacts").
		Columns("full_name", "email", "phone", "subject", "message", "inquiry_type", "submitted_date").
		Values(c.FullName, c.Email, c.Phone, c.Subject, c.Message, c.InquiryType, c.SubmittedDate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return buildError(err, "create contact")
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
		logger.Error().Err(err).Str("email", c.Email).Msg("Error executing create contact query")
		return fmt.Errorf("error creating contact: %w", err)
	}
	return nil
}

// GetByID retrieves an inquiry by ID
func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	sql, args, err := r.sb.Select(contactColumns...).From("contacts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, buildError(err, "get contact")
	}

	c := &models.Contact{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(contactDest(c)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrContactNotFound
		}
		logger.Error().Err(err).Int64("contactID", id).Msg("Error scanning contact row")
		return nil, fmt.Errorf("error retrieving contact: %w", err)
	}
	return c, nil
}

// List returns one page of inquiries, newest first. A nil resolved lists all.
func (r *ContactRepository) List(ctx context.Context, resolved *bool, offset, limit uint64) ([]*models.Contact, int64, error) {
	conds := squirrel.And{}
	if resolved != nil {
		conds = append(conds, squirrel.Eq{"is_resolved": *resolved})
	}

	total, err := countRows(ctx, r.db, r.sb.Select("COUNT(*)").From("contacts").Where(conds), "contacts")
	if err != nil {
		return nil, 0, err
	}

	sql, args, err := r.sb.Select(contactColumns...).
		From("contacts").
		Where(conds).
		OrderBy("submitted_date DESC", "id DESC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, buildError(err, "list contacts")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list contacts query")
		return nil, 0, fmt.Errorf("error listing contacts: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Contact, 0)
	for rows.Next() {
		c := &models.Contact{}
		if err := rows.Scan(contactDest(c)...); err != nil {
			return nil, 0, fmt.Errorf("error scanning contact: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Respond stores the administrator's answer and resolves the inquiry
func (r *ContactRepository) Respond(ctx context.Context, id int64, response string, at time.Time) error {
	sql, args, err := r.sb.Update("contacts").
		SetMap(map[string]interface{}{
			"admin_response": response,
			"response_date":  at,
			"is_resolved":    true,
		}).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return buildError(err, "respond contact")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("contactID", id).Msg("Error executing respond contact query")
		return fmt.Errorf("error responding to contact: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrContactNotFound
	}
	return nil
}

// Delete removes an inquiry
func (r *ContactRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("contacts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return buildError(err, "delete contact")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("contactID", id).Msg("Error executing delete contact query")
		return fmt.Errorf("error deleting contact: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrContactNotFound
	}
	return nil
}
