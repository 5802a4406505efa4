package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/db"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/dberrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

var certificateColumns = []string{
	"c.id", "c.user_id", "c.event_id", "c.issue_date", "c.certificate_url", "c.certificate_number", "c.is_downloaded",
}

func certificateDest(c *models.Certificate) []any {
	return []any{&c.ID, &c.UserID, &c.EventID, &c.IssueDate, &c.CertificateURL, &c.CertificateNumber, &c.IsDownloaded}
}

// CertificateRepository handles certificate database operations
type CertificateRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCertificateRepository creates a new CertificateRepository
func NewCertificateRepository(db *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// Issue stores the certificate and credits volunteerHours to its user in
// the same transaction. The download URL is derived from the new id.
func (r *CertificateRepository) Issue(ctx context.Context, cert *models.Certificate, volunteerHours int) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("certificates").
			Columns("user_id", "event_id", "issue_date", "certificate_number", "is_downloaded").
			Values(cert.UserID, cert.EventID, cert.IssueDate, cert.CertificateNumber, false).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return buildError(err, "issue certificate")
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&cert.ID); err != nil {
			switch {
			case dberrors.IsDuplicateConstraintError(err, "certificates_event_user_key"):
				return apperrors.ErrCertificateExists
			case dberrors.IsDuplicateConstraintError(err, "certificates_number_key"):
				return apperrors.NewConflictError("certificate number collision, please retry")
			}
			logger.Error().Err(err).Int64("eventID", cert.EventID).Int64("userID", cert.UserID).Msg("Error executing issue certificate query")
			return fmt.Errorf("error issuing certificate: %w", err)
		}

		cert.CertificateURL = models.CertificateDownloadURL(cert.ID)
		sql, args, err = r.sb.Update("certificates").
			Set("certificate_url", cert.CertificateURL).
			Where(squirrel.Eq{"id": cert.ID}).
			ToSql()
		if err != nil {
			return buildError(err, "certificate url")
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error storing certificate url: %w", err)
		}

		sql, args, err = r.sb.Update("users").
			Set("total_volunteer_hours", squirrel.Expr("total_volunteer_hours + ?", volunteerHours)).
			Where(squirrel.Eq{"id": cert.UserID}).
			ToSql()
		if err != nil {
			return buildError(err, "add volunteer hours")
		}
		cmdTag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			logger.Error().Err(err).Int64("userID", cert.UserID).Msg("Error adding volunteer hours")
			return fmt.Errorf("error adding volunteer hours: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil
	})
}

// GetByID returns a certificate with its event and user
func (r *CertificateRepository) GetByID(ctx context.Context, id int64) (*models.Certificate, error) {
	columns := append(append(append([]string{}, eventColumns...), certificateColumns...), userColumns...)
	sql, args, err := r.sb.Select(columns...).
		From("certificates c").
		Join("events e ON e.id = c.event_id").
		Join("users u ON u.id = c.user_id").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, buildError(err, "get certificate")
	}

	cert := &models.Certificate{}
	user := &models.User{}
	event, err := scanEvent(r.db.QueryRow(ctx, sql, args...), append(certificateDest(cert), userDest(user)...)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCertificateNotFound
		}
		logger.Error().Err(err).Int64("certificateID", id).Msg("Error scanning certificate row")
		return nil, fmt.Errorf("error retrieving certificate: %w", err)
	}
	cert.Event = event
	cert.User = user
	return cert, nil
}

// MarkDownloaded flags the certificate as downloaded
func (r *CertificateRepository) MarkDownloaded(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("certificates").Set("is_downloaded", true).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return buildError(err, "mark downloaded")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("certificateID", id).Msg("Error executing mark downloaded query")
		return fmt.Errorf("error updating certificate: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCertificateNotFound
	}
	return nil
}

// ListByUser returns a user's certificates with their events, newest first
func (r *CertificateRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Certificate, error) {
	sql, args, err := r.sb.Select(append(append([]string{}, eventColumns...), certificateColumns...)...).
		From("certificates c").
		Join("events e ON e.id = c.event_id").
		Where(squirrel.Eq{"c.user_id": userID}).
		OrderBy("c.issue_date DESC", "c.id DESC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "user certificates")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing user certificates query")
		return nil, fmt.Errorf("error listing certificates: %w", err)
	}
	defer rows.Close()

	certs := make([]*models.Certificate, 0)
	for rows.Next() {
		cert := &models.Certificate{}
		event, err := scanEvent(rows, certificateDest(cert)...)
		if err != nil {
			return nil, fmt.Errorf("error scanning certificate: %w", err)
		}
		cert.Event = event
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}

// ListByEvent returns an event's certificates with their users
func (r *CertificateRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.Certificate, error) {
	sql, args, err := r.sb.Select(append(append([]string{}, certificateColumns...), userColumns...)...).
		From("certificates c").
		Join("users u ON u.id = c.user_id").
		Where(squirrel.Eq{"c.event_id": eventID}).
		OrderBy("c.issue_date ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "event certificates")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("eventID", eventID).Msg("Error executing event certificates query")
		return nil, fmt.Errorf("error listing certificates: %w", err)
	}
	defer rows.Close()

	certs := make([]*models.Certificate, 0)
	for rows.Next() {
		cert := &models.Certificate{}
		user := &models.User{}
		if err := rows.Scan(append(certificateDest(cert), userDest(user)...)...); err != nil {
			return nil, fmt.Errorf("error scanning certificate: %w", err)
		}
		cert.User = user
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}
