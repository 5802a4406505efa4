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
	"github.com/yigit/unievents/internal/db"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/dberrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

var clubColumns = []string{
	"cl.id", "cl.club_name", "cl.description", "cl.admin_user_id", "cl.created_date", "cl.logo_url", "cl.is_active",
	"(SELECT COUNT(*) FROM club_members m WHERE m.club_id = cl.id AND m.status = 'Approved')",
}

func clubDest(c *models.Club) []any {
	return []any{&c.ID, &c.ClubName, &c.Description, &c.AdminUserID, &c.CreatedDate, &c.LogoURL, &c.IsActive, &c.MemberCount}
}

var clubMemberColumns = []string{
	"cm.id", "cm.club_id", "cm.user_id", "cm.join_date", "cm.role", "cm.status",
}

func clubMemberDest(m *models.ClubMember) []any {
	return []any{&m.ID, &m.ClubID, &m.UserID, &m.JoinDate, &m.Role, &m.Status}
}

// ClubRepository handles club and club membership database operations
type ClubRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewClubRepository creates a new ClubRepository
func NewClubRepository(db *pgxpool.Pool) *ClubRepository {
	return &ClubRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// Create inserts a club and fills in its ID and created date
func (r *ClubRepository) Create(ctx context.Context, club *models.Club) error {
	sql, args, err := r.sb.Insert("clubs").
		Columns("club_name", "description", "admin_user_id", "logo_url", "is_active").
		Values(club.ClubName, club.Description, club.AdminUserID, club.LogoURL, club.IsActive).
		Suffix("RETURNING id, created_date").
		ToSql()
	if err != nil {
		return buildError(err, "create club")
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&club.ID, &club.CreatedDate); err != nil {
		if dberrors.IsForeignKeyError(err) {
			return fmt.Errorf("%w: club admin user does not exist", apperrors.ErrUserNotFound)
		}
		logger.Error().Err(err).Str("clubName", club.ClubName).Msg("Error executing create club query")
		return fmt.Errorf("error creating club: %w", err)
	}
	return nil
}

// GetByID retrieves a club with its approved member count
func (r *ClubRepository) GetByID(ctx context.Context, id int64) (*models.Club, error) {
	sql, args, err := r.sb.Select(clubColumns...).From("clubs cl").Where(squirrel.Eq{"cl.id": id}).ToSql()
	if err != nil {
		return nil, buildError(err, "get club")
	}

	club := &models.Club{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(clubDest(club)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClubNotFound
		}
		logger.Error().Err(err).Int64("clubID", id).Msg("Error scanning club row")
		return nil, fmt.Errorf("error retrieving club: %w", err)
	}
	return club, nil
}

// List returns clubs by name, optionally only the active ones
func (r *ClubRepository) List(ctx context.Context, activeOnly bool) ([]*models.Club, error) {
	builder := r.sb.Select(clubColumns...).From("clubs cl").OrderBy("cl.club_name ASC", "cl.id ASC")
	if activeOnly {
		builder = builder.Where(squirrel.Eq{"cl.is_active": true})
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, buildError(err, "list clubs")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list clubs query")
		return nil, fmt.Errorf("error listing clubs: %w", err)
	}
	defer rows.Close()

	clubs := make([]*models.Club, 0)
	for rows.Next() {
		club := &models.Club{}
		if err := rows.Scan(clubDest(club)...); err != nil {
			return nil, fmt.Errorf("error scanning club: %w", err)
		}
		clubs = append(clubs, club)
	}
	return clubs, rows.Err()
}

// Update writes the editable club fields
func (r *ClubRepository) Update(ctx context.Context, club *models.Club) error {
	return r.updateClub(ctx, club.ID, "update club", map[string]interface{}{
		"club_name":     club.ClubName,
		"description":   club.Description,
		"admin_user_id": club.AdminUserID,
		"is_active":     club.IsActive,
	})
}

// SetLogoURL stores the uploaded logo location
func (r *ClubRepository) SetLogoURL(ctx context.Context, id int64, url string) error {
	return r.updateClub(ctx, id, "set club logo", map[string]interface{}{"logo_url": url})
}

func (r *ClubRepository) updateClub(ctx context.Context, id int64, what string, values map[string]interface{}) error {
	sql, args, err := r.sb.Update("clubs").SetMap(values).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return buildError(err, what)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return fmt.Errorf("%w: club admin user does not exist", apperrors.ErrUserNotFound)
		}
		logger.Error().Err(err).Int64("clubID", id).Str("operation", what).Msg("Error executing club update")
		return fmt.Errorf("error executing %s: %w", what, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrClubNotFound
	}
	return nil
}

// Delete removes the memberships of a club and then the club itself
func (r *ClubRepository) Delete(ctx context.Context, id int64) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Delete("club_members").Where(squirrel.Eq{"club_id": id}).ToSql()
		if err != nil {
			return buildError(err, "delete club members")
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error deleting club members: %w", err)
		}

		sql, args, err = r.sb.Delete("clubs").Where(squirrel.Eq{"id": id}).ToSql()
		if err != nil {
			return buildError(err, "delete club")
		}
		cmdTag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			logger.Error().Err(err).Int64("clubID", id).Msg("Error executing delete club query")
			return fmt.Errorf("error deleting club: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrClubNotFound
		}
		return nil
	})
}

func (r *ClubRepository) getMember(ctx context.Context, where squirrel.Sqlizer) (*models.ClubMember, error) {
	sql, args, err := r.sb.Select(clubMemberColumns...).From("club_members cm").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, buildError(err, "get club member")
	}

	m := &models.ClubMember{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(clubMemberDest(m)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClubMembershipNotFound
		}
		logger.Error().Err(err).Msg("Error scanning club member row")
		return nil, fmt.Errorf("error retrieving club membership: %w", err)
	}
	return m, nil
}

// GetMembership returns the membership of userID in clubID
func (r *ClubRepository) GetMembership(ctx context.Context, clubID, userID int64) (*models.ClubMember, error) {
	return r.getMember(ctx, squirrel.Eq{"cm.club_id": clubID, "cm.user_id": userID})
}

// GetMemberByID retrieves a membership by ID
func (r *ClubRepository) GetMemberByID(ctx context.Context, id int64) (*models.ClubMember, error) {
	return r.getMember(ctx, squirrel.Eq{"cm.id": id})
}

// CreateMember inserts a membership request
func (r *ClubRepository) CreateMember(ctx context.Context, m *models.ClubMember) error {
	sql, args, err := r.sb.Insert("club_members").
		Columns("club_id", "user_id", "join_date", "role", "status").
		Values(m.ClubID, m.UserID, m.JoinDate, m.Role, m.Status).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return buildError(err, "create club member")
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&m.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "club_members_club_user_key") {
			return apperrors.ErrClubMembershipExists
		}
		logger.Error().Err(err).Int64("clubID", m.ClubID).Int64("userID", m.UserID).Msg("Error executing create club member query")
		return fmt.Errorf("error creating club membership: %w", err)
	}
	return nil
}

// ResetToPending turns a rejected membership back into a fresh request
func (r *ClubRepository) ResetToPending(ctx context.Context, id int64, joinDate time.Time) error {
	return r.updateMember(ctx, id, map[string]interface{}{
		"status":    models.MembershipPending,
		"join_date": joinDate,
	}, squirrel.Eq{"status": models.MembershipRejected})
}

// SetMemberStatus decides a pending membership
func (r *ClubRepository) SetMemberStatus(ctx context.Context, id int64, status models.MembershipStatus) error {
	return r.updateMember(ctx, id, map[string]interface{}{"status": status},
		squirrel.Eq{"status": models.MembershipPending})
}

func (r *ClubRepository) updateMember(ctx context.Context, id int64, values map[string]interface{}, guard squirrel.Eq) error {
	sql, args, err := r.sb.Update("club_members").
		SetMap(values).
		Where(squirrel.Eq{"id": id}).
		Where(guard).
		ToSql()
	if err != nil {
		return buildError(err, "update club member")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("memberID", id).Msg("Error executing club member update")
		return fmt.Errorf("error updating club membership: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, err := r.GetMemberByID(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrClubMembershipNotPending
	}
	return nil
}

// DeleteMember removes userID from clubID
func (r *ClubRepository) DeleteMember(ctx context.Context, clubID, userID int64) error {
	sql, args, err := r.sb.Delete("club_members").Where(squirrel.Eq{"club_id": clubID, "user_id": userID}).ToSql()
	if err != nil {
		return buildError(err, "delete club member")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("clubID", clubID).Int64("userID", userID).Msg("Error executing delete club member query")
		return fmt.Errorf("error deleting club membership: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrClubMembershipNotFound
	}
	return nil
}

// ListMembers returns a club's memberships with their users. A nil status lists all.
func (r *ClubRepository) ListMembers(ctx context.Context, clubID int64, status *models.MembershipStatus) ([]*models.ClubMember, error) {
	builder := r.sb.Select(append(append([]string{}, clubMemberColumns...), userColumns...)...).
		From("club_members cm").
		Join("users u ON u.id = cm.user_id").
		Where(squirrel.Eq{"cm.club_id": clubID}).
		OrderBy("cm.join_date ASC", "cm.id ASC")
	if status != nil {
		builder = builder.Where(squirrel.Eq{"cm.status": *status})
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, buildError(err, "club members")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("clubID", clubID).Msg("Error executing club members query")
		return nil, fmt.Errorf("error listing club members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.ClubMember, 0)
	for rows.Next() {
		m := &models.ClubMember{}
		u := &models.User{}
		if err := rows.Scan(append(clubMemberDest(m), userDest(u)...)...); err != nil {
			return nil, fmt.Errorf("error scanning club member: %w", err)
		}
		m.User = u
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListMembershipsByUser returns a user's memberships with their clubs
func (r *ClubRepository) ListMembershipsByUser(ctx context.Context, userID int64) ([]*models.ClubMember, error) {
	sql, args, err := r.sb.Select(append(append([]string{}, clubMemberColumns...), clubColumns...)...).
		From("club_members cm").
		Join("clubs cl ON cl.id = cm.club_id").
		Where(squirrel.Eq{"cm.user_id": userID}).
		OrderBy("cm.join_date DESC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "user memberships")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing user memberships query")
		return nil, fmt.Errorf("error listing memberships: %w", err)
	}
	defer rows.Close()

	members := make([]*models.ClubMember, 0)
	for rows.Next() {
		m := &models.ClubMember{}
		c := &models.Club{}
		if err := rows.Scan(append(clubMemberDest(m), clubDest(c)...)...); err != nil {
			return nil, fmt.Errorf("error scanning membership: %w", err)
		}
		m.Club = c
		members = append(members, m)
	}
	return members, rows.Err()
}
