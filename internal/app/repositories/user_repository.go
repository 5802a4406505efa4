package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/dberrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

var userColumns = []string{
	"u.id", "u.email", "u.password_hash", "u.phone", "u.email_confirmed", "u.two_factor_enabled",
	"u.first_name", "u.last_name", "u.university_id", "u.user_type", "u.department",
	"u.join_date", "u.total_volunteer_hours", "u.is_active", "u.last_login_at",
}

func userDest(u *models.User) []any {
	return []any{
		&u.ID, &u.Email, &u.PasswordHash, &u.Phone, &u.EmailConfirmed, &u.TwoFactorEnabled,
		&u.FirstName, &u.LastName, &u.UniversityID, &u.UserType, &u.Department,
		&u.JoinDate, &u.TotalVolunteerHours, &u.IsActive, &u.LastLoginAt,
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(userDest(u)...); err != nil {
		return nil, err
	}
	return u, nil
}

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// Create inserts a user and fills in its ID and join date
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("email", "password_hash", "phone", "email_confirmed", "two_factor_enabled",
			"first_name", "last_name", "university_id", "user_type", "department", "is_active").
		Values(user.Email, user.PasswordHash, user.Phone, user.EmailConfirmed, user.TwoFactorEnabled,
			user.FirstName, user.LastName, user.UniversityID, user.UserType, user.Department, user.IsActive).
		Suffix("RETURNING id, join_date").
		ToSql()
	if err != nil {
		return buildError(err, "create user")
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.JoinDate); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_lower_idx") {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).
		From("users u").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, buildError(err, "get user")
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.id": id})
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Expr("LOWER(u.email) = LOWER(?)", strings.TrimSpace(email)))
}

// IsEmailVerified is used by the email verification middleware
func (r *UserRepository) IsEmailVerified(ctx context.Context, userID int64) (bool, error) {
	sql, args, err := r.sb.Select("email_confirmed").From("users").Where(squirrel.Eq{"id": userID}).ToSql()
	if err != nil {
		return false, buildError(err, "email verified")
	}

	var confirmed bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&confirmed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.ErrUserNotFound
		}
		return false, fmt.Errorf("error checking email verification: %w", err)
	}
	return confirmed, nil
}

// Update writes the editable profile and account fields
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.exec(ctx, "update user", r.sb.Update("users").
		SetMap(map[string]interface{}{
			"email":         user.Email,
			"first_name":    user.FirstName,
			"last_name":     user.LastName,
			"phone":         user.Phone,
			"university_id": user.UniversityID,
			"department":    user.Department,
			"is_active":     user.IsActive,
		}).
		Where(squirrel.Eq{"id": user.ID}))
}

// UpdatePassword replaces the password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	return r.exec(ctx, "update password", r.sb.Update("users").
		Set("password_hash", hash).
		Where(squirrel.Eq{"id": userID}))
}

// ConfirmEmail marks the address verified
func (r *UserRepository) ConfirmEmail(ctx context.Context, userID int64) error {
	return r.exec(ctx, "confirm email", r.sb.Update("users").
		Set("email_confirmed", true).
		Where(squirrel.Eq{"id": userID}))
}

// SetTwoFactor toggles two-factor authentication
func (r *UserRepository) SetTwoFactor(ctx context.Context, userID int64, enabled bool) error {
	return r.exec(ctx, "set two factor", r.sb.Update("users").
		Set("two_factor_enabled", enabled).
		Where(squirrel.Eq{"id": userID}))
}

// SetUserType changes the account type
func (r *UserRepository) SetUserType(ctx context.Context, userID int64, userType models.UserType) error {
	return r.exec(ctx, "set user type", r.sb.Update("users").
		Set("user_type", userType).
		Where(squirrel.Eq{"id": userID}))
}

// UpdateLastLogin records a successful login
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.exec(ctx, "update last login", r.sb.Update("users").
		Set("last_login_at", at).
		Where(squirrel.Eq{"id": userID}))
}

func (r *UserRepository) exec(ctx context.Context, what string, builder squirrel.UpdateBuilder) error {
	sql, args, err := builder.ToSql()
	if err != nil {
		return buildError(err, what)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_lower_idx") {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("operation", what).Msg("Error executing user update")
		return fmt.Errorf("error executing %s: %w", what, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Delete removes a user. Users who created events cannot be removed.
func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Delete("users").Where(squirrel.Eq{"id": userID}).ToSql()
	if err != nil {
		return buildError(err, "delete user")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.NewConflictError("user still owns events and cannot be deleted")
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing delete user query")
		return fmt.Errorf("error deleting user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func userFilterConditions(filter models.UserFilter) squirrel.And {
	conds := squirrel.And{}
	if q := strings.TrimSpace(filter.Search); q != "" {
		pattern := "%" + q + "%"
		conds = append(conds, squirrel.Or{
			squirrel.ILike{"u.first_name": pattern},
			squirrel.ILike{"u.last_name": pattern},
			squirrel.ILike{"u.email": pattern},
			squirrel.ILike{"u.university_id": pattern},
		})
	}
	if filter.IsActive != nil {
		conds = append(conds, squirrel.Eq{"u.is_active": *filter.IsActive})
	}
	if filter.UserType != "" {
		conds = append(conds, squirrel.Eq{"u.user_type": filter.UserType})
	}
	if filter.From != nil {
		conds = append(conds, squirrel.GtOrEq{"u.join_date": *filter.From})
	}
	if filter.To != nil {
		conds = append(conds, squirrel.Lt{"u.join_date": *filter.To})
	}
	return conds
}

// List returns one page of users matching filter, newest first, plus the total
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter, offset, limit uint64) ([]*models.User, int64, error) {
	conds := userFilterConditions(filter)

	total, err := countRows(ctx, r.db, r.sb.Select("COUNT(*)").From("users u").Where(conds), "users")
	if err != nil {
		return nil, 0, err
	}

	sql, args, err := r.sb.Select(userColumns...).
		From("users u").
		Where(conds).
		OrderBy("u.join_date DESC", "u.id DESC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, buildError(err, "list users")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return users, total, nil
}

// ListActiveIDs returns the ids of every active user
func (r *UserRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	sql, args, err := r.sb.Select("id").From("users").Where(squirrel.Eq{"is_active": true}).OrderBy("id").ToSql()
	if err != nil {
		return nil, buildError(err, "active user ids")
	}
	return collectIDs(ctx, r.db, sql, args)
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.db, r.sb.Select("COUNT(*)").From("users"), "users")
}

func collectIDs(ctx context.Context, q querier, sql string, args []interface{}) ([]int64, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing id query")
		return nil, fmt.Errorf("error querying ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error collecting ids: %w", err)
	}
	return ids, nil
}
