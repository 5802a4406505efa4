package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unievents/internal/db"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/dberrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

// revokedRetention is how long revoked tokens are kept before cleanup
const revokedRetention = 30 * 24 * time.Hour

// TokenRepository handles refresh token database operations
type TokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

func (r *TokenRepository) insert(ctx context.Context, q querier, token string, userID int64, expiryDate time.Time) error {
	sql, args, err := r.sb.Insert("refresh_tokens").
		Columns("token", "user_id", "expiry_date", "is_revoked", "created_at").
		Values(token, userID, expiryDate, false, time.Now()).
		ToSql()
	if err != nil {
		return buildError(err, "create token")
	}

	if _, err = q.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "refresh_tokens_pkey") {
			logger.Warn().Int64("userID", userID).Msg("Attempted to create duplicate token")
			return apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing create token query")
		return fmt.Errorf("error creating token: %w", err)
	}
	return nil
}

// CreateToken stores a new refresh token
func (r *TokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	return r.insert(ctx, r.db, token, userID, expiryDate)
}

// GetValidToken returns the owner of a live refresh token. Revoked and
// expired tokens are reported with their own errors.
func (r *TokenRepository) GetValidToken(ctx context.Context, token string) (int64, error) {
	return r.validToken(ctx, r.db, token, false)
}

func (r *TokenRepository) validToken(ctx context.Context, q querier, token string, lock bool) (int64, error) {
	builder := r.sb.Select("user_id", "expiry_date", "is_revoked").
		From("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		Limit(1)
	if lock {
		builder = builder.Suffix("FOR UPDATE")
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, buildError(err, "get token")
	}

	var (
		userID     int64
		expiryDate time.Time
		isRevoked  bool
	)
	if err := q.QueryRow(ctx, sql, args...).Scan(&userID, &expiryDate, &isRevoked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrTokenNotFound
		}
		logger.Error().Err(err).Msg("Error scanning token row")
		return 0, fmt.Errorf("error retrieving token: %w", err)
	}

	if isRevoked {
		return 0, apperrors.ErrTokenRevoked
	}
	if expiryDate.Before(time.Now()) {
		return 0, apperrors.ErrTokenExpired
	}
	return userID, nil
}

// RotateToken revokes oldToken and stores newToken for the same user in one
// transaction. A token can only be rotated once.
func (r *TokenRepository) RotateToken(ctx context.Context, oldToken, newToken string, expiryDate time.Time) (int64, error) {
	var userID int64
	err := db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		userID, err = r.validToken(ctx, tx, oldToken, true)
		if err != nil {
			return err
		}
		if err := r.revoke(ctx, tx, oldToken); err != nil {
			return err
		}
		return r.insert(ctx, tx, newToken, userID, expiryDate)
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (r *TokenRepository) revoke(ctx context.Context, q querier, token string) error {
	sql, args, err := r.sb.Update("refresh_tokens").
		Set("is_revoked", true).
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return buildError(err, "revoke token")
	}

	cmdTag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing revoke token query")
		return fmt.Errorf("error revoking token: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTokenNotFound
	}
	return nil
}

// RevokeToken revokes a token
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	return r.revoke(ctx, r.db, token)
}

// RevokeAllUserTokens revokes all tokens for a specific user
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("refresh_tokens").
		Set("is_revoked", true).
		Where(squirrel.Eq{"user_id": userID, "is_revoked": false}).
		ToSql()
	if err != nil {
		return buildError(err, "revoke all user tokens")
	}

	// Kullanıcının aktif token'ı olmaması hata değil
	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing revoke all user tokens query")
		return fmt.Errorf("error revoking user tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens removes expired tokens and old revoked ones
func (r *TokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	now := time.Now()

	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Or{
			squirrel.Lt{"expiry_date": now},
			squirrel.And{
				squirrel.Eq{"is_revoked": true},
				squirrel.Lt{"created_at": now.Add(-revokedRetention)},
			},
		}).
		ToSql()
	if err != nil {
		return 0, buildError(err, "cleanup tokens")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing cleanup tokens query")
		return 0, fmt.Errorf("error cleaning up tokens: %w", err)
	}

	deletedCount := cmdTag.RowsAffected()
	logger.Info().Int64("deletedCount", deletedCount).Msg("Cleaned up expired/old revoked tokens")
	return deletedCount, nil
}
