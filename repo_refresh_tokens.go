package authkit

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens owns refresh-token persistence and the Active → Revoked
// transition. Records are inserted once and mutated exactly once; nothing is
// ever deleted.
type RefreshTokens interface {
	repository.Repository[*RefreshToken]

	GetByValue(ctx context.Context, value string) (*RefreshToken, error)
	GetByValueTx(ctx context.Context, tx bun.IDB, value string) (*RefreshToken, error)

	Issue(ctx context.Context, userID uuid.UUID, ttl time.Duration, meta DeviceMetadata) (*RefreshToken, error)
	IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, ttl time.Duration, meta DeviceMetadata) (*RefreshToken, error)

	Rotate(ctx context.Context, value string, ttl time.Duration, meta DeviceMetadata) (*RefreshToken, error)

	RevokeAllForUser(ctx context.Context, userID uuid.UUID, deviceID string) error
	ActiveForUser(ctx context.Context, userID uuid.UUID, deviceID string) ([]*RefreshToken, error)
}

type refreshTokens struct {
	repository.Repository[*RefreshToken]
	db  *bun.DB
	now func() time.Time
}

var (
	_ RefreshTokens = (*refreshTokens)(nil)
	_ TokenStore    = (*refreshTokens)(nil)
)

type RefreshTokensOption func(*refreshTokens)

// WithRefreshTokensClock injects a custom clock (useful for tests).
func WithRefreshTokensClock(clock func() time.Time) RefreshTokensOption {
	return func(r *refreshTokens) {
		if clock != nil {
			r.now = clock
		}
	}
}

func NewRefreshTokensRepository(db *bun.DB, opts ...RefreshTokensOption) RefreshTokens {
	repo := repository.NewRepository[*RefreshToken](db, repository.ModelHandlers[*RefreshToken]{
		NewRecord: func() *RefreshToken { return &RefreshToken{} },
		GetID: func(t *RefreshToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *RefreshToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	tokens := &refreshTokens{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(tokens)
		}
	}

	return tokens
}

func (r *refreshTokens) GetByValue(ctx context.Context, value string) (*RefreshToken, error) {
	return r.GetByValueTx(ctx, r.db, value)
}

func (r *refreshTokens) GetByValueTx(ctx context.Context, tx bun.IDB, value string) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (r *refreshTokens) Issue(ctx context.Context, userID uuid.UUID, ttl time.Duration, meta DeviceMetadata) (*RefreshToken, error) {
	return r.IssueTx(ctx, r.db, userID, ttl, meta)
}

// IssueTx generates and persists a brand-new token. A value collision is
// vanishingly unlikely with 256 bits of entropy; it surfaces as
// ErrTokenCollision so the caller can regenerate.
func (r *refreshTokens) IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, ttl time.Duration, meta DeviceMetadata) (*RefreshToken, error) {
	value, err := GenerateRefreshValue()
	if err != nil {
		return nil, err
	}

	now := r.now()
	record := &RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     value,
		ExpiresAt: now.Add(ttl),
		CreatedAt: &now,
		DeviceID:  meta.DeviceID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTokenCollision
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token")
	}

	return record, nil
}

// Rotate looks up the presented value, revokes it, and persists a replacement
// for the same user in one transaction. Any failure rolls the whole exchange
// back, leaving the old token active. The conditional revoke is the
// serialization point: two racing rotations of the same value resolve to one
// winner because only one UPDATE finds revoked_at still NULL.
func (r *refreshTokens) Rotate(ctx context.Context, value string, ttl time.Duration, meta DeviceMetadata) (*RefreshToken, error) {
	var next *RefreshToken

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := r.GetByValueTx(ctx, tx, value)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrRefreshTokenInvalid
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to look up refresh token")
		}

		now := r.now()
		if !CanRevoke(current, now) {
			return ErrRefreshTokenInvalid
		}

		if err := r.revokeTx(ctx, tx, current.ID, now); err != nil {
			return err
		}

		next, err = r.IssueTx(ctx, tx, current.UserID, ttl, meta)
		return err
	})

	if err != nil {
		return nil, err
	}

	return next, nil
}

// revokeTx performs the compare-and-swap revocation. Zero rows affected means
// another rotation won the race; the caller must treat the token as invalid.
func (r *refreshTokens) revokeTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	res, err := tx.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("revoked_at = ?", at).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.revoked_at IS NULL").
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke refresh token")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to read revocation result")
	}

	if rows == 0 {
		return ErrRefreshTokenInvalid
	}

	return nil
}

// RevokeAllForUser marks every active token owned by the user as revoked,
// optionally scoped to one device. Revoking nothing is a no-op success.
func (r *refreshTokens) RevokeAllForUser(ctx context.Context, userID uuid.UUID, deviceID string) error {
	now := r.now()

	q := r.db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("revoked_at = ?", now).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.revoked_at IS NULL").
		Where("?TableAlias.expires_at > ?", now)

	if deviceID != "" {
		q = q.Where("?TableAlias.device_id = ?", deviceID)
	}

	if _, err := q.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke user refresh tokens")
	}

	return nil
}

// ActiveForUser lists the user's currently active tokens, optionally scoped
// to one device.
func (r *refreshTokens) ActiveForUser(ctx context.Context, userID uuid.UUID, deviceID string) ([]*RefreshToken, error) {
	now := r.now()

	var records []*RefreshToken
	q := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.revoked_at IS NULL").
		Where("?TableAlias.expires_at > ?", now).
		Order("created_at DESC")

	if deviceID != "" {
		q = q.Where("?TableAlias.device_id = ?", deviceID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list active refresh tokens")
	}

	return records, nil
}
