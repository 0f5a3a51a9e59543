package authkit

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var trackSuccessfulLoginSQL = `UPDATE "users" AS "usr"
SET
	"loggedin_at" = ?,
	"login_attempt_at" = NULL,
	"login_attempts" = 0
WHERE
	("usr"."id" = ?)
	AND "usr"."deleted_at" IS NULL;`

var deactivateUserSQL = `UPDATE "users" AS "usr"
SET
	"is_active" = FALSE
WHERE
	("usr"."id" = ?)
	AND "usr"."deleted_at" IS NULL;`

type Users interface {
	repository.Repository[*User]

	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)

	Register(ctx context.Context, user *User, claims []string) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User, claims []string) (*User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	DeactivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	GetClaims(ctx context.Context, userID uuid.UUID) ([]string, error)
	GetClaimsTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]string, error)
	AddClaims(ctx context.Context, userID uuid.UUID, claims []string) error
	AddClaimsTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, claims []string) error

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users     = (*users)(nil)
	_ UserStore = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("LOWER(?TableAlias.email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": NormalizeEmail(email)})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.FindByIDTx(ctx, a.db, id)
}

func (a *users) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User, claims []string) (*User, error) {
	var created *User
	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		created, err = a.RegisterTx(ctx, tx, user, claims)
		return err
	})
	return created, err
}

// RegisterTx creates the user and attaches its initial permission claims in
// one transaction. Email uniqueness is checked up front for a clear error;
// the unique index still closes the race.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User, claims []string) (*User, error) {
	prepareUserDefaults(user)

	if _, err := a.FindByEmailTx(ctx, tx, user.Email); err == nil {
		return nil, ErrEmailTaken.WithMetadata(map[string]any{"email": user.Email})
	} else if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	created, err := a.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken.WithMetadata(map[string]any{"email": user.Email})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create user")
	}

	if err := a.AddClaimsTx(ctx, tx, created.ID, claims); err != nil {
		return nil, err
	}

	return created, nil
}

func (a *users) Deactivate(ctx context.Context, id uuid.UUID) error {
	return a.DeactivateTx(ctx, a.db, id)
}

func (a *users) DeactivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewRaw(deactivateUserSQL, id).Exec(ctx)
	return err
}

func (a *users) GetClaims(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return a.GetClaimsTx(ctx, a.db, userID)
}

func (a *users) GetClaimsTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]string, error) {
	var values []string
	err := tx.NewSelect().
		Model((*UserClaim)(nil)).
		Column("value").
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.type = ?", ClaimTypePermission).
		Order("value ASC").
		Scan(ctx, &values)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user claims")
	}

	return values, nil
}

func (a *users) AddClaims(ctx context.Context, userID uuid.UUID, claims []string) error {
	return a.AddClaimsTx(ctx, a.db, userID, claims)
}

func (a *users) AddClaimsTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, claims []string) error {
	records := make([]*UserClaim, 0, len(claims))
	for _, value := range claims {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		records = append(records, &UserClaim{
			ID:     uuid.New(),
			UserID: userID,
			Type:   ClaimTypePermission,
			Value:  value,
		})
	}

	if len(records) == 0 {
		return nil
	}

	_, err := tx.NewInsert().
		Model(&records).
		On("CONFLICT DO NOTHING").
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to attach user claims")
	}

	return nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(trackSuccessfulLoginSQL, loggedInAt, user.ID).Exec(ctx)
	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(user.ID.String()),
	}

	record := &User{}
	record.ID = user.ID
	record.LoginAttempts = user.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.UpdateTx(ctx, tx, record, criteria...)

	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.IsActive = true
}
