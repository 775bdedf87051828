package repository

import (
	"context"
	"errors"

	"auth_backend/internal/apperr"
	"auth_backend/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxIface is the subset of pgxpool.Pool the repository needs. Narrowed so
// pgxmock can stand in for the pool in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type userRepository struct {
	db PgxIface
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db PgxIface) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. The status column is filled by its DB default;
// approval happens through an external administrative update. A duplicate
// phone surfaces as a Conflict from the uniqueness constraint even when a
// prior existence check passed.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (id, phone, password_hash, role, created_at)
            VALUES ($1, $2, $3, $4, $5) RETURNING status`
	err := r.db.QueryRow(ctx, sql, user.ID, user.Phone, user.PasswordHash, user.Role, user.CreatedAt).Scan(&user.Status)
	if err != nil {
		return mapStoreError(err)
	}
	return nil
}

// FindByPhone retrieves a user by their phone number. A missing user is not
// an error for this method's contract; the service layer decides what absence
// means.
func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT id, phone, password_hash, role, status, created_at FROM users WHERE phone = $1`
	err := r.db.QueryRow(ctx, sql, phone).Scan(&user.ID, &user.Phone, &user.PasswordHash, &user.Role, &user.Status, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapStoreError(err)
	}
	return user, nil
}

// FindByID retrieves a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT id, phone, password_hash, role, status, created_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&user.ID, &user.Phone, &user.PasswordHash, &user.Role, &user.Status, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapStoreError(err)
	}
	return user, nil
}

// mapStoreError classifies a pgx/pgconn failure into the tagged error kinds
// the boundary normalizer understands. Every store failure maps to exactly
// one kind.
func mapStoreError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, "Record not found", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return apperr.Wrap(apperr.KindConflict, "Unique constraint violation", err)
		case pgerrcode.IsNoData(pgErr.Code):
			return apperr.Wrap(apperr.KindNotFound, "Record not found", err)
		case pgerrcode.IsDataException(pgErr.Code) || pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return apperr.Wrap(apperr.KindStoreValidation, "Invalid data for database operation", err)
		case pgerrcode.IsConnectionException(pgErr.Code) || pgerrcode.IsInsufficientResources(pgErr.Code):
			return apperr.Wrap(apperr.KindStoreUnavailable, "Database initialization error", err)
		case pgerrcode.IsInternalError(pgErr.Code) || pgerrcode.IsSystemError(pgErr.Code):
			return apperr.Wrap(apperr.KindStoreInternal, "Database internal error", err)
		default:
			return apperr.StoreRequest(pgErr.Code, err)
		}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return apperr.Wrap(apperr.KindStoreUnavailable, "Database initialization error", err)
	}

	return apperr.Wrap(apperr.KindUnknown, "", err)
}
