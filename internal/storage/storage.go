package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"auth_api/internal/apperror"
	"auth_api/internal/models"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const usersTable = "users"

const uniqueViolationCode = "23505"

type CreateUserParams struct {
	Email          string
	FullName       string
	AvatarURL      *string
	HashedPassword string
	IsActive       bool
	IsAdmin        bool
}

// UserUpdate is a partial update of one user row. Pointer fields are written
// only when set. ClearRefreshToken writes NULL into hashed_refresh_token,
// which a pointer field alone cannot express.
type UserUpdate struct {
	FullName           *string
	AvatarURL          *string
	HashedPassword     *string
	HashedRefreshToken *string
	ClearRefreshToken  bool
	IsActive           *bool
}

type Storage interface {
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, upd UserUpdate) (models.User, error)

	Close()
}

const userColumns = "id, email, full_name, avatar_url, hashed_password, hashed_refresh_token, is_active, is_admin, created_at, updated_at, deleted_at"

type PostgresStorage struct {
	db *pgxpool.Pool
}

func NewPostgresStorage(dbURL string) (*PostgresStorage, error) {
	const op = "storage.NewPostgresStorage"

	conn, err := pgxpool.Connect(context.Background(), dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PostgresStorage{
		db: conn,
	}, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.HashedPassword,
		&user.HashedRefreshToken,
		&user.IsActive,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	return user, err
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.GetUserByEmail"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE email=$1;", userColumns, usersTable)

	user, err := scanUser(p.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, apperror.ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "storage.GetUserByID"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1;", userColumns, usersTable)

	user, err := scanUser(p.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, apperror.ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (p *PostgresStorage) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	const op = "storage.CreateUser"

	query := fmt.Sprintf(`INSERT INTO %s(email, full_name, avatar_url, hashed_password, is_active, is_admin)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING %s;`, usersTable, userColumns)

	user, err := scanUser(p.db.QueryRow(ctx, query,
		params.Email, params.FullName, params.AvatarURL, params.HashedPassword, params.IsActive, params.IsAdmin))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return models.User{}, apperror.ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (p *PostgresStorage) UpdateUser(ctx context.Context, userID uuid.UUID, upd UserUpdate) (models.User, error) {
	const op = "storage.UpdateUser"

	set := []string{"updated_at=now()"}
	args := []interface{}{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.AvatarURL != nil {
		add("avatar_url", *upd.AvatarURL)
	}
	if upd.HashedPassword != nil {
		add("hashed_password", *upd.HashedPassword)
	}
	if upd.ClearRefreshToken {
		set = append(set, "hashed_refresh_token=NULL")
	} else if upd.HashedRefreshToken != nil {
		add("hashed_refresh_token", *upd.HashedRefreshToken)
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id=$%d RETURNING %s;",
		usersTable, strings.Join(set, ", "), len(args), userColumns)

	user, err := scanUser(p.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, apperror.ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (p *PostgresStorage) Close() {
	p.db.Close()
}
