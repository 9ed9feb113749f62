package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	apperrors "asset-system/pkg/errors"
)

const (
	userTable  = "users"
	userFields = "id, fio, login, password_hash, role, department_id, created_at, updated_at, deleted_at"
)

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	FindByLogin(ctx context.Context, login string) (*entities.User, error)
	FindUsersByIDs(ctx context.Context, ids []uint64) (map[uint64]entities.User, error)
	Create(ctx context.Context, user *entities.User) (uint64, error)
}

type userRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &userRepository{storage: storage, logger: logger}
}

func (r *userRepository) scanRow(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.Fio, &u.Login, &u.PasswordHash, &u.Role, &u.DepartmentID,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования users: %w", err)
	}
	return &u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL`, userFields, userTable)
	return r.scanRow(r.storage.QueryRow(ctx, query, id))
}

func (r *userRepository) FindByLogin(ctx context.Context, login string) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE login = $1 AND deleted_at IS NULL`, userFields, userTable)
	return r.scanRow(r.storage.QueryRow(ctx, query, login))
}

func (r *userRepository) FindUsersByIDs(ctx context.Context, ids []uint64) (map[uint64]entities.User, error) {
	if len(ids) == 0 {
		return map[uint64]entities.User{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ANY($1) AND deleted_at IS NULL`, userFields, userTable)
	rows, err := r.storage.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки пользователей: %w", err)
	}
	defer rows.Close()

	users := make(map[uint64]entities.User, len(ids))
	for rows.Next() {
		var u entities.User
		if err := rows.Scan(
			&u.ID, &u.Fio, &u.Login, &u.PasswordHash, &u.Role, &u.DepartmentID,
			&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		users[u.ID] = u
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *entities.User) (uint64, error) {
	query := `
		INSERT INTO users (fio, login, password_hash, role, department_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id uint64
	err := r.storage.QueryRow(ctx, query,
		user.Fio, user.Login, user.PasswordHash, user.Role, user.DepartmentID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return id, nil
}
