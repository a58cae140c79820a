package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"labequip-system/internal/entities"
	apperrors "labequip-system/pkg/errors"
)

type UserRepositoryInterface interface {
	FindUser(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	UserExists(ctx context.Context, id uint64) (bool, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
}

func NewUserRepository(storage *pgxpool.Pool) UserRepositoryInterface {
	return &UserRepository{storage: storage}
}

func (r *UserRepository) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	return r.findUser(ctx, `SELECT id, fio, email, password_hash, role, permissions, created_at, updated_at FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findUser(ctx, `SELECT id, fio, email, password_hash, role, permissions, created_at, updated_at FROM users WHERE email = $1`, email)
}

func (r *UserRepository) findUser(ctx context.Context, query string, arg interface{}) (*entities.User, error) {
	var user entities.User
	var createdAt, updatedAt time.Time

	err := r.storage.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Fio, &user.Email, &user.PasswordHash, &user.Role, &user.Permissions,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
	}

	user.CreatedAt = &createdAt
	user.UpdatedAt = &updatedAt
	return &user, nil
}

func (r *UserRepository) UserExists(ctx context.Context, id uint64) (bool, error) {
	var exists bool
	if err := r.storage.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования пользователя: %w", err)
	}
	return exists, nil
}
