package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"labequip-system/internal/dto"
	apperrors "labequip-system/pkg/errors"
)

type CategoryRepositoryInterface interface {
	GetCategories(ctx context.Context, limit, offset uint64) ([]dto.CategoryDTO, uint64, error)
	FindCategory(ctx context.Context, id uint64) (*dto.CategoryDTO, error)
	CategoryExists(ctx context.Context, id uint64) (bool, error)
	CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (uint64, error)
	UpdateCategory(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) error
	DeleteCategory(ctx context.Context, id uint64) error
}

type CategoryRepository struct {
	storage *pgxpool.Pool
}

func NewCategoryRepository(storage *pgxpool.Pool) CategoryRepositoryInterface {
	return &CategoryRepository{storage: storage}
}

func (r *CategoryRepository) GetCategories(ctx context.Context, limit, offset uint64) ([]dto.CategoryDTO, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта категорий: %w", err)
	}

	rows, err := r.storage.Query(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM categories ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка категорий: %w", err)
	}
	defer rows.Close()

	list := make([]dto.CategoryDTO, 0)
	for rows.Next() {
		var item dto.CategoryDTO
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &createdAt, &updatedAt); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования категории: %w", err)
		}
		item.CreatedAt = createdAt.Local().Format("2006-01-02 15:04:05")
		item.UpdatedAt = updatedAt.Local().Format("2006-01-02 15:04:05")
		list = append(list, item)
	}
	return list, total, nil
}

func (r *CategoryRepository) FindCategory(ctx context.Context, id uint64) (*dto.CategoryDTO, error) {
	var item dto.CategoryDTO
	var createdAt, updatedAt time.Time

	err := r.storage.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM categories WHERE id = $1`, id,
	).Scan(&item.ID, &item.Name, &item.Description, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования категории: %w", err)
	}

	item.CreatedAt = createdAt.Local().Format("2006-01-02 15:04:05")
	item.UpdatedAt = updatedAt.Local().Format("2006-01-02 15:04:05")
	return &item, nil
}

func (r *CategoryRepository) CategoryExists(ctx context.Context, id uint64) (bool, error) {
	var exists bool
	if err := r.storage.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования категории: %w", err)
	}
	return exists, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (uint64, error) {
	var newID uint64
	err := r.storage.QueryRow(ctx,
		`INSERT INTO categories (name, description, created_at, updated_at)
		 VALUES ($1, $2, NOW(), NOW()) RETURNING id`,
		payload.Name, payload.Description,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания категории: %w", err)
	}
	return newID, nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) error {
	result, err := r.storage.Exec(ctx,
		`UPDATE categories SET
			name = COALESCE($1, name),
			description = COALESCE($2, description),
			updated_at = NOW()
		 WHERE id = $3`,
		payload.Name, payload.Description, id,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления категории: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id uint64) error {
	var inUse bool
	if err := r.storage.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM equipments WHERE category_id = $1)`, id).Scan(&inUse); err != nil {
		return fmt.Errorf("ошибка проверки использования категории: %w", err)
	}
	if inUse {
		return apperrors.NewConflictError("категория используется оборудованием")
	}

	result, err := r.storage.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления категории: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
