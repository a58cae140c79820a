package services

import (
	"context"

	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/repositories"
	"labequip-system/pkg/constants"
	"labequip-system/pkg/utils"
)

type CategoryServiceInterface interface {
	GetCategories(ctx context.Context, limit, offset uint64) ([]dto.CategoryDTO, uint64, error)
	FindCategory(ctx context.Context, id uint64) (*dto.CategoryDTO, error)
	CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (uint64, error)
	UpdateCategory(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) error
	DeleteCategory(ctx context.Context, id uint64) error
}

type CategoryService struct {
	categoryRepo repositories.CategoryRepositoryInterface
	logger       *zap.Logger
}

func NewCategoryService(categoryRepo repositories.CategoryRepositoryInterface, logger *zap.Logger) CategoryServiceInterface {
	return &CategoryService{categoryRepo: categoryRepo, logger: logger}
}

func (s *CategoryService) GetCategories(ctx context.Context, limit, offset uint64) ([]dto.CategoryDTO, uint64, error) {
	return s.categoryRepo.GetCategories(ctx, limit, offset)
}

func (s *CategoryService) FindCategory(ctx context.Context, id uint64) (*dto.CategoryDTO, error) {
	return s.categoryRepo.FindCategory(ctx, id)
}

func (s *CategoryService) CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (uint64, error) {
	if err := utils.RequirePermission(ctx, constants.PermManageEquipment); err != nil {
		return 0, err
	}
	return s.categoryRepo.CreateCategory(ctx, payload)
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) error {
	if err := utils.RequirePermission(ctx, constants.PermManageEquipment); err != nil {
		return err
	}
	return s.categoryRepo.UpdateCategory(ctx, id, payload)
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uint64) error {
	if err := utils.RequirePermission(ctx, constants.PermManageEquipment); err != nil {
		return err
	}
	return s.categoryRepo.DeleteCategory(ctx, id)
}
