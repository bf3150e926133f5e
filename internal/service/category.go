package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/repository"
)

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type CategoryService struct {
	repo  *repository.CategoryRepository
	log   *zap.Logger
	clock clock
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*domain.Category, error) {
	return s.repo.Get(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	c := &domain.Category{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   s.clock.Stamp(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("category created", zap.Int64("id", c.ID), zap.String("name", c.Name))
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) (*domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.Description = strings.TrimSpace(in.Description)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete category %d", id)
	}
	s.log.Info("category deleted", zap.Int64("id", id))
	return nil
}
