package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"pharmapos/m/domain"
)

type CategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categorySelect = `SELECT c.id, c.name, c.description, c.created_at,
            (SELECT COUNT(*) FROM medicines m WHERE m.category_id = c.id) AS medicine_count
            FROM medicine_categories c`

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	err := r.db.SelectContext(ctx, &categories, categorySelect+" ORDER BY c.name")
	return categories, errors.Wrap(err, "list categories")
}

func (r *CategoryRepository) Get(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, categorySelect+" WHERE c.id = ?", id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, categorySelect+" WHERE c.name = ? COLLATE NOCASE", name); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO medicine_categories (name, description, created_at) VALUES (?, ?, ?)`,
		c.Name, c.Description, c.CreatedAt)
	if isUniqueViolation(err) {
		return errors.Wrap(domain.ErrConflict, "category name already exists")
	}
	if err != nil {
		return errors.Wrap(err, "insert category")
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE medicine_categories SET name = ?, description = ? WHERE id = ?`,
		c.Name, c.Description, c.ID)
	if isUniqueViolation(err) {
		return errors.Wrap(domain.ErrConflict, "category name already exists")
	}
	if err != nil {
		return errors.Wrap(err, "update category")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the category; its medicines become uncategorised.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicine_categories WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
