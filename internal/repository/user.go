package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"pharmapos/m/domain"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, full_name, email, password, role, is_active, last_login, created_at, updated_at`

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY username`)
	return users, errors.Wrap(err, "list users")
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, errors.Wrap(err, "count users")
}

func (r *UserRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = 'admin' AND is_active = 1`)
	return n, errors.Wrap(err, "count admins")
}

// Create expects u.Password to already hold the bcrypt hash.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO users (username, full_name, email, password, role, is_active, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.FullName, u.Email, u.Password, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return errors.Wrap(domain.ErrConflict, "username already exists")
	}
	if err != nil {
		return errors.Wrap(err, "insert user")
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET username = ?, full_name = ?, email = ?, role = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		u.Username, u.FullName, u.Email, u.Role, u.IsActive, u.UpdatedAt, u.ID)
	if isUniqueViolation(err) {
		return errors.Wrap(domain.ErrConflict, "username already exists")
	}
	if err != nil {
		return errors.Wrap(err, "update user")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash, stamp string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password = ?, updated_at = ? WHERE id = ?`, hash, stamp, id)
	if err != nil {
		return errors.Wrap(err, "update password")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, stamp string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, stamp, id)
	return errors.Wrap(err, "record last login")
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
