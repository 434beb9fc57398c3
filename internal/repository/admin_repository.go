package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/examhall/booking-api/internal/model"
	"github.com/examhall/booking-api/internal/utils"
	"github.com/go-sql-driver/mysql"
)

// AdminRepo manages sub-admin accounts.  Passwords are hashed with
// bcrypt before they reach the database.
type AdminRepo struct {
	db *sql.DB
}

// NewAdminRepo returns a new AdminRepo bound to the given database.
func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

// Create inserts a new admin account and returns its id.  Returns
// ErrEmailExists when the email is already registered.
func (r *AdminRepo) Create(ctx context.Context, name, email, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (name, email, password_hash) VALUES (?, ?, ?)`,
		name, email, hash)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail returns the admin account with the given email, or
// ErrAdminNotFound.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM admins WHERE email = ?`,
		email).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID returns the admin account with the given id, or ErrAdminNotFound.
func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (*model.Admin, error) {
	var a model.Admin
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM admins WHERE id = ?`,
		id).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns all admin accounts ordered by creation time.
func (r *AdminRepo) List(ctx context.Context) ([]model.Admin, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	admins := make([]model.Admin, 0)
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return admins, nil
}

// Delete removes an admin account.  Returns ErrAdminNotFound when no
// row was deleted.
func (r *AdminRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAdminNotFound
	}
	return nil
}
