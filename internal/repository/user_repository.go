package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/utils"
)

// UserRepo provides data access to the users table.  Only staff and admin
// accounts live here; customers interact with the API unauthenticated.
type UserRepo struct {
    db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a staff user with a bcrypt-hashed password and returns the
// generated id.  Returns ErrEmailExists on a duplicate email.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, bcryptCost int) (uint64, error) {
    hash, err := utils.HashPassword(password, bcryptCost)
    if err != nil {
        return 0, err
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO users (email, password_hash, role, is_active) VALUES (?, ?, ?, 1)`,
        email, hash, role)
    if err != nil {
        if strings.Contains(err.Error(), "Duplicate entry") {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail loads an active user by email.  Returns ErrUserNotFound when
// no matching active account exists.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    var u model.User
    err := r.db.QueryRowContext(ctx,
        `SELECT id, email, password_hash, role, is_active, created_at, updated_at
         FROM users WHERE email = ? AND is_active = 1`, email).
        Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }
    return &u, nil
}

// GetByID loads an active user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    var u model.User
    err := r.db.QueryRowContext(ctx,
        `SELECT id, email, password_hash, role, is_active, created_at, updated_at
         FROM users WHERE id = ? AND is_active = 1`, id).
        Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }
    return &u, nil
}
