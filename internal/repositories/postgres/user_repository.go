package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/vitrineshop/api/internal/domain"
)

// UserRepository reads the contact slice of user profiles.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository builds a user repository over the shared pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByID loads the user's contact data.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.UserContact, error) {
	q := db(ctx, r.pool)

	var contact domain.UserContact
	err := q.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, userID).
		Scan(&contact.ID, &contact.Name, &contact.Email)
	if err != nil {
		return domain.UserContact{}, translate("users.find_by_id", err)
	}
	return contact, nil
}
