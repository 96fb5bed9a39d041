package sqlstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/services/lms/model"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Email        string `bun:"email"`
	Name         string `bun:"name"`
	PasswordHash string `bun:"password_hash"`
	Role         string `bun:"role"`
	Locale       string `bun:"locale"`
	CreatedAt    int64  `bun:"created_at"`
	UpdatedAt    int64  `bun:"updated_at"`
}

func userToRow(user model.User) userRow {
	return userRow{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Locale:       user.Locale,
		CreatedAt:    toMillis(user.CreatedAt),
		UpdatedAt:    toMillis(user.UpdatedAt),
	}
}

func (r userRow) toModel() model.User {
	return model.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Role:         model.Role(r.Role),
		Locale:       r.Locale,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

// CreateUser inserts a user and assigns its id.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := userToRow(*user)
	if _, err := s.db.NewInsert().Model(&row).
		Column("email", "name", "password_hash", "role", "locale", "created_at", "updated_at").
		Returning("id").Exec(ctx); err != nil {
		return mapError(err)
	}
	user.ID = row.ID
	return nil
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	if err := s.ready(ctx); err != nil {
		return model.User{}, err
	}
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where("u.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.User{}, mapError(err)
	}
	return row.toModel(), nil
}

// GetUserByEmail loads a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	if err := s.ready(ctx); err != nil {
		return model.User{}, err
	}
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where("u.email = ?", email).Limit(1).Scan(ctx); err != nil {
		return model.User{}, mapError(err)
	}
	return row.toModel(), nil
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Order("u.id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	users := make([]model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, nil
}

// UpdateUser rewrites a user's mutable fields.
func (s *Store) UpdateUser(ctx context.Context, user model.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := userToRow(user)
	_, err := s.db.NewUpdate().Model(&row).
		Column("email", "name", "password_hash", "role", "locale", "updated_at").
		WherePK().Exec(ctx)
	return mapError(err)
}

// DeleteUser removes a user and everything that references it.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return requireAffected(s.db.NewDelete().Model((*userRow)(nil)).Where("id = ?", id).Exec(ctx))
}
