package userrepo

import (
	"context"
	"errors"
	"strings"

	"bookrental/model"
	"bookrental/util/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("user not found")

type Repo interface {
	Create(ctx context.Context, q database.Querier, u *model.User) error
	ByEmail(ctx context.Context, q database.Querier, email string) (*model.User, error)
	ByID(ctx context.Context, q database.Querier, id string) (*model.User, error)
	SetRole(ctx context.Context, q database.Querier, id string, role model.Role) error
}

type repo struct{}

func New() Repo { return &repo{} }

const cols = `id, username, email, password_hash, role, created_at`

func scan(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return u, nil
}

// Create assigns the id and created_at. Unique violations surface as
// *pgconn.PgError with constraint users_email_key or users_username_key.
func (r *repo) Create(ctx context.Context, q database.Querier, u *model.User) error {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return q.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, q database.Querier, email string) (*model.User, error) {
	return scan(q.QueryRow(ctx, `
		SELECT `+cols+`
		FROM users
		WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email),
	))
}

func (r *repo) ByID(ctx context.Context, q database.Querier, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return scan(q.QueryRow(ctx, `SELECT `+cols+` FROM users WHERE id = $1`, id))
}

func (r *repo) SetRole(ctx context.Context, q database.Querier, id string, role model.Role) error {
	tag, err := q.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
