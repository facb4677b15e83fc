// repository/rental/repo.go
package rental

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookrental/model"
	"bookrental/util/database"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound        = errors.New("rental not found")
	ErrAlreadyReturned = errors.New("rental already returned")
)

// Filter narrows List. Zero fields match everything.
type Filter struct {
	UserID string
	BookID string
	Status model.RentalStatus
	Limit  uint
}

type Repo interface {
	Create(ctx context.Context, q database.Querier, userID, bookID string, rentedAt, dueDate time.Time) (*model.Rental, error)
	Get(ctx context.Context, q database.Querier, id string) (*model.Rental, error)
	GetForUpdate(ctx context.Context, q database.Querier, id string) (*model.Rental, error)
	MarkReturned(ctx context.Context, q database.Querier, id string, returnedAt time.Time) (*model.Rental, error)

	Detail(ctx context.Context, q database.Querier, id string) (*model.RentalDetail, error)
	List(ctx context.Context, q database.Querier, f Filter) ([]model.RentalDetail, error)
	CountActiveByBook(ctx context.Context, q database.Querier, bookID string) (int64, error)
}

type repo struct{}

func New() Repo { return &repo{} }

var dialect = goqu.Dialect("postgres")

const cols = `id, user_id, book_id, status, rented_at, due_date, returned_at`

func scan(row pgx.Row) (*model.Rental, error) {
	var r model.Rental
	var status string
	if err := row.Scan(&r.ID, &r.UserID, &r.BookID, &status, &r.RentedAt, &r.DueDate, &r.ReturnedAt); err != nil {
		return nil, err
	}
	r.Status = model.RentalStatus(status)
	return &r, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create appends an active rental. due_date is written here and nowhere else.
func (r *repo) Create(ctx context.Context, q database.Querier, userID, bookID string, rentedAt, dueDate time.Time) (*model.Rental, error) {
	out, err := scan(q.QueryRow(ctx, `
		INSERT INTO rentals (id, user_id, book_id, status, rented_at, due_date)
		VALUES ($1, $2, $3, 'active', $4, $5)
		RETURNING `+cols,
		uuid.NewString(), userID, bookID, rentedAt.UTC(), dueDate.UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("insert rental: %w", err)
	}
	return out, nil
}

func (r *repo) Get(ctx context.Context, q database.Querier, id string) (*model.Rental, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	out, err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM rentals WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

// GetForUpdate locks the rental row until the surrounding transaction ends.
func (r *repo) GetForUpdate(ctx context.Context, q database.Querier, id string) (*model.Rental, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	out, err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM rentals WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

// MarkReturned moves an active rental to returned. A rental that is already
// returned is rejected with ErrAlreadyReturned rather than ignored.
func (r *repo) MarkReturned(ctx context.Context, q database.Querier, id string, returnedAt time.Time) (*model.Rental, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	out, err := scan(q.QueryRow(ctx, `
		UPDATE rentals
		SET status = 'returned',
			returned_at = $2
		WHERE id = $1
		AND status = 'active'
		RETURNING `+cols,
		id, returnedAt.UTC(),
	))
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("mark returned: %w", err)
	}
	if _, err := r.Get(ctx, q, id); err != nil {
		return nil, err
	}
	return nil, ErrAlreadyReturned
}

func detailQuery() *goqu.SelectDataset {
	return dialect.
		From(goqu.T("rentals").As("r")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("r.book_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("r.user_id")))).
		Select(
			goqu.I("r.id"), goqu.I("r.user_id"), goqu.I("r.book_id"), goqu.I("r.status"),
			goqu.I("r.rented_at"), goqu.I("r.due_date"), goqu.I("r.returned_at"),
			goqu.I("b.title"), goqu.I("b.category"), goqu.I("b.publisher"), goqu.I("b.price"),
			goqu.I("u.username"), goqu.I("u.email"),
		).
		Prepared(true)
}

func scanDetail(row pgx.Row) (*model.RentalDetail, error) {
	var d model.RentalDetail
	var status string
	if err := row.Scan(
		&d.ID, &d.UserID, &d.BookID, &status,
		&d.RentedAt, &d.DueDate, &d.ReturnedAt,
		&d.Book.Title, &d.Book.Category, &d.Book.Publisher, &d.Book.Price,
		&d.User.Username, &d.User.Email,
	); err != nil {
		return nil, err
	}
	d.Status = model.RentalStatus(status)
	d.Book.ID = d.BookID
	d.User.ID = d.UserID
	return &d, nil
}

func (r *repo) Detail(ctx context.Context, q database.Querier, id string) (*model.RentalDetail, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	sql, args, err := detailQuery().Where(goqu.I("r.id").Eq(id)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build rental detail: %w", err)
	}
	d, err := scanDetail(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// List returns rentals newest first.
func (r *repo) List(ctx context.Context, q database.Querier, f Filter) ([]model.RentalDetail, error) {
	ds := detailQuery().Order(goqu.I("r.rented_at").Desc(), goqu.I("r.id").Desc())
	if f.UserID != "" {
		if !validID(f.UserID) {
			return []model.RentalDetail{}, nil
		}
		ds = ds.Where(goqu.I("r.user_id").Eq(f.UserID))
	}
	if f.BookID != "" {
		if !validID(f.BookID) {
			return []model.RentalDetail{}, nil
		}
		ds = ds.Where(goqu.I("r.book_id").Eq(f.BookID))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.I("r.status").Eq(string(f.Status)))
	}
	if f.Limit > 0 {
		ds = ds.Limit(f.Limit)
	}

	sql, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build rental list: %w", err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	out := []model.RentalDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *repo) CountActiveByBook(ctx context.Context, q database.Querier, bookID string) (int64, error) {
	if !validID(bookID) {
		return 0, nil
	}
	var n int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM rentals WHERE book_id = $1 AND status = 'active'`, bookID,
	).Scan(&n)
	return n, err
}
