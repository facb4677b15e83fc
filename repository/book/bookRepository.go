package bookrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookrental/model"
	"bookrental/util/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound     = errors.New("book not found")
	ErrInvalidStock = errors.New("stock quantity must not be negative")
	ErrInUse        = errors.New("book is referenced by rentals")
)

type Repo interface {
	Create(ctx context.Context, q database.Querier, in model.BookInput) (*model.Book, error)
	Get(ctx context.Context, q database.Querier, id string) (*model.Book, error)
	GetForUpdate(ctx context.Context, q database.Querier, id string) (*model.Book, error)
	List(ctx context.Context, q database.Querier) ([]model.Book, error)
	Update(ctx context.Context, q database.Querier, id string, in model.BookInput) (*model.Book, error)
	Delete(ctx context.Context, q database.Querier, id string) error

	// AdjustStock is the only path rentals use to change stock.
	AdjustStock(ctx context.Context, q database.Querier, id string, delta int64) (*model.Book, error)
	SetStock(ctx context.Context, q database.Querier, id string, qty int64) (*model.Book, error)
}

type repo struct{}

func New() Repo { return &repo{} }

const cols = `id, title, category, publisher, price, stock_quantity, created_at, updated_at`

func scan(row pgx.Row) (*model.Book, error) {
	var b model.Book
	if err := row.Scan(&b.ID, &b.Title, &b.Category, &b.Publisher, &b.Price,
		&b.StockQuantity, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repo) Create(ctx context.Context, q database.Querier, in model.BookInput) (*model.Book, error) {
	if in.StockQuantity < 0 {
		return nil, ErrInvalidStock
	}
	now := time.Now().UTC()
	b, err := scan(q.QueryRow(ctx, `
		INSERT INTO books (id, title, category, publisher, price, stock_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+cols,
		uuid.NewString(), in.Title, in.Category, in.Publisher, in.Price, in.StockQuantity, now,
	))
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return b, nil
}

func (r *repo) Get(ctx context.Context, q database.Querier, id string) (*model.Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	b, err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM books WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// GetForUpdate locks the book row until the surrounding transaction ends.
func (r *repo) GetForUpdate(ctx context.Context, q database.Querier, id string) (*model.Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	b, err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM books WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (r *repo) List(ctx context.Context, q database.Querier) ([]model.Book, error) {
	rows, err := q.Query(ctx, `SELECT `+cols+` FROM books ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []model.Book{}
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Update edits catalog metadata. Stock goes through SetStock or AdjustStock.
func (r *repo) Update(ctx context.Context, q database.Querier, id string, in model.BookInput) (*model.Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	b, err := scan(q.QueryRow(ctx, `
		UPDATE books
		SET title = $2, category = $3, publisher = $4, price = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+cols,
		id, in.Title, in.Category, in.Publisher, in.Price,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (r *repo) Delete(ctx context.Context, q database.Querier, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := q.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustStock applies delta in a single guarded statement, so concurrent
// adjustments on the same row serialize on the row lock and stock never
// drops below zero.
func (r *repo) AdjustStock(ctx context.Context, q database.Querier, id string, delta int64) (*model.Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	b, err := scan(q.QueryRow(ctx, `
		UPDATE books
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1
		AND stock_quantity + $2 >= 0
		RETURNING `+cols,
		id, delta,
	))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	// zero rows: either the book is gone or the guard refused
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrInvalidStock
}

func (r *repo) SetStock(ctx context.Context, q database.Querier, id string, qty int64) (*model.Book, error) {
	if qty < 0 {
		return nil, ErrInvalidStock
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	b, err := scan(q.QueryRow(ctx, `
		UPDATE books
		SET stock_quantity = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+cols,
		id, qty,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}
