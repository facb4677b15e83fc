// service/book/book_service_test.go
package booksvc_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bookrental/model"
	repo "bookrental/repository/book"
	booksvc "bookrental/service/book"
	"bookrental/util/apperr"
	"bookrental/util/database"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type dbStub struct{}

func (dbStub) Q() database.Querier { return nil }

type repoMock struct {
	createFn   func(ctx context.Context, in model.BookInput) (*model.Book, error)
	getFn      func(ctx context.Context, id string) (*model.Book, error)
	listFn     func(ctx context.Context) ([]model.Book, error)
	updateFn   func(ctx context.Context, id string, in model.BookInput) (*model.Book, error)
	deleteFn   func(ctx context.Context, id string) error
	setStockFn func(ctx context.Context, id string, qty int64) (*model.Book, error)
}

func (m *repoMock) Create(ctx context.Context, _ database.Querier, in model.BookInput) (*model.Book, error) {
	return m.createFn(ctx, in)
}
func (m *repoMock) Get(ctx context.Context, _ database.Querier, id string) (*model.Book, error) {
	return m.getFn(ctx, id)
}
func (m *repoMock) List(ctx context.Context, _ database.Querier) ([]model.Book, error) {
	return m.listFn(ctx)
}
func (m *repoMock) Update(ctx context.Context, _ database.Querier, id string, in model.BookInput) (*model.Book, error) {
	return m.updateFn(ctx, id, in)
}
func (m *repoMock) Delete(ctx context.Context, _ database.Querier, id string) error {
	return m.deleteFn(ctx, id)
}
func (m *repoMock) SetStock(ctx context.Context, _ database.Querier, id string, qty int64) (*model.Book, error) {
	return m.setStockFn(ctx, id, qty)
}

var (
	admin = model.Identity{UserID: "a1", Role: model.RoleAdmin}
	user  = model.Identity{UserID: "u1", Role: model.RoleUser}
)

func TestCreate_Validation(t *testing.T) {
	s := booksvc.New(dbStub{}, &repoMock{})
	ctx := context.Background()

	_, err := s.Create(ctx, admin, model.BookInput{Title: " ", Category: "cat", Price: 10})
	require.ErrorIs(t, err, booksvc.ErrInvalidInput)

	_, err = s.Create(ctx, admin, model.BookInput{Title: "name", Category: "", Price: 10})
	require.ErrorIs(t, err, booksvc.ErrInvalidInput)

	_, err = s.Create(ctx, admin, model.BookInput{Title: "name", Category: "cat", Price: -1})
	require.ErrorIs(t, err, booksvc.ErrInvalidInput)

	_, err = s.Create(ctx, admin, model.BookInput{Title: "name", Category: "cat", Price: 1e9})
	require.ErrorIs(t, err, booksvc.ErrInvalidInput)

	_, err = s.Create(ctx, admin, model.BookInput{Title: "name", Category: "cat", StockQuantity: -1})
	require.ErrorIs(t, err, booksvc.ErrInvalidStock)
}

func TestCreate_RequiresAdmin(t *testing.T) {
	s := booksvc.New(dbStub{}, &repoMock{})

	_, err := s.Create(context.Background(), user, model.BookInput{Title: "1984", Category: "SF"})
	require.ErrorIs(t, err, booksvc.ErrForbidden)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCreate_Success(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, in model.BookInput) (*model.Book, error) {
			if in.Title != "Clean Code" || in.Category != "Prog" || in.Price != 18.5 || in.StockQuantity != 3 {
				return nil, errors.New("bad args")
			}
			return &model.Book{ID: "b42", Title: in.Title, StockQuantity: in.StockQuantity}, nil
		},
	}
	s := booksvc.New(dbStub{}, m)

	b, err := s.Create(context.Background(), admin, model.BookInput{
		Title: " Clean Code ", Category: "Prog", Price: 18.5, StockQuantity: 3,
	})
	require.NoError(t, err)
	require.Equal(t, "b42", b.ID)
}

func TestCreate_NumericOverflowIsInvalidInput(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, in model.BookInput) (*model.Book, error) {
			return nil, fmt.Errorf("insert book: %w", &pgconn.PgError{Code: pgerrcode.NumericValueOutOfRange})
		},
	}
	s := booksvc.New(dbStub{}, m)

	_, err := s.Create(context.Background(), admin, model.BookInput{Title: "t", Category: "c", Price: model.MaxPrice})
	require.ErrorIs(t, err, booksvc.ErrInvalidInput)
	require.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestSetStock(t *testing.T) {
	m := &repoMock{
		setStockFn: func(ctx context.Context, id string, qty int64) (*model.Book, error) {
			if id == "missing" {
				return nil, repo.ErrNotFound
			}
			return &model.Book{ID: id, StockQuantity: qty}, nil
		},
	}
	s := booksvc.New(dbStub{}, m)
	ctx := context.Background()

	_, err := s.SetStock(ctx, admin, "b1", -1)
	require.ErrorIs(t, err, booksvc.ErrInvalidStock)

	_, err = s.SetStock(ctx, user, "b1", 4)
	require.ErrorIs(t, err, booksvc.ErrForbidden)

	_, err = s.SetStock(ctx, admin, "missing", 4)
	require.ErrorIs(t, err, booksvc.ErrBookNotFound)

	b, err := s.SetStock(ctx, admin, "b1", 4)
	require.NoError(t, err)
	require.Equal(t, int64(4), b.StockQuantity)
}

func TestDelete_MapsRepoErrors(t *testing.T) {
	m := &repoMock{
		deleteFn: func(ctx context.Context, id string) error {
			switch id {
			case "rented":
				return repo.ErrInUse
			case "missing":
				return repo.ErrNotFound
			}
			return nil
		},
	}
	s := booksvc.New(dbStub{}, m)
	ctx := context.Background()

	require.ErrorIs(t, s.Delete(ctx, admin, "rented"), booksvc.ErrBookInUse)
	require.ErrorIs(t, s.Delete(ctx, admin, "missing"), booksvc.ErrBookNotFound)
	require.ErrorIs(t, s.Delete(ctx, user, "b1"), booksvc.ErrForbidden)
	require.NoError(t, s.Delete(ctx, admin, "b1"))
}

func TestPassThroughs(t *testing.T) {
	m := &repoMock{
		listFn: func(ctx context.Context) ([]model.Book, error) { return []model.Book{{ID: "b1"}}, nil },
		getFn: func(ctx context.Context, id string) (*model.Book, error) {
			if id == "b1" {
				return &model.Book{ID: "b1"}, nil
			}
			return nil, repo.ErrNotFound
		},
		updateFn: func(ctx context.Context, id string, in model.BookInput) (*model.Book, error) {
			return &model.Book{ID: id, Title: in.Title}, nil
		},
	}
	s := booksvc.New(dbStub{}, m)
	ctx := context.Background()

	books, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)

	_, err = s.Detail(ctx, "b1")
	require.NoError(t, err)

	_, err = s.Detail(ctx, "nope")
	require.ErrorIs(t, err, booksvc.ErrBookNotFound)

	b, err := s.Update(ctx, admin, "b1", model.BookInput{Title: "New", Category: "c"})
	require.NoError(t, err)
	require.Equal(t, "New", b.Title)
}
