package booksvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookrental/model"
	repo "bookrental/repository/book"
	"bookrental/util/apperr"
	"bookrental/util/database"
)

var (
	ErrBookNotFound = apperr.New(apperr.KindNotFound, "BOOK_NOT_FOUND")
	ErrInvalidStock = apperr.New(apperr.KindInvalid, "INVALID_STOCK")
	ErrInvalidInput = apperr.New(apperr.KindInvalid, "INVALID_INPUT")
	ErrBookInUse    = apperr.New(apperr.KindConflict, "BOOK_IN_USE")
	ErrForbidden    = apperr.New(apperr.KindForbidden, "FORBIDDEN")
)

type DB interface {
	Q() database.Querier
}

type Repo interface {
	Create(ctx context.Context, q database.Querier, in model.BookInput) (*model.Book, error)
	Get(ctx context.Context, q database.Querier, id string) (*model.Book, error)
	List(ctx context.Context, q database.Querier) ([]model.Book, error)
	Update(ctx context.Context, q database.Querier, id string, in model.BookInput) (*model.Book, error)
	Delete(ctx context.Context, q database.Querier, id string) error
	SetStock(ctx context.Context, q database.Querier, id string, qty int64) (*model.Book, error)
}

type Service interface {
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id string) (*model.Book, error)

	// admin only
	Create(ctx context.Context, who model.Identity, in model.BookInput) (*model.Book, error)
	Update(ctx context.Context, who model.Identity, id string, in model.BookInput) (*model.Book, error)
	Delete(ctx context.Context, who model.Identity, id string) error
	SetStock(ctx context.Context, who model.Identity, id string, qty int64) (*model.Book, error)
}

type service struct {
	db DB
	r  Repo
}

func New(db DB, r Repo) Service { return &service{db: db, r: r} }

func normalize(in model.BookInput) (model.BookInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Publisher = strings.TrimSpace(in.Publisher)
	if in.Title == "" || in.Category == "" || in.Price < 0 || in.Price > model.MaxPrice {
		return in, ErrInvalidInput
	}
	if in.StockQuantity < 0 {
		return in, ErrInvalidStock
	}
	return in, nil
}

func mapErr(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrBookNotFound
	case errors.Is(err, repo.ErrInvalidStock):
		return ErrInvalidStock
	case errors.Is(err, repo.ErrInUse):
		return ErrBookInUse
	case database.IsCheckViolation(err), database.IsNumericOutOfRange(err):
		return ErrInvalidInput.Wrap(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *service) List(ctx context.Context) ([]model.Book, error) {
	out, err := s.r.List(ctx, s.db.Q())
	if err != nil {
		return nil, mapErr("list books", err)
	}
	return out, nil
}

func (s *service) Detail(ctx context.Context, id string) (*model.Book, error) {
	b, err := s.r.Get(ctx, s.db.Q(), id)
	if err != nil {
		return nil, mapErr("book detail", err)
	}
	return b, nil
}

func (s *service) Create(ctx context.Context, who model.Identity, in model.BookInput) (*model.Book, error) {
	if !who.IsAdmin() {
		return nil, ErrForbidden
	}
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	b, err := s.r.Create(ctx, s.db.Q(), in)
	if err != nil {
		return nil, mapErr("create book", err)
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, who model.Identity, id string, in model.BookInput) (*model.Book, error) {
	if !who.IsAdmin() {
		return nil, ErrForbidden
	}
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	b, err := s.r.Update(ctx, s.db.Q(), id, in)
	if err != nil {
		return nil, mapErr("update book", err)
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, who model.Identity, id string) error {
	if !who.IsAdmin() {
		return ErrForbidden
	}
	if err := s.r.Delete(ctx, s.db.Q(), id); err != nil {
		return mapErr("delete book", err)
	}
	return nil
}

// SetStock overwrites the available count. It is a single statement, so it
// serializes with concurrent rent/return on the same row.
func (s *service) SetStock(ctx context.Context, who model.Identity, id string, qty int64) (*model.Book, error) {
	if !who.IsAdmin() {
		return nil, ErrForbidden
	}
	if qty < 0 {
		return nil, ErrInvalidStock
	}
	b, err := s.r.SetStock(ctx, s.db.Q(), id, qty)
	if err != nil {
		return nil, mapErr("set stock", err)
	}
	return b, nil
}
