package rental

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookrental/model"
	bookrepo "bookrental/repository/book"
	rrepo "bookrental/repository/rental"
	"bookrental/util/apperr"
	"bookrental/util/database"
	"bookrental/util/retry"
)

// errors used by controllers

var (
	ErrBookNotFound    = apperr.New(apperr.KindNotFound, "BOOK_NOT_FOUND")
	ErrRentalNotFound  = apperr.New(apperr.KindNotFound, "RENTAL_NOT_FOUND")
	ErrOutOfStock      = apperr.New(apperr.KindBusinessRule, "OUT_OF_STOCK")
	ErrAlreadyReturned = apperr.New(apperr.KindBusinessRule, "ALREADY_RETURNED")
	ErrForbidden       = apperr.New(apperr.KindForbidden, "FORBIDDEN")
	ErrUnauthenticated = apperr.New(apperr.KindUnauthorized, "UNAUTHENTICATED")
	// ErrTransient means lock contention or a timeout outlasted every retry.
	ErrTransient = apperr.New(apperr.KindTransient, "TRANSIENT_FAILURE")
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q database.Querier) error) error
	Q() database.Querier
}

type BookRepo interface {
	GetForUpdate(ctx context.Context, q database.Querier, id string) (*model.Book, error)
	AdjustStock(ctx context.Context, q database.Querier, id string, delta int64) (*model.Book, error)
}

type Repo interface {
	Create(ctx context.Context, q database.Querier, userID, bookID string, rentedAt, dueDate time.Time) (*model.Rental, error)
	GetForUpdate(ctx context.Context, q database.Querier, id string) (*model.Rental, error)
	MarkReturned(ctx context.Context, q database.Querier, id string, returnedAt time.Time) (*model.Rental, error)
	Detail(ctx context.Context, q database.Querier, id string) (*model.RentalDetail, error)
	List(ctx context.Context, q database.Querier, f rrepo.Filter) ([]model.RentalDetail, error)
}

type Config struct {
	RentalPeriod time.Duration

	// Bounds on one rent/return: attempts, per-attempt deadline, backoff base.
	MaxAttempts    int
	AttemptTimeout time.Duration
	RetryBaseDelay time.Duration

	Now func() time.Time
}

type Service interface {
	// Rent checks out one copy of bookID for the caller.
	Rent(ctx context.Context, who model.Identity, bookID string) (*model.RentalView, error)

	// Return closes an active rental owned by the caller, or any rental for an admin.
	Return(ctx context.Context, who model.Identity, rentalID string) (*model.RentalView, error)

	ListMine(ctx context.Context, who model.Identity) ([]model.RentalView, error)
	ListAll(ctx context.Context, who model.Identity) ([]model.RentalView, error)
	ListForUser(ctx context.Context, who model.Identity, userID string) ([]model.RentalView, error)
}

// ----- Service implementation -----

type service struct {
	db    Transactor
	books BookRepo
	r     Repo
	cfg   Config
}

func New(db Transactor, books BookRepo, r Repo, cfg Config) Service {
	if cfg.RentalPeriod <= 0 {
		cfg.RentalPeriod = model.DefaultRentalPeriod
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 20 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{db: db, books: books, r: r, cfg: cfg}
}

// inTx runs fn as one transaction, retrying the whole transaction on
// contention. Whatever the outcome, either all of fn's writes commit or none.
// A failed COMMIT is never retried: it may already be applied.
func (s *service) inTx(ctx context.Context, op string, fn func(ctx context.Context, q database.Querier) error) error {
	_, err := retry.Do(ctx,
		func(ctx context.Context) error { return s.db.WithTx(ctx, fn) },
		retry.WithMaxAttempts(s.cfg.MaxAttempts),
		retry.WithBaseDelay(s.cfg.RetryBaseDelay),
		retry.WithAttemptTimeout(s.cfg.AttemptTimeout),
		retry.WithRetryIf(database.IsTransient),
		retry.WithAbortIf(isCommitUnknown),
	)
	if err == nil {
		return nil
	}
	if apperr.CodeOf(err) != "" {
		return err
	}
	if isCommitUnknown(err) {
		return ErrTransient.Wrap(fmt.Errorf("%s: %w", op, err))
	}
	if database.IsTransient(err) || errors.Is(err, retry.ErrAttemptTimeout) {
		return ErrTransient.Wrap(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isCommitUnknown(err error) bool { return errors.Is(err, database.ErrCommitUnknown) }

func (s *service) Rent(ctx context.Context, who model.Identity, bookID string) (*model.RentalView, error) {
	if who.UserID == "" {
		return nil, ErrUnauthenticated
	}

	var out *model.RentalDetail
	err := s.inTx(ctx, "rent", func(ctx context.Context, q database.Querier) error {
		// the row lock makes the stock check and the decrement one unit
		book, err := s.books.GetForUpdate(ctx, q, bookID)
		if err != nil {
			if errors.Is(err, bookrepo.ErrNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if !book.InStock() {
			return ErrOutOfStock
		}

		now := s.cfg.Now()
		due := now.Add(s.cfg.RentalPeriod)

		if _, err := s.books.AdjustStock(ctx, q, book.ID, -1); err != nil {
			if errors.Is(err, bookrepo.ErrInvalidStock) {
				return ErrOutOfStock
			}
			return err
		}
		created, err := s.r.Create(ctx, q, who.UserID, book.ID, now, due)
		if err != nil {
			return err
		}
		out, err = s.r.Detail(ctx, q, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	v := out.View(s.cfg.Now())
	return &v, nil
}

func (s *service) Return(ctx context.Context, who model.Identity, rentalID string) (*model.RentalView, error) {
	if who.UserID == "" {
		return nil, ErrUnauthenticated
	}

	var out *model.RentalDetail
	err := s.inTx(ctx, "return", func(ctx context.Context, q database.Querier) error {
		rental, err := s.r.GetForUpdate(ctx, q, rentalID)
		if err != nil {
			if errors.Is(err, rrepo.ErrNotFound) {
				return ErrRentalNotFound
			}
			return err
		}
		if !who.CanActOn(rental.UserID) {
			return ErrForbidden
		}
		if rental.Status == model.RentalReturned {
			return ErrAlreadyReturned
		}

		if _, err := s.r.MarkReturned(ctx, q, rental.ID, s.cfg.Now()); err != nil {
			if errors.Is(err, rrepo.ErrAlreadyReturned) {
				return ErrAlreadyReturned
			}
			return err
		}
		if _, err := s.books.AdjustStock(ctx, q, rental.BookID, +1); err != nil {
			return err
		}
		out, err = s.r.Detail(ctx, q, rental.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	v := out.View(s.cfg.Now())
	return &v, nil
}

func (s *service) ListMine(ctx context.Context, who model.Identity) ([]model.RentalView, error) {
	if who.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return s.list(ctx, rrepo.Filter{UserID: who.UserID})
}

func (s *service) ListAll(ctx context.Context, who model.Identity) ([]model.RentalView, error) {
	if !who.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.list(ctx, rrepo.Filter{})
}

func (s *service) ListForUser(ctx context.Context, who model.Identity, userID string) ([]model.RentalView, error) {
	if !who.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.list(ctx, rrepo.Filter{UserID: userID})
}

// list reads without locks; overdue is derived from the clock at call time.
func (s *service) list(ctx context.Context, f rrepo.Filter) ([]model.RentalView, error) {
	rows, err := s.r.List(ctx, s.db.Q(), f)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	now := s.cfg.Now()
	out := make([]model.RentalView, 0, len(rows))
	for _, d := range rows {
		out = append(out, d.View(now))
	}
	return out, nil
}
