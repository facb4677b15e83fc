package rental

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bookrental/model"
	bookrepo "bookrental/repository/book"
	rrepo "bookrental/repository/rental"
	"bookrental/util/database"
)

// memStore is a transactional in-memory stand-in for Postgres. WithTx holds
// one lock for the whole transaction (serializable) and restores a snapshot
// when fn fails, so partial writes never survive.
type memStore struct {
	mu      sync.Mutex
	books   map[string]model.Book
	rentals map[string]model.Rental
	users   map[string]model.UserSummary
	seq     int
	writes  int

	// fault injection
	txFailures []error
	failCreate error
	txCalls    int
}

func newMemStore() *memStore {
	return &memStore{
		books:   map[string]model.Book{},
		rentals: map[string]model.Rental{},
		users:   map[string]model.UserSummary{},
	}
}

func (m *memStore) addBook(id, title string, stock int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[id] = model.Book{ID: id, Title: title, Category: "Fiction", StockQuantity: stock}
}

func (m *memStore) addUser(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = model.UserSummary{ID: id, Username: name, Email: name + "@example.com"}
}

func (m *memStore) stock(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[id].StockQuantity
}

func (m *memStore) activeFor(bookID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rentals {
		if r.BookID == bookID && r.Status == model.RentalActive {
			n++
		}
	}
	return n
}

func (m *memStore) rentalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rentals)
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, q database.Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txCalls++
	if len(m.txFailures) > 0 {
		err := m.txFailures[0]
		m.txFailures = m.txFailures[1:]
		return err
	}

	books := make(map[string]model.Book, len(m.books))
	for k, v := range m.books {
		books[k] = v
	}
	rentals := make(map[string]model.Rental, len(m.rentals))
	for k, v := range m.rentals {
		rentals[k] = v
	}
	seq, writes := m.seq, m.writes

	if err := fn(ctx, nil); err != nil {
		m.books, m.rentals, m.seq, m.writes = books, rentals, seq, writes
		return err
	}
	return nil
}

func (m *memStore) Q() database.Querier { return nil }

// memBooks and memRentals run inside WithTx, so they do not lock.

type memBooks struct{ m *memStore }

func (b memBooks) GetForUpdate(_ context.Context, _ database.Querier, id string) (*model.Book, error) {
	book, ok := b.m.books[id]
	if !ok {
		return nil, bookrepo.ErrNotFound
	}
	return &book, nil
}

func (b memBooks) AdjustStock(_ context.Context, _ database.Querier, id string, delta int64) (*model.Book, error) {
	book, ok := b.m.books[id]
	if !ok {
		return nil, bookrepo.ErrNotFound
	}
	if book.StockQuantity+delta < 0 {
		return nil, bookrepo.ErrInvalidStock
	}
	book.StockQuantity += delta
	b.m.books[id] = book
	b.m.writes++
	return &book, nil
}

type memRentals struct{ m *memStore }

func (r memRentals) Create(_ context.Context, _ database.Querier, userID, bookID string, rentedAt, dueDate time.Time) (*model.Rental, error) {
	if r.m.failCreate != nil {
		return nil, r.m.failCreate
	}
	r.m.seq++
	rental := model.Rental{
		ID:       fmt.Sprintf("r%04d", r.m.seq),
		UserID:   userID,
		BookID:   bookID,
		Status:   model.RentalActive,
		RentedAt: rentedAt,
		DueDate:  dueDate,
	}
	r.m.rentals[rental.ID] = rental
	r.m.writes++
	return &rental, nil
}

func (r memRentals) GetForUpdate(_ context.Context, _ database.Querier, id string) (*model.Rental, error) {
	rental, ok := r.m.rentals[id]
	if !ok {
		return nil, rrepo.ErrNotFound
	}
	return &rental, nil
}

func (r memRentals) MarkReturned(_ context.Context, _ database.Querier, id string, at time.Time) (*model.Rental, error) {
	rental, ok := r.m.rentals[id]
	if !ok {
		return nil, rrepo.ErrNotFound
	}
	if rental.Status != model.RentalActive {
		return nil, rrepo.ErrAlreadyReturned
	}
	rental.Status = model.RentalReturned
	rental.ReturnedAt = &at
	r.m.rentals[id] = rental
	r.m.writes++
	return &rental, nil
}

func (r memRentals) detail(rental model.Rental) model.RentalDetail {
	book := r.m.books[rental.BookID]
	return model.RentalDetail{
		Rental: rental,
		Book:   model.BookSummary{ID: book.ID, Title: book.Title, Category: book.Category, Price: book.Price},
		User:   r.m.users[rental.UserID],
	}
}

func (r memRentals) Detail(_ context.Context, _ database.Querier, id string) (*model.RentalDetail, error) {
	rental, ok := r.m.rentals[id]
	if !ok {
		return nil, rrepo.ErrNotFound
	}
	d := r.detail(rental)
	return &d, nil
}

// List is called outside WithTx and takes the lock itself.
func (r memRentals) List(_ context.Context, _ database.Querier, f rrepo.Filter) ([]model.RentalDetail, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := []model.RentalDetail{}
	for _, rental := range r.m.rentals {
		if f.UserID != "" && rental.UserID != f.UserID {
			continue
		}
		if f.BookID != "" && rental.BookID != f.BookID {
			continue
		}
		if f.Status != "" && rental.Status != f.Status {
			continue
		}
		out = append(out, r.detail(rental))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RentedAt.Equal(out[j].RentedAt) {
			return out[i].RentedAt.After(out[j].RentedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
