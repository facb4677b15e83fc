//go:build integration

package rental_test

import (
	"context"
	"testing"
	"time"

	"bookrental/model"
	bookrepo "bookrental/repository/book"
	rentalrepo "bookrental/repository/rental"
	userrepo "bookrental/repository/user"
	"bookrental/util/database"
	"bookrental/util/database/dbtest"

	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, db *database.DB) (*model.User, *model.Book) {
	t.Helper()
	ctx := context.Background()
	u := &model.User{Username: "bob", Email: "Bob@Example.com", PasswordHash: "x"}
	require.NoError(t, userrepo.New().Create(ctx, db.Q(), u))
	b, err := bookrepo.New().Create(ctx, db.Q(), model.BookInput{
		Title: "The Great Gatsby", Category: "Fiction", Publisher: "Scribner", Price: 9.99, StockQuantity: 5,
	})
	require.NoError(t, err)
	return u, b
}

func TestRentalRepo_Lifecycle(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	r := rentalrepo.New()
	u, b := fixture(t, db)

	rentedAt := time.Now().UTC().Truncate(time.Microsecond)
	rt, err := r.Create(ctx, db.Q(), u.ID, b.ID, rentedAt, rentedAt.Add(model.DefaultRentalPeriod))
	require.NoError(t, err)
	require.Equal(t, model.RentalActive, rt.Status)
	require.Nil(t, rt.ReturnedAt)

	d, err := r.Detail(ctx, db.Q(), rt.ID)
	require.NoError(t, err)
	require.Equal(t, "The Great Gatsby", d.Book.Title)
	require.Equal(t, "bob@example.com", d.User.Email)
	require.True(t, d.DueDate.Equal(rentedAt.Add(model.DefaultRentalPeriod)))

	n, err := r.CountActiveByBook(ctx, db.Q(), b.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	back, err := r.MarkReturned(ctx, db.Q(), rt.ID, rentedAt.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, model.RentalReturned, back.Status)
	require.NotNil(t, back.ReturnedAt)

	_, err = r.MarkReturned(ctx, db.Q(), rt.ID, time.Now())
	require.ErrorIs(t, err, rentalrepo.ErrAlreadyReturned)

	_, err = r.MarkReturned(ctx, db.Q(), "6f1c2b7e-3d4a-4c5b-8e9f-0a1b2c3d4e5f", time.Now())
	require.ErrorIs(t, err, rentalrepo.ErrNotFound)
}

func TestRentalRepo_ListFiltersAndOrder(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	r := rentalrepo.New()
	u, b := fixture(t, db)

	other := &model.User{Username: "carol", Email: "carol@example.com", PasswordHash: "x"}
	require.NoError(t, userrepo.New().Create(ctx, db.Q(), other))

	base := time.Now().UTC()
	first, err := r.Create(ctx, db.Q(), u.ID, b.ID, base, base.Add(time.Hour))
	require.NoError(t, err)
	second, err := r.Create(ctx, db.Q(), u.ID, b.ID, base.Add(time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = r.Create(ctx, db.Q(), other.ID, b.ID, base.Add(2*time.Minute), base.Add(3*time.Hour))
	require.NoError(t, err)

	mine, err := r.List(ctx, db.Q(), rentalrepo.Filter{UserID: u.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, second.ID, mine[0].ID)
	require.Equal(t, first.ID, mine[1].ID)

	all, err := r.List(ctx, db.Q(), rentalrepo.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	limited, err := r.List(ctx, db.Q(), rentalrepo.Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	_, err = r.MarkReturned(ctx, db.Q(), first.ID, base.Add(time.Hour))
	require.NoError(t, err)
	active, err := r.List(ctx, db.Q(), rentalrepo.Filter{UserID: u.ID, Status: model.RentalActive})
	require.NoError(t, err)
	require.Len(t, active, 1)

	none, err := r.List(ctx, db.Q(), rentalrepo.Filter{UserID: "bogus"})
	require.NoError(t, err)
	require.Empty(t, none)
}
