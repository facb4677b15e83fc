package cmd

import (
	"context"

	"bookrental/config"
	bookrepo "bookrental/repository/book"
	rentalrepo "bookrental/repository/rental"
	userrepo "bookrental/repository/user"
	authsvc "bookrental/service/auth"
	booksvc "bookrental/service/book"
	rentalsvc "bookrental/service/rental"
	"bookrental/util/database"
)

type services struct {
	db     *database.DB
	auth   authsvc.Service
	books  booksvc.Service
	rental rentalsvc.Service
}

func connect(ctx context.Context, cfg config.App) (*database.DB, error) {
	return database.New(ctx, cfg.DatabaseURL, database.Options{
		MaxConns:        cfg.DBMaxConns,
		LockTimeout:     cfg.DBLockTimeout,
		ConnectAttempts: 5,
	})
}

func build(db *database.DB, cfg config.App) services {
	br := bookrepo.New()
	rr := rentalrepo.New()
	ur := userrepo.New()

	return services{
		db:    db,
		auth:  authsvc.New(db, ur, cfg.JWTSecret, cfg.JWTTTL),
		books: booksvc.New(db, br),
		rental: rentalsvc.New(db, br, rr, rentalsvc.Config{
			RentalPeriod:   cfg.RentalPeriod,
			MaxAttempts:    cfg.TxMaxAttempts,
			AttemptTimeout: cfg.TxAttemptTimeout,
			RetryBaseDelay: cfg.TxRetryBaseDelay,
		}),
	}
}
