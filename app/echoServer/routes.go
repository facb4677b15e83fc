package echoServer

import (
	"bookrental/app/echoServer/controller/auth"
	"bookrental/app/echoServer/controller/book"
	"bookrental/app/echoServer/controller/rental"

	"github.com/labstack/echo/v4"
)

type C struct {
	Auth      *auth.Controller
	Book      *book.Controller
	Rental    *rental.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	pub.GET("/books", c.Book.List)
	pub.GET("/books/:id", c.Book.Detail)

	// Auth
	auth := e.Group("/v1", JWTAuth(c.JWTSecret))

	// Admin endpoints; the services reject non-admin identities
	auth.POST("/books", c.Book.Create)
	auth.PUT("/books/:id", c.Book.Update)
	auth.DELETE("/books/:id", c.Book.Delete)
	auth.PATCH("/books/:id/stock", c.Book.SetStock)

	auth.POST("/rentals", c.Rental.Rent)
	auth.PATCH("/rentals/:id/return", c.Rental.Return)
	auth.GET("/rentals/my", c.Rental.ListMine)
	auth.GET("/rentals", c.Rental.ListAll)
	auth.GET("/rentals/users/:userId", c.Rental.ListForUser)
}
