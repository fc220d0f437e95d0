package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/luizxsoto/checkout-api-sub000/internal/auth"
	"github.com/luizxsoto/checkout-api-sub000/internal/order"
	"github.com/luizxsoto/checkout-api-sub000/internal/paymentprofile"
	"github.com/luizxsoto/checkout-api-sub000/internal/product"
	"github.com/luizxsoto/checkout-api-sub000/internal/session"
	"github.com/luizxsoto/checkout-api-sub000/internal/user"
)

// Handlers are the resource handlers mounted by Register.
type Handlers struct {
	Issuer          *auth.Issuer
	Sessions        *session.Handler
	Users           *user.Handler
	Products        *product.Handler
	PaymentProfiles *paymentprofile.Handler
	Orders          *order.Handler
}

// Register mounts every route. Only POST /sessions is public.
func Register(app *fiber.App, h Handlers) {
	app.Post("/sessions", h.Sessions.Create)

	authMW := auth.AuthMiddleware(h.Issuer)
	adminMW := auth.RequireRole(auth.RoleAdmin)

	users := app.Group("/users", authMW, adminMW)
	users.Get("/", h.Users.List)
	users.Get("/:id", h.Users.Show)
	users.Post("/", h.Users.Create)
	users.Put("/:id", h.Users.Update)
	users.Delete("/:id", h.Users.Remove)

	products := app.Group("/products", authMW)
	products.Get("/", h.Products.List)
	products.Get("/:id", h.Products.Show)
	products.Post("/", adminMW, h.Products.Create)
	products.Put("/:id", adminMW, h.Products.Update)
	products.Delete("/:id", adminMW, h.Products.Remove)

	profiles := app.Group("/payment-profiles", authMW)
	profiles.Get("/", h.PaymentProfiles.List)
	profiles.Post("/", h.PaymentProfiles.Create)
	profiles.Delete("/:id", h.PaymentProfiles.Remove)

	orders := app.Group("/orders", authMW)
	orders.Get("/", h.Orders.List)
	orders.Get("/:id", h.Orders.Show)
	orders.Post("/", h.Orders.Create)
}
