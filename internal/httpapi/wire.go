package httpapi

import (
	"github.com/sirupsen/logrus"

	"github.com/luizxsoto/checkout-api-sub000/internal/auth"
	"github.com/luizxsoto/checkout-api-sub000/internal/config"
	"github.com/luizxsoto/checkout-api-sub000/internal/order"
	"github.com/luizxsoto/checkout-api-sub000/internal/paymentprofile"
	"github.com/luizxsoto/checkout-api-sub000/internal/product"
	"github.com/luizxsoto/checkout-api-sub000/internal/query"
	"github.com/luizxsoto/checkout-api-sub000/internal/repository"
	"github.com/luizxsoto/checkout-api-sub000/internal/session"
	"github.com/luizxsoto/checkout-api-sub000/internal/store"
	"github.com/luizxsoto/checkout-api-sub000/internal/user"
)

// NewHandlers builds the repositories, services and handlers over s.
func NewHandlers(s *store.Store, cfg *config.Config, log logrus.FieldLogger) Handlers {
	limits := repository.WithLimits(query.Limits{
		DefaultPerPage: cfg.List.DefaultPerPage,
		MaxPerPage:     cfg.List.MaxPerPage,
	})
	users := repository.New(s, repository.Users, limits)
	products := repository.New(s, repository.Products, limits)
	profiles := repository.New(s, repository.PaymentProfiles, limits)
	orders := repository.New(s, repository.Orders, limits)
	items := repository.New(s, repository.OrderItems, limits)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	return Handlers{
		Issuer:          issuer,
		Sessions:        session.NewHandler(session.NewService(users, issuer, log)),
		Users:           user.NewHandler(user.NewService(users, log)),
		Products:        product.NewHandler(product.NewService(products, log)),
		PaymentProfiles: paymentprofile.NewHandler(paymentprofile.NewService(profiles, users, log)),
		Orders: order.NewHandler(order.NewService(order.Repositories{
			Orders:   orders,
			Items:    items,
			Users:    users,
			Profiles: profiles,
			Products: products,
		}, log)),
	}
}
