// Package order places and reads checkout orders.
package order

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
	"github.com/luizxsoto/checkout-api-sub000/internal/auth"
	"github.com/luizxsoto/checkout-api-sub000/internal/listing"
	"github.com/luizxsoto/checkout-api-sub000/internal/repository"
	"github.com/luizxsoto/checkout-api-sub000/internal/sanitize"
	"github.com/luizxsoto/checkout-api-sub000/internal/validation"
)

// Repositories groups the stores an order touches.
type Repositories struct {
	Orders   repository.ReadWriter
	Items    repository.ReadWriter
	Users    repository.Reader
	Profiles repository.Reader
	Products repository.Reader
}

type Service struct {
	repos Repositories
	log   logrus.FieldLogger
}

func NewService(repos Repositories, log logrus.FieldLogger) *Service {
	return &Service{repos: repos, log: log.WithField("component", "order")}
}

// Create validates and places an order. Customers always order for
// themselves. Line prices are taken from the catalog at creation time.
func (s *Service) Create(ctx context.Context, p *auth.Principal, body map[string]any) (map[string]any, error) {
	model := sanitize.Pick(body, writable...)
	if !p.IsAdmin() {
		model["userId"] = p.ID
	}
	if items, ok := model["orderItems"].([]any); ok {
		for _, item := range items {
			if line, ok := item.(map[string]any); ok {
				if q, ok := line["quantity"]; ok {
					line["quantity"] = sanitize.Int64(q)
				}
			}
		}
	}

	outcome, err := validation.Run(ctx, func(ctx context.Context, m map[string]any) (validation.Outcome, error) {
		return validation.Check(ctx, createSchema, m, nil, func() validation.Outcome {
			return validation.Continue(func(ctx context.Context, d dataset) (validation.Outcome, error) {
				return validation.Check(ctx, createLookups, m, d, nil)
			})
		})
	}, model)
	if err != nil {
		return nil, err
	}

	d, err := s.fetch(ctx, model)
	if err != nil {
		return nil, err
	}
	if _, err := validation.Resume(ctx, outcome, d); err != nil {
		return nil, err
	}

	lines, total, ok := price(model["orderItems"].([]any), d.Products)
	if !ok {
		return nil, apperr.Validation([]apperr.Violation{{
			Field:   "orderItems",
			Rule:    "totalAmount",
			Message: "The order total exceeds the maximum amount",
		}})
	}
	order, err := s.repos.Orders.Create(ctx, map[string]any{
		"userId":           model["userId"],
		"paymentProfileId": model["paymentProfileId"],
		"status":           StatusPending,
		"totalAmount":      total,
	})
	if err != nil {
		return nil, fmt.Errorf("order: %w", err)
	}

	items, err := s.createItems(ctx, order["id"].(string), lines)
	if err != nil {
		s.compensate(order["id"].(string), err)
		return nil, fmt.Errorf("order: %w", err)
	}
	order["orderItems"] = items
	s.log.WithFields(logrus.Fields{"id": order["id"], "userId": order["userId"], "items": len(items), "totalAmount": total}).
		Info("order created")
	return order, nil
}

// fetch loads the user, payment profile and products named by model.
func (s *Service) fetch(ctx context.Context, model map[string]any) (dataset, error) {
	var ids []any
	for _, item := range model["orderItems"].([]any) {
		ids = append(ids, item.(map[string]any)["productId"])
	}

	var d dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Users, err = s.repos.Users.FindBy(gctx, []map[string]any{{"id": model["userId"]}}, false)
		return err
	})
	g.Go(func() (err error) {
		d.Profiles, err = s.repos.Profiles.FindBy(gctx, []map[string]any{{"id": model["paymentProfileId"]}}, false)
		return err
	})
	g.Go(func() (err error) {
		d.Products, err = s.repos.Products.FindBy(gctx, []map[string]any{{"id": ids}}, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return dataset{}, err
	}
	return d, nil
}

// price joins each requested line with its product and sums the order. It
// returns false when the total does not fit in an int64.
func price(items []any, catalog []map[string]any) ([]map[string]any, int64, bool) {
	byID := make(map[any]map[string]any, len(catalog))
	for _, p := range catalog {
		byID[p["id"]] = p
	}

	var total int64
	lines := make([]map[string]any, 0, len(items))
	for _, item := range items {
		line := item.(map[string]any)
		unit := toInt64(byID[line["productId"]]["price"])
		quantity := toInt64(line["quantity"])
		if unit < 0 || quantity < 0 || (quantity > 0 && unit > (math.MaxInt64-total)/quantity) {
			return nil, 0, false
		}
		total += unit * quantity
		lines = append(lines, map[string]any{
			"productId": line["productId"],
			"quantity":  quantity,
			"price":     unit,
		})
	}
	return lines, total, true
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// createItems inserts the order lines concurrently, keeping request order.
func (s *Service) createItems(ctx context.Context, orderID string, lines []map[string]any) ([]map[string]any, error) {
	created := make([]map[string]any, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		i, line := i, line
		line["orderId"] = orderID
		g.Go(func() error {
			rec, err := s.repos.Items.Create(gctx, line)
			if err != nil {
				return err
			}
			created[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return created, nil
}

// compensate removes whatever a failed order left behind. It runs detached
// from the request context, which may already be cancelled.
func (s *Service) compensate(orderID string, cause error) {
	ctx := context.Background()
	log := s.log.WithField("id", orderID).WithError(cause)
	if _, err := s.repos.Items.DeleteWhere(ctx, map[string]any{"orderId": orderID}); err != nil {
		log.WithFields(logrus.Fields{"step": "items", "reason": err.Error()}).Error("order compensation failed")
	}
	if _, err := s.repos.Orders.DeleteWhere(ctx, map[string]any{"id": orderID}); err != nil {
		log.WithFields(logrus.Fields{"step": "order", "reason": err.Error()}).Error("order compensation failed")
	}
	log.Warn("order rolled back")
}

// Show returns an order with its lines. A customer asking for someone
// else's order gets a not-found.
func (s *Service) Show(ctx context.Context, p *auth.Principal, id string) (map[string]any, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(ctx, idSchema, model, nil); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		model["userId"] = p.ID
	}
	found, err := s.repos.Orders.FindBy(ctx, []map[string]any{model}, false)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperr.NotFound("order", id)
	}
	items, err := s.repos.Items.FindBy(ctx, []map[string]any{{"orderId": id}}, false)
	if err != nil {
		return nil, err
	}
	order := found[0]
	order["orderItems"] = items
	return order, nil
}

// List returns orders without their lines; customers only see their own.
func (s *Service) List(ctx context.Context, p *auth.Principal, params listing.Params) ([]map[string]any, error) {
	list, err := listing.Parse(ctx, params, FilterFields)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		list = listing.Restrict(list, "userId", p.ID)
	}
	return s.repos.Orders.List(ctx, list)
}
