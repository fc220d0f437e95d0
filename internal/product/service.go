// Package product manages the product catalog.
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
	"github.com/luizxsoto/checkout-api-sub000/internal/listing"
	"github.com/luizxsoto/checkout-api-sub000/internal/repository"
	"github.com/luizxsoto/checkout-api-sub000/internal/sanitize"
	"github.com/luizxsoto/checkout-api-sub000/internal/store"
	"github.com/luizxsoto/checkout-api-sub000/internal/validation"
)

type Service struct {
	products repository.ReadWriter
	log      logrus.FieldLogger
}

func NewService(products repository.ReadWriter, log logrus.FieldLogger) *Service {
	return &Service{products: products, log: log.WithField("component", "product")}
}

func (s *Service) validate(ctx context.Context, model map[string]any, schema, lookups validation.Schema, keys ...string) ([]map[string]any, error) {
	outcome, err := validation.Run(ctx, func(ctx context.Context, m map[string]any) (validation.Outcome, error) {
		return validation.Check(ctx, schema, m, nil, func() validation.Outcome {
			return validation.Continue(func(ctx context.Context, d dataset) (validation.Outcome, error) {
				return validation.Check(ctx, lookups, m, d, nil)
			})
		})
	}, model)
	if err != nil {
		return nil, err
	}

	var predicates []map[string]any
	for _, k := range keys {
		if v, ok := model[k]; ok {
			predicates = append(predicates, map[string]any{k: v})
		}
	}
	found, err := s.products.FindBy(ctx, predicates, false)
	if err != nil {
		return nil, err
	}
	if _, err := validation.Resume(ctx, outcome, dataset{Products: found}); err != nil {
		return nil, err
	}
	return found, nil
}

func pick(body map[string]any) map[string]any {
	model := sanitize.Pick(body, writable...)
	if v, ok := model["price"]; ok {
		model["price"] = sanitize.Int64(v)
	}
	return model
}

func (s *Service) Create(ctx context.Context, body map[string]any) (map[string]any, error) {
	model := pick(body)
	if _, err := s.validate(ctx, model, createSchema, createLookups, "name"); err != nil {
		return nil, err
	}
	created, err := s.products.Create(ctx, model)
	if err != nil {
		return nil, writeError(err)
	}
	s.log.WithFields(logrus.Fields{"id": created["id"], "category": created["category"]}).Info("product created")
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, body map[string]any) (map[string]any, error) {
	model := pick(body)
	model["id"] = id
	if _, err := s.validate(ctx, model, updateSchema, updateLookups, "id", "name"); err != nil {
		return nil, err
	}
	updated, err := s.products.Update(ctx, id, pick(model))
	if err != nil {
		return nil, writeError(err)
	}
	s.log.WithField("id", id).Info("product updated")
	return updated, nil
}

func (s *Service) Remove(ctx context.Context, id string) (map[string]any, error) {
	model := map[string]any{"id": id}
	found, err := s.validate(ctx, model, idSchema, idLookups, "id")
	if err != nil {
		return nil, err
	}
	if err := s.products.SoftDelete(ctx, id); err != nil {
		return nil, writeError(err)
	}
	s.log.WithField("id", id).Info("product removed")
	return found[0], nil
}

func (s *Service) Show(ctx context.Context, id string) (map[string]any, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(ctx, idSchema, model, nil); err != nil {
		return nil, err
	}
	found, err := s.products.FindBy(ctx, []map[string]any{model}, false)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperr.NotFound("product", id)
	}
	return found[0], nil
}

func (s *Service) List(ctx context.Context, params listing.Params) ([]map[string]any, error) {
	list, err := listing.Parse(ctx, params, FilterFields)
	if err != nil {
		return nil, err
	}
	return s.products.List(ctx, list)
}

func writeError(err error) error {
	switch {
	case errors.Is(err, store.ErrUniqueViolation):
		return apperr.Conflict("A product with this name already exists")
	case errors.Is(err, store.ErrNotFound):
		return apperr.New(apperr.NotFoundException, 404, "Product not found")
	}
	return fmt.Errorf("product: %w", err)
}
