// Package user manages user accounts.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
	"github.com/luizxsoto/checkout-api-sub000/internal/auth"
	"github.com/luizxsoto/checkout-api-sub000/internal/listing"
	"github.com/luizxsoto/checkout-api-sub000/internal/repository"
	"github.com/luizxsoto/checkout-api-sub000/internal/sanitize"
	"github.com/luizxsoto/checkout-api-sub000/internal/store"
	"github.com/luizxsoto/checkout-api-sub000/internal/validation"
)

type Service struct {
	users repository.ReadWriter
	log   logrus.FieldLogger
}

func NewService(users repository.ReadWriter, log logrus.FieldLogger) *Service {
	return &Service{users: users, log: log.WithField("component", "user")}
}

// twoStage checks schema, then fetches the users matching model and checks
// lookups against them. It returns the fetched users.
func (s *Service) twoStage(ctx context.Context, model map[string]any, schema, lookups validation.Schema, keys ...string) ([]map[string]any, error) {
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
	found, err := s.users.FindBy(ctx, predicates, false)
	if err != nil {
		return nil, err
	}
	if _, err := validation.Resume(ctx, outcome, dataset{Users: found}); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Service) Create(ctx context.Context, body map[string]any) (map[string]any, error) {
	model := sanitize.Pick(body, writable...)
	sanitize.Lower(model, "email")
	if _, err := s.twoStage(ctx, model, createSchema, createLookups, "email"); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(model["password"].(string))
	if err != nil {
		return nil, err
	}
	model["password"] = hash

	created, err := s.users.Create(ctx, model)
	if err != nil {
		return nil, writeError(err)
	}
	s.log.WithFields(logrus.Fields{"id": created["id"], "role": created["role"]}).Info("user created")
	return present(created), nil
}

func (s *Service) Update(ctx context.Context, id string, body map[string]any) (map[string]any, error) {
	model := sanitize.Pick(body, writable...)
	model["id"] = id
	sanitize.Lower(model, "email")
	if _, err := s.twoStage(ctx, model, updateSchema, updateLookups, "id", "email"); err != nil {
		return nil, err
	}

	changes := sanitize.Pick(model, writable...)
	if password, ok := changes["password"].(string); ok {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		changes["password"] = hash
	}

	updated, err := s.users.Update(ctx, id, changes)
	if err != nil {
		return nil, writeError(err)
	}
	s.log.WithField("id", id).Info("user updated")
	return present(updated), nil
}

func (s *Service) Remove(ctx context.Context, id string) (map[string]any, error) {
	model := map[string]any{"id": id}
	found, err := s.twoStage(ctx, model, idSchema, idLookups, "id")
	if err != nil {
		return nil, err
	}
	if err := s.users.SoftDelete(ctx, id); err != nil {
		return nil, writeError(err)
	}
	s.log.WithField("id", id).Info("user removed")
	return present(found[0]), nil
}

func (s *Service) Show(ctx context.Context, id string) (map[string]any, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(ctx, idSchema, model, nil); err != nil {
		return nil, err
	}
	found, err := s.users.FindBy(ctx, []map[string]any{model}, false)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperr.NotFound("user", id)
	}
	return present(found[0]), nil
}

func (s *Service) List(ctx context.Context, params listing.Params) ([]map[string]any, error) {
	list, err := listing.Parse(ctx, params, FilterFields)
	if err != nil {
		return nil, err
	}
	rows, err := s.users.List(ctx, list)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		rows[i] = present(row)
	}
	return rows, nil
}

// present hides the password hash.
func present(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		if k != "password" {
			out[k] = v
		}
	}
	return out
}

func writeError(err error) error {
	switch {
	case errors.Is(err, store.ErrUniqueViolation):
		return apperr.Conflict("A user with this email already exists")
	case errors.Is(err, store.ErrNotFound):
		return apperr.New(apperr.NotFoundException, 404, "User not found")
	}
	return fmt.Errorf("user: %w", err)
}
