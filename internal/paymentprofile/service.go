// Package paymentprofile stores the payment methods customers check out
// with.
package paymentprofile

import (
	"context"
	"errors"
	"fmt"
	"strings"

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
	profiles repository.ReadWriter
	users    repository.Reader
	log      logrus.FieldLogger
}

func NewService(profiles repository.ReadWriter, users repository.Reader, log logrus.FieldLogger) *Service {
	return &Service{profiles: profiles, users: users, log: log.WithField("component", "paymentProfile")}
}

// Create stores a profile. Customers always create for themselves; admins
// name the owner in the body.
func (s *Service) Create(ctx context.Context, p *auth.Principal, body map[string]any) (map[string]any, error) {
	model := sanitize.Pick(body, writable...)
	if !p.IsAdmin() {
		model["userId"] = p.ID
	}

	outcome, err := validation.Run(ctx, func(ctx context.Context, m map[string]any) (validation.Outcome, error) {
		return validation.Check(ctx, createSchema(m["type"]), m, nil, func() validation.Outcome {
			return validation.Continue(func(ctx context.Context, d dataset) (validation.Outcome, error) {
				return validation.Check(ctx, createLookups(m["type"].(string)), m, d, nil)
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

	record := map[string]any{
		"userId": model["userId"],
		"type":   model["type"],
		"data":   stored(model["data"].(map[string]any)),
	}
	created, err := s.profiles.Create(ctx, record)
	if err != nil {
		return nil, writeError(err)
	}
	s.log.WithFields(logrus.Fields{"id": created["id"], "userId": created["userId"], "type": created["type"]}).
		Info("payment profile created")
	return present(created), nil
}

func (s *Service) fetch(ctx context.Context, model map[string]any) (dataset, error) {
	owner := []map[string]any{{"id": model["userId"]}}
	u, err := s.users.FindBy(ctx, owner, false)
	if err != nil {
		return dataset{}, err
	}
	pr, err := s.profiles.FindBy(ctx, []map[string]any{{"userId": model["userId"], "type": model["type"]}}, false)
	if err != nil {
		return dataset{}, err
	}
	return dataset{Users: u, Profiles: pr}, nil
}

// Remove soft-deletes a profile. Customers can only remove their own.
func (s *Service) Remove(ctx context.Context, p *auth.Principal, id string) (map[string]any, error) {
	model := map[string]any{"id": id}
	owned := !p.IsAdmin()
	if owned {
		model["userId"] = p.ID
	}

	outcome, err := validation.Run(ctx, func(ctx context.Context, m map[string]any) (validation.Outcome, error) {
		return validation.Check(ctx, idSchema, m, nil, func() validation.Outcome {
			return validation.Continue(func(ctx context.Context, d dataset) (validation.Outcome, error) {
				return validation.Check(ctx, removeLookups(owned), m, d, nil)
			})
		})
	}, model)
	if err != nil {
		return nil, err
	}

	found, err := s.profiles.FindBy(ctx, []map[string]any{{"id": id}}, false)
	if err != nil {
		return nil, err
	}
	if _, err := validation.Resume(ctx, outcome, dataset{Profiles: found}); err != nil {
		return nil, err
	}

	if err := s.profiles.SoftDelete(ctx, id); err != nil {
		return nil, writeError(err)
	}
	s.log.WithField("id", id).Info("payment profile removed")
	return present(found[0]), nil
}

// List returns profiles; customers only see their own.
func (s *Service) List(ctx context.Context, p *auth.Principal, params listing.Params) ([]map[string]any, error) {
	list, err := listing.Parse(ctx, params, FilterFields)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		list = listing.Restrict(list, "userId", p.ID)
	}
	rows, err := s.profiles.List(ctx, list)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		rows[i] = present(row)
	}
	return rows, nil
}

// stored drops the card security code, which is never persisted.
func stored(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if k != "cvv" {
			out[k] = v
		}
	}
	return out
}

// present masks all but the last four digits of a card number.
func present(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	data, ok := rec["data"].(map[string]any)
	if !ok {
		return out
	}
	masked := stored(data)
	if number, ok := masked["number"].(string); ok && len(number) > 4 {
		masked["number"] = strings.Repeat("*", len(number)-4) + number[len(number)-4:]
	}
	out["data"] = masked
	return out
}

func writeError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.New(apperr.NotFoundException, 404, "Payment profile not found")
	case errors.Is(err, store.ErrUniqueViolation):
		return apperr.Conflict("This payment profile already exists")
	}
	return fmt.Errorf("payment profile: %w", err)
}
