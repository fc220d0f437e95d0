// Package session exchanges credentials for a bearer token.
package session

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/luizxsoto/checkout-api-sub000/internal/auth"
	"github.com/luizxsoto/checkout-api-sub000/internal/repository"
	"github.com/luizxsoto/checkout-api-sub000/internal/sanitize"
	"github.com/luizxsoto/checkout-api-sub000/internal/validation"
)

type dataset struct {
	Users []map[string]any
}

func users(d dataset) []map[string]any { return d.Users }

// account is the stored user the password is checked against.
type account struct {
	Record map[string]any
}

var credentialsSchema = validation.Schema{
	validation.F("email", validation.Required(), validation.String(), validation.Regex(validation.PatternEmail), validation.Length(6, 100)),
	validation.F("password", validation.Required(), validation.String(), validation.Length(6, 255)),
}

var accountSchema = validation.Schema{
	validation.F("email", validation.Exists("users", users, []validation.Pair{validation.On("email", "email")})),
}

var passwordSchema = validation.Schema{
	validation.F("password", validation.Custom("password", "Invalid email or password",
		func(_ context.Context, value any, _ map[string]any, a account) bool {
			password, _ := value.(string)
			hash, _ := a.Record["password"].(string)
			return hash != "" && auth.CheckPassword(password, hash)
		})),
}

type Service struct {
	users  repository.Reader
	issuer *auth.Issuer
	log    logrus.FieldLogger
}

func NewService(users repository.Reader, issuer *auth.Issuer, log logrus.FieldLogger) *Service {
	return &Service{users: users, issuer: issuer, log: log.WithField("component", "session")}
}

// Create checks the credentials in three stages and issues a token.
func (s *Service) Create(ctx context.Context, body map[string]any) (map[string]any, error) {
	model := sanitize.Pick(body, "email", "password")
	sanitize.Lower(model, "email")

	outcome, err := validation.Run(ctx, func(ctx context.Context, m map[string]any) (validation.Outcome, error) {
		return validation.Check(ctx, credentialsSchema, m, nil, func() validation.Outcome {
			return validation.Continue(func(ctx context.Context, d dataset) (validation.Outcome, error) {
				return validation.Check(ctx, accountSchema, m, d, func() validation.Outcome {
					return validation.Continue(func(ctx context.Context, a account) (validation.Outcome, error) {
						return validation.Check(ctx, passwordSchema, m, a, nil)
					})
				})
			})
		})
	}, model)
	if err != nil {
		return nil, err
	}

	found, err := s.users.FindBy(ctx, []map[string]any{{"email": model["email"]}}, false)
	if err != nil {
		return nil, err
	}
	if outcome, err = validation.Resume(ctx, outcome, dataset{Users: found}); err != nil {
		return nil, err
	}
	user := found[0]
	if _, err := validation.Resume(ctx, outcome, account{Record: user}); err != nil {
		s.log.WithField("userId", user["id"]).Warn("password mismatch")
		return nil, err
	}

	token, err := s.issuer.Issue(auth.Principal{ID: user["id"].(string), Role: user["role"].(string)})
	if err != nil {
		return nil, err
	}
	s.log.WithField("userId", user["id"]).Info("session created")

	out := make(map[string]any, len(user)+1)
	for k, v := range user {
		if k != "password" {
			out[k] = v
		}
	}
	out["bearerToken"] = token
	return out, nil
}
