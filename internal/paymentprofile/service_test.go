package paymentprofile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
	"github.com/luizxsoto/checkout-api-sub000/internal/auth"
	"github.com/luizxsoto/checkout-api-sub000/internal/listing"
	"github.com/luizxsoto/checkout-api-sub000/internal/repository"
	"github.com/luizxsoto/checkout-api-sub000/internal/storetest"
)

type fixture struct {
	svc      *Service
	admin    *auth.Principal
	customer *auth.Principal
	other    *auth.Principal
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := storetest.Open(t)
	users := repository.New(s, repository.Users)

	admins, err := users.FindBy(ctx, []map[string]any{{"role": auth.RoleAdmin}}, false)
	require.NoError(t, err)
	require.Len(t, admins, 1)

	customer := func(email string) *auth.Principal {
		rec, err := users.Create(ctx, map[string]any{"name": "Customer", "email": email, "password": "h", "role": auth.RoleCustomer})
		require.NoError(t, err)
		return &auth.Principal{ID: rec["id"].(string), Role: auth.RoleCustomer}
	}

	return fixture{
		svc:      NewService(repository.New(s, repository.PaymentProfiles), users, storetest.Logger()),
		admin:    &auth.Principal{ID: admins[0]["id"].(string), Role: auth.RoleAdmin},
		customer: customer("c1@mail.com"),
		other:    customer("c2@mail.com"),
	}
}

func violationKeys(t *testing.T, err error) []string {
	t.Helper()
	violations, ok := apperr.AsValidation(err)
	require.True(t, ok, "expected ValidationException, got %v", err)
	keys := make([]string, len(violations))
	for i, v := range violations {
		keys[i] = v.Field + "/" + v.Rule
	}
	return keys
}

func card(number string) map[string]any {
	return map[string]any{
		"type": TypeCard,
		"data": map[string]any{"number": number, "holder": "John Doe", "expiry": "12/29", "cvv": "123"},
	}
}

func TestCreate_CardIsMaskedAndCVVDropped(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Create(context.Background(), f.customer, card("4111111111111111"))
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, rec["userId"])

	data := rec["data"].(map[string]any)
	assert.Equal(t, "************1111", data["number"])
	assert.NotContains(t, data, "cvv")
}

func TestCreate_CustomerCannotCreateForOthers(t *testing.T) {
	f := newFixture(t)
	body := card("4111111111111111")
	body["userId"] = f.other.ID
	rec, err := f.svc.Create(context.Background(), f.customer, body)
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, rec["userId"])
}

func TestCreate_DataShapeFollowsType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.customer, map[string]any{
		"type": TypeCard,
		"data": map[string]any{"number": "4111", "holder": "John Doe", "expiry": "13/29", "cvv": "123"},
	})
	assert.Equal(t, []string{"data.number/regex"}, violationKeys(t, err))

	_, err = f.svc.Create(ctx, f.customer, map[string]any{"type": TypePhone, "data": map[string]any{"phone": "+5511999999999"}})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.customer, map[string]any{"type": "PIX", "data": "x"})
	assert.Equal(t, []string{"type/in", "data/object"}, violationKeys(t, err))
}

func TestCreate_Lookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.customer, card("4111111111111111"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.customer, card("4111111111111111"))
	assert.Equal(t, []string{"data.number/unique"}, violationKeys(t, err))

	// the same card under another owner is fine
	_, err = f.svc.Create(ctx, f.other, card("4111111111111111"))
	require.NoError(t, err)

	body := card("5500000000000004")
	body["userId"] = "0f8fad5b-d9cb-469f-a165-70867728950e"
	_, err = f.svc.Create(ctx, f.admin, body)
	assert.Equal(t, []string{"userId/exists"}, violationKeys(t, err))
}

func TestListAndRemove_ScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.svc.Create(ctx, f.customer, card("4111111111111111"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.other, card("5500000000000004"))
	require.NoError(t, err)

	rows, err := f.svc.List(ctx, f.customer, listing.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine["id"], rows[0]["id"])

	all, err := f.svc.List(ctx, f.admin, listing.Params{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	id := mine["id"].(string)
	_, err = f.svc.Remove(ctx, f.other, id)
	assert.Equal(t, []string{"id/exists"}, violationKeys(t, err))

	_, err = f.svc.Remove(ctx, f.customer, id)
	require.NoError(t, err)

	rows, err = f.svc.List(ctx, f.customer, listing.Params{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
