package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
	"github.com/luizxsoto/checkout-api-sub000/internal/config"
	"github.com/luizxsoto/checkout-api-sub000/internal/storetest"
)

const testSecret = "api-secret"

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour},
		List: config.ListConfig{DefaultPerPage: 20, MaxPerPage: 100},
	}
	app := New(Options{Log: storetest.Logger()})
	Register(app, NewHandlers(storetest.Open(t), cfg, storetest.Logger()))
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) (int, gjson.Result) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("execute request: %v", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, gjson.ParseBytes(b)
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	status, body := doRequest(t, app, "POST", "/sessions", "", map[string]any{"email": email, "password": password})
	if status != 201 {
		t.Fatalf("login %s: expected 201, got %d: %s", email, status, body.Raw)
	}
	return body.Get("data.bearerToken").String()
}

func TestCheckoutFlow(t *testing.T) {
	app := testApp(t)
	admin := login(t, app, "admin@localhost.com", "Changeme@1")

	status, body := doRequest(t, app, "POST", "/users", admin, map[string]any{
		"name": "Maria Silva", "email": "maria@mail.com", "password": "Secret@1", "role": "customer",
	})
	if status != 201 {
		t.Fatalf("create user: expected 201, got %d: %s", status, body.Raw)
	}

	var productIDs []string
	for _, p := range []map[string]any{
		{"name": "Tênis Corrida", "category": "shoes", "price": 30000, "image": "https://cdn.local/t.png"},
		{"name": "Meia", "category": "clothes", "price": 1500, "image": "https://cdn.local/m.png"},
	} {
		status, body = doRequest(t, app, "POST", "/products", admin, p)
		if status != 201 {
			t.Fatalf("create product: expected 201, got %d: %s", status, body.Raw)
		}
		productIDs = append(productIDs, body.Get("data.id").String())
	}

	customer := login(t, app, "maria@mail.com", "Secret@1")

	status, body = doRequest(t, app, "POST", "/products", customer, map[string]any{"name": "x"})
	if status != 403 {
		t.Fatalf("customer product create: expected 403, got %d", status)
	}

	status, body = doRequest(t, app, "GET", "/products?filters="+url.QueryEscape(`[":","name","tenis"]`), customer, nil)
	if status != 200 || body.Get("data.#").Int() != 1 {
		t.Fatalf("product search: got %d: %s", status, body.Raw)
	}

	status, body = doRequest(t, app, "POST", "/payment-profiles", customer, map[string]any{
		"type": "CARD_PAYMENT",
		"data": map[string]any{"number": "4111111111111111", "holder": "Maria Silva", "expiry": "10/30", "cvv": "321"},
	})
	if status != 201 {
		t.Fatalf("create payment profile: expected 201, got %d: %s", status, body.Raw)
	}
	if got := body.Get("data.data.number").String(); got != "************1111" {
		t.Fatalf("expected masked number, got %q", got)
	}
	profileID := body.Get("data.id").String()

	status, body = doRequest(t, app, "POST", "/orders", customer, map[string]any{
		"paymentProfileId": profileID,
		"orderItems": []map[string]any{
			{"productId": productIDs[0], "quantity": 1},
			{"productId": productIDs[1], "quantity": 4},
		},
	})
	if status != 201 {
		t.Fatalf("create order: expected 201, got %d: %s", status, body.Raw)
	}
	if got := body.Get("data.totalAmount").Int(); got != 36000 {
		t.Fatalf("expected total 36000, got %d", got)
	}
	orderID := body.Get("data.id").String()

	status, body = doRequest(t, app, "GET", "/orders/"+orderID, customer, nil)
	if status != 200 || body.Get("data.orderItems.#").Int() != 2 {
		t.Fatalf("show order: got %d: %s", status, body.Raw)
	}

	status, body = doRequest(t, app, "GET", "/orders?orderBy=totalAmount&order=asc", admin, nil)
	if status != 200 || body.Get("data.#").Int() != 1 {
		t.Fatalf("list orders: got %d: %s", status, body.Raw)
	}
}

func TestErrorResponses(t *testing.T) {
	app := testApp(t)
	admin := login(t, app, "admin@localhost.com", "Changeme@1")

	cases := []struct {
		name      string
		method    string
		path      string
		token     string
		body      any
		status    int
		errorName string
	}{
		{"no token", "GET", "/users", "", nil, 401, apperr.UnauthorizedException},
		{"bad credentials", "POST", "/sessions", "", map[string]any{"email": "admin@localhost.com", "password": "Wrong@123"}, 400, apperr.ValidationException},
		{"unknown product", "GET", "/products/0f8fad5b-d9cb-469f-a165-70867728950e", admin, nil, 404, apperr.NotFoundException},
		{"bad filter", "GET", "/products?filters="+url.QueryEscape(`["=","password","x"]`), admin, nil, 400, apperr.ValidationException},
		{"no route", "GET", "/nope", "", nil, 404, apperr.NotFoundException},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doRequest(t, app, tc.method, tc.path, tc.token, tc.body)
			if status != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, status, body.Raw)
			}
			if got := body.Get("name").String(); got != tc.errorName {
				t.Fatalf("expected %s, got %q", tc.errorName, got)
			}
		})
	}

	status, body := doRequest(t, app, "GET", "/products?filters="+url.QueryEscape(`["=","password","x"]`), admin, nil)
	if status != 400 || body.Get("validations.0.rule").String() != "listFilters" {
		t.Fatalf("expected listFilters violation, got %s", body.Raw)
	}
}

func TestErrorHandler_HidesInternalCauses(t *testing.T) {
	for _, development := range []bool{false, true} {
		app := New(Options{Development: development, Log: storetest.Logger()})
		app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db exploded") })

		status, body := doRequest(t, app, "GET", "/boom", "", nil)
		if status != 500 {
			t.Fatalf("expected 500, got %d", status)
		}
		leaked := body.Get("message").String() == "db exploded"
		if leaked != development {
			t.Fatalf("development=%v: unexpected message %q", development, body.Get("message").String())
		}
	}
}
