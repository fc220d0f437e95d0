package order

import (
	"fmt"

	"github.com/luizxsoto/checkout-api-sub000/internal/validation"
)

const StatusPending = "PENDING"

var writable = []string{"userId", "paymentProfileId", "orderItems"}

// MaxItems bounds the lines of one order.
const MaxItems = 100

// MaxQuantity bounds the quantity of one line.
const MaxQuantity = 10000

// dataset holds everything the lookup stage of an order checks against.
type dataset struct {
	Users    []map[string]any
	Profiles []map[string]any
	Products []map[string]any
}

func users(d dataset) []map[string]any    { return d.Users }
func profiles(d dataset) []map[string]any { return d.Profiles }
func products(d dataset) []map[string]any { return d.Products }

var idRules = []validation.Rule{validation.Required(), validation.String(), validation.Regex(validation.PatternUUIDv4)}

var itemSchema = validation.Schema{
	validation.F("productId", idRules...),
	validation.F("quantity",
		validation.Required(),
		validation.Integer(),
		validation.Expression("min", "This value must be greater than zero", "value > 0"),
		validation.Expression("max", fmt.Sprintf("This value must be at most %d", MaxQuantity),
			fmt.Sprintf("value <= %d", MaxQuantity)),
	),
}

var createSchema = validation.Schema{
	validation.F("userId", idRules...),
	validation.F("paymentProfileId", idRules...),
	validation.F("orderItems",
		validation.Required(),
		validation.Array(validation.Object(itemSchema)),
		validation.Length(1, MaxItems),
		validation.Distinct("productId"),
	),
}

var createLookups = validation.Schema{
	validation.F("userId", validation.Exists("users", users, []validation.Pair{validation.On("userId", "id")})),
	validation.F("paymentProfileId", validation.Exists("paymentProfiles", profiles, []validation.Pair{
		validation.On("paymentProfileId", "id"),
		validation.On("userId", "userId"),
	})),
	validation.F("orderItems", validation.Array(validation.Object(validation.Schema{
		validation.F("productId", validation.Exists("products", products, []validation.Pair{validation.On("productId", "id")})),
	}))),
}

var idSchema = validation.Schema{
	validation.F("id", idRules...),
}

// FilterFields lists what GET /orders can filter and order by.
var FilterFields = validation.Schema{
	validation.F("id", validation.Regex(validation.PatternUUIDv4)),
	validation.F("userId", validation.Regex(validation.PatternUUIDv4)),
	validation.F("paymentProfileId", validation.Regex(validation.PatternUUIDv4)),
	validation.F("status", validation.String(), validation.Length(1, 50)),
	validation.F("totalAmount", validation.Integer()),
	validation.F("createdAt", validation.Date()),
	validation.F("updatedAt", validation.Date()),
}
