package paymentprofile

import "github.com/luizxsoto/checkout-api-sub000/internal/validation"

const (
	TypeCard  = "CARD_PAYMENT"
	TypePhone = "PHONE_PAYMENT"
)

var writable = []string{"userId", "type", "data"}

type dataset struct {
	Users    []map[string]any
	Profiles []map[string]any
}

func users(d dataset) []map[string]any    { return d.Users }
func profiles(d dataset) []map[string]any { return d.Profiles }

var idRules = []validation.Rule{validation.Required(), validation.String(), validation.Regex(validation.PatternUUIDv4)}

var cardData = validation.Schema{
	validation.F("number", validation.Required(), validation.String(), validation.Pattern(`^\d{13,19}$`)),
	validation.F("holder", validation.Required(), validation.String(), validation.Length(2, 100)),
	validation.F("expiry", validation.Required(), validation.String(), validation.Pattern(`^(0[1-9]|1[0-2])\/\d{2}$`)),
	validation.F("cvv", validation.Required(), validation.String(), validation.Pattern(`^\d{3,4}$`)),
}

var phoneData = validation.Schema{
	validation.F("phone", validation.Required(), validation.String(), validation.Pattern(`^\+?\d{10,15}$`)),
}

// dataKey is the field of data that identifies a profile of each type.
var dataKey = map[string]string{
	TypeCard:  "number",
	TypePhone: "phone",
}

// createSchema picks the shape of data from the declared type. An unknown
// type only requires data to be an object.
func createSchema(kind any) validation.Schema {
	data := validation.Schema{}
	switch kind {
	case TypeCard:
		data = cardData
	case TypePhone:
		data = phoneData
	}
	return validation.Schema{
		validation.F("userId", idRules...),
		validation.F("type", validation.Required(), validation.String(), validation.In(TypeCard, TypePhone)),
		validation.F("data", validation.Required(), validation.Object(data)),
	}
}

func createLookups(kind string) validation.Schema {
	key := "data." + dataKey[kind]
	return validation.Schema{
		validation.F("userId", validation.Exists("users", users, []validation.Pair{validation.On("userId", "id")})),
		validation.F(key, validation.Unique("paymentProfiles", profiles, []validation.Pair{
			validation.On("userId", "userId"),
			validation.On("type", "type"),
			validation.On(key, key),
		})),
	}
}

var idSchema = validation.Schema{
	validation.F("id", idRules...),
}

// removeLookups scopes the profile to its owner when the model carries one.
func removeLookups(owned bool) validation.Schema {
	pairs := []validation.Pair{validation.On("id", "id")}
	if owned {
		pairs = append(pairs, validation.On("userId", "userId"))
	}
	return validation.Schema{
		validation.F("id", validation.Exists("paymentProfiles", profiles, pairs)),
	}
}

// FilterFields lists what GET /payment-profiles can filter and order by.
var FilterFields = validation.Schema{
	validation.F("id", validation.Regex(validation.PatternUUIDv4)),
	validation.F("userId", validation.Regex(validation.PatternUUIDv4)),
	validation.F("type", validation.In(TypeCard, TypePhone)),
	validation.F("createdAt", validation.Date()),
	validation.F("updatedAt", validation.Date()),
}
