package user

import (
	"github.com/luizxsoto/checkout-api-sub000/internal/auth"
	"github.com/luizxsoto/checkout-api-sub000/internal/validation"
)

var writable = []string{"name", "email", "password", "role"}

// dataset holds the users fetched for lookup rules.
type dataset struct {
	Users []map[string]any
}

func users(d dataset) []map[string]any { return d.Users }

var (
	nameRules     = []validation.Rule{validation.String(), validation.Regex(validation.PatternPersonName), validation.Length(6, 100)}
	emailRules    = []validation.Rule{validation.String(), validation.Regex(validation.PatternEmail), validation.Length(6, 100)}
	passwordRules = []validation.Rule{validation.String(), validation.Regex(validation.PatternPassword), validation.Length(6, 255)}
	roleRules     = []validation.Rule{validation.String(), validation.In(auth.RoleAdmin, auth.RoleCustomer)}
	idRules       = []validation.Rule{validation.Required(), validation.String(), validation.Regex(validation.PatternUUIDv4)}
)

func required(rules []validation.Rule) []validation.Rule {
	return append([]validation.Rule{validation.Required()}, rules...)
}

var createSchema = validation.Schema{
	validation.F("name", required(nameRules)...),
	validation.F("email", required(emailRules)...),
	validation.F("password", required(passwordRules)...),
	validation.F("role", required(roleRules)...),
}

var createLookups = validation.Schema{
	validation.F("email", validation.Unique("users", users, []validation.Pair{validation.On("email", "email")})),
}

var updateSchema = validation.Schema{
	validation.F("id", idRules...),
	validation.F("name", nameRules...),
	validation.F("email", emailRules...),
	validation.F("password", passwordRules...),
	validation.F("role", roleRules...),
}

var updateLookups = validation.Schema{
	validation.F("id", validation.Exists("users", users, []validation.Pair{validation.On("id", "id")})),
	validation.F("email", validation.Unique("users", users,
		[]validation.Pair{validation.On("email", "email")}, validation.On("id", "id"))),
}

var idSchema = validation.Schema{
	validation.F("id", idRules...),
}

var idLookups = validation.Schema{
	validation.F("id", validation.Exists("users", users, []validation.Pair{validation.On("id", "id")})),
}

// FilterFields lists what GET /users can filter and order by.
var FilterFields = validation.Schema{
	validation.F("id", validation.Regex(validation.PatternUUIDv4)),
	validation.F("name", validation.String(), validation.Length(1, 100)),
	validation.F("email", validation.String(), validation.Length(1, 100)),
	validation.F("role", validation.In(auth.RoleAdmin, auth.RoleCustomer)),
	validation.F("createdAt", validation.Date()),
	validation.F("updatedAt", validation.Date()),
}
