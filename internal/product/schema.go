package product

import "github.com/luizxsoto/checkout-api-sub000/internal/validation"

var writable = []string{"name", "category", "price", "image"}

var Categories = []string{"clothes", "shoes", "others"}

type dataset struct {
	Products []map[string]any
}

func products(d dataset) []map[string]any { return d.Products }

var (
	nameRules     = []validation.Rule{validation.String(), validation.Length(1, 255)}
	categoryRules = []validation.Rule{validation.String(), validation.In(Categories...)}
	priceRules    = []validation.Rule{
		validation.Integer(),
		validation.Expression("min", "This value must be greater than zero", "value > 0"),
	}
	imageRules = []validation.Rule{validation.String(), validation.Regex(validation.PatternURL), validation.Length(1, 2048)}
	idRules    = []validation.Rule{validation.Required(), validation.String(), validation.Regex(validation.PatternUUIDv4)}
)

func required(rules []validation.Rule) []validation.Rule {
	return append([]validation.Rule{validation.Required()}, rules...)
}

var createSchema = validation.Schema{
	validation.F("name", required(nameRules)...),
	validation.F("category", required(categoryRules)...),
	validation.F("price", required(priceRules)...),
	validation.F("image", required(imageRules)...),
}

var createLookups = validation.Schema{
	validation.F("name", validation.Unique("products", products, []validation.Pair{validation.On("name", "name")})),
}

var updateSchema = validation.Schema{
	validation.F("id", idRules...),
	validation.F("name", nameRules...),
	validation.F("category", categoryRules...),
	validation.F("price", priceRules...),
	validation.F("image", imageRules...),
}

var updateLookups = validation.Schema{
	validation.F("id", validation.Exists("products", products, []validation.Pair{validation.On("id", "id")})),
	validation.F("name", validation.Unique("products", products,
		[]validation.Pair{validation.On("name", "name")}, validation.On("id", "id"))),
}

var idSchema = validation.Schema{
	validation.F("id", idRules...),
}

var idLookups = validation.Schema{
	validation.F("id", validation.Exists("products", products, []validation.Pair{validation.On("id", "id")})),
}

// FilterFields lists what GET /products can filter and order by.
var FilterFields = validation.Schema{
	validation.F("id", validation.Regex(validation.PatternUUIDv4)),
	validation.F("name", validation.String(), validation.Length(1, 255)),
	validation.F("category", validation.In(Categories...)),
	validation.F("price", validation.Integer()),
	validation.F("createdAt", validation.Date()),
	validation.F("updatedAt", validation.Date()),
}
