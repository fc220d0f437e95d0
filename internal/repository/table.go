// Package repository persists records as map[string]any keyed by camelCase
// field names, translating them to snake_case columns.
package repository

import (
	"strings"
	"unicode"
)

// Field is one column of a table.
type Field struct {
	Name   string // record key
	Column string
	JSON   bool // stored as a JSON document
}

// Table describes a soft-deletable table with an id primary key and
// created/updated/deleted timestamps.
type Table struct {
	Name   string
	Entity string // plural name used in messages, e.g. "users"
	Fields []Field

	byName map[string]Field
}

// NewTable declares a table. The id and timestamp fields are added
// automatically; extra are the domain fields, optionally suffixed with
// ":json".
func NewTable(name, entity string, extra ...string) Table {
	keys := append([]string{"id"}, extra...)
	keys = append(keys, "createdAt", "updatedAt", "deletedAt")

	t := Table{Name: name, Entity: entity, byName: make(map[string]Field, len(keys))}
	for _, k := range keys {
		f := Field{Name: k}
		if base, ok := strings.CutSuffix(k, ":json"); ok {
			f.Name, f.JSON = base, true
		}
		f.Column = snake(f.Name)
		t.Fields = append(t.Fields, f)
		t.byName[f.Name] = f
	}
	return t
}

// Column maps a record key to its column, or "" when the table lacks it.
func (t Table) Column(name string) string {
	return t.byName[name].Column
}

// Columns returns every column in declaration order.
func (t Table) Columns() []string {
	cols := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		cols[i] = f.Column
	}
	return cols
}

func (t Table) field(name string) (Field, bool) {
	f, ok := t.byName[name]
	return f, ok
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	Users = NewTable("users", "users",
		"name", "email", "password", "role")
	Products = NewTable("products", "products",
		"name", "category", "price", "image")
	PaymentProfiles = NewTable("payment_profiles", "paymentProfiles",
		"userId", "type", "data:json")
	Orders = NewTable("orders", "orders",
		"userId", "paymentProfileId", "status", "totalAmount")
	OrderItems = NewTable("order_items", "orderItems",
		"orderId", "productId", "quantity", "price")
)
