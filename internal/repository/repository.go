package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luizxsoto/checkout-api-sub000/internal/filter"
	"github.com/luizxsoto/checkout-api-sub000/internal/query"
	"github.com/luizxsoto/checkout-api-sub000/internal/store"
)

// Reader is the persistence contract validation stages depend on.
type Reader interface {
	// FindBy returns records matching any predicate, where a predicate
	// matches when every key equals (or, for a slice, contains) the value.
	FindBy(ctx context.Context, predicates []map[string]any, includeDeleted bool) ([]map[string]any, error)
	List(ctx context.Context, list query.List) ([]map[string]any, error)
}

// Writer mutates records.
type Writer interface {
	Create(ctx context.Context, record map[string]any) (map[string]any, error)
	Update(ctx context.Context, id string, changes map[string]any) (map[string]any, error)
	SoftDelete(ctx context.Context, id string) error
	DeleteWhere(ctx context.Context, predicate map[string]any) (int64, error)
}

// ReadWriter is implemented by Repository.
type ReadWriter interface {
	Reader
	Writer
}

// Repository stores the records of one table.
type Repository struct {
	db      store.Querier
	dialect store.Dialect
	table   Table
	limits  query.Limits
	now     func() time.Time
}

type Option func(*Repository)

// WithLimits overrides the page size bounds of List.
func WithLimits(l query.Limits) Option {
	return func(r *Repository) { r.limits = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func New(s *store.Store, t Table, opts ...Option) *Repository {
	r := &Repository{db: s.DB, dialect: s.Dialect, table: t, limits: query.DefaultLimits, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table returns the descriptor of the repository's table.
func (r *Repository) Table() Table { return r.table }

func (r *Repository) FindBy(ctx context.Context, predicates []map[string]any, includeDeleted bool) ([]map[string]any, error) {
	if len(predicates) == 0 {
		return []map[string]any{}, nil
	}

	anyOf := filter.Group{Op: filter.Or}
	for _, p := range predicates {
		all := filter.Group{Op: filter.And}
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			all.Operands = append(all.Operands, r.equality(k, p[k]))
		}
		anyOf.Operands = append(anyOf.Operands, all)
	}

	pb := r.dialect.NewParamBuilder()
	where, err := query.Compile(anyOf, r.dialect, pb, r.table.Column)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.table.Name, err)
	}
	if !includeDeleted {
		where += " AND deleted_at IS NULL"
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(r.table.Columns(), ", "), r.table.Name, where)

	rows, err := store.QueryRows(ctx, r.db, sql, pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.table.Name, err)
	}
	return r.records(rows)
}

func (r *Repository) equality(key string, value any) filter.Cond {
	if values, ok := value.([]any); ok {
		return filter.Cond{Op: filter.In, Field: key, Values: r.encodeAll(values)}
	}
	if values, ok := value.([]string); ok {
		encoded := make([]any, len(values))
		for i, v := range values {
			encoded[i] = v
		}
		return filter.Cond{Op: filter.In, Field: key, Values: encoded}
	}
	return filter.Cond{Op: filter.Eq, Field: key, Value: r.encode(value)}
}

func (r *Repository) List(ctx context.Context, list query.List) ([]map[string]any, error) {
	target := query.Target{
		Table:   r.table.Name,
		Columns: r.table.Columns(),
		Column:  r.table.Column,
		Limits:  r.limits,
	}
	res, err := query.BuildSelect(r.dialect, target, list)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table.Name, err)
	}
	rows, err := store.QueryRows(ctx, r.db, res.SQL, res.Params...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table.Name, err)
	}
	return r.records(rows)
}

// Create inserts record, assigning an id when absent and the timestamps.
// Keys the table does not have are ignored.
func (r *Repository) Create(ctx context.Context, record map[string]any) (map[string]any, error) {
	now := r.now().UTC()
	row := make(map[string]any, len(r.table.Fields))
	for _, f := range r.table.Fields {
		if v, ok := record[f.Name]; ok {
			row[f.Name] = v
		}
	}
	if id, _ := row["id"].(string); id == "" {
		row["id"] = uuid.NewString()
	}
	row["createdAt"] = now
	row["updatedAt"] = now
	delete(row, "deletedAt")

	pb := r.dialect.NewParamBuilder()
	var cols, phs []string
	for _, f := range r.table.Fields {
		v, ok := row[f.Name]
		if !ok {
			continue
		}
		encoded, err := r.encodeField(f, v)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", r.table.Name, err)
		}
		cols = append(cols, f.Column)
		phs = append(phs, pb.Add(encoded))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", r.table.Name, strings.Join(cols, ", "), strings.Join(phs, ", "))
	if _, err := store.Exec(ctx, r.db, sql, pb.Params()...); err != nil {
		return nil, fmt.Errorf("insert %s: %w", r.table.Name, r.dialect.MapError(err))
	}
	row["deletedAt"] = nil
	return row, nil
}

// Update applies changes to a live record and returns it. The id and
// timestamps cannot be changed.
func (r *Repository) Update(ctx context.Context, id string, changes map[string]any) (map[string]any, error) {
	pb := r.dialect.NewParamBuilder()
	var sets []string
	for _, f := range r.table.Fields {
		switch f.Name {
		case "id", "createdAt", "updatedAt", "deletedAt":
			continue
		}
		v, ok := changes[f.Name]
		if !ok {
			continue
		}
		encoded, err := r.encodeField(f, v)
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", r.table.Name, err)
		}
		sets = append(sets, fmt.Sprintf("%s = %s", f.Column, pb.Add(encoded)))
	}
	sets = append(sets, fmt.Sprintf("updated_at = %s", pb.Add(r.dialect.TimeParam(r.now()))))

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s AND deleted_at IS NULL",
		r.table.Name, strings.Join(sets, ", "), pb.Add(id))
	n, err := store.Exec(ctx, r.db, sql, pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", r.table.Name, r.dialect.MapError(err))
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}

	found, err := r.FindBy(ctx, []map[string]any{{"id": id}}, false)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, store.ErrNotFound
	}
	return found[0], nil
}

// SoftDelete marks a live record as deleted.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	now := r.dialect.TimeParam(r.now())
	pb := r.dialect.NewParamBuilder()
	sql := fmt.Sprintf("UPDATE %s SET deleted_at = %s, updated_at = %s WHERE id = %s AND deleted_at IS NULL",
		r.table.Name, pb.Add(now), pb.Add(now), pb.Add(id))
	n, err := store.Exec(ctx, r.db, sql, pb.Params()...)
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", r.table.Name, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteWhere hard-deletes every record matching predicate, deleted or not.
func (r *Repository) DeleteWhere(ctx context.Context, predicate map[string]any) (int64, error) {
	if len(predicate) == 0 {
		return 0, fmt.Errorf("delete %s: empty predicate", r.table.Name)
	}
	all := filter.Group{Op: filter.And}
	keys := make([]string, 0, len(predicate))
	for k := range predicate {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		all.Operands = append(all.Operands, r.equality(k, predicate[k]))
	}

	pb := r.dialect.NewParamBuilder()
	where, err := query.Compile(all, r.dialect, pb, r.table.Column)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", r.table.Name, err)
	}
	n, err := store.Exec(ctx, r.db, fmt.Sprintf("DELETE FROM %s WHERE %s", r.table.Name, where), pb.Params()...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", r.table.Name, err)
	}
	return n, nil
}

func (r *Repository) encode(v any) any {
	if t, ok := v.(time.Time); ok {
		return r.dialect.TimeParam(t)
	}
	return v
}

func (r *Repository) encodeAll(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = r.encode(v)
	}
	return out
}

func (r *Repository) encodeField(f Field, v any) (any, error) {
	if f.JSON && v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.Name, err)
		}
		return string(b), nil
	}
	return r.encode(v), nil
}

// records turns column-keyed rows into field-keyed records.
func (r *Repository) records(rows []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]any, len(r.table.Fields))
		for _, f := range r.table.Fields {
			v := row[f.Column]
			if f.JSON {
				decoded, err := decodeJSON(v)
				if err != nil {
					return nil, fmt.Errorf("decode %s.%s: %w", r.table.Name, f.Name, err)
				}
				v = decoded
			}
			rec[f.Name] = v
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeJSON(v any) (any, error) {
	var raw []byte
	switch val := v.(type) {
	case string:
		raw = []byte(val)
	case []byte:
		raw = val
	default:
		return v, nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}
