// Package query turns flat request parameters into bounded, validated store predicates.
//
// Filters arrive as `field=value` (equality) or `field[op]=value`. A field may carry at most
// two comparisons, which are AND-combined (`age[gte]=18&age[lte]=30`). The reserved keys
// select, sort, page and limit drive projection, ordering and pagination and never filter.
package query

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"

	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

const (
	// DefaultPage is used when the request omits or mangles the page parameter.
	DefaultPage = 1
	// DefaultLimit is used when the request omits or mangles the limit parameter.
	DefaultLimit = 25
	// MaxLimit caps the number of rows a single page may request.
	MaxLimit = 100
)

// Reserved query keys removed before filter compilation.
var Reserved = []string{"select", "sort", "page", "limit"}

// Operator is a supported comparison operator name.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpLike     Operator = "like"
	OpNotLike  Operator = "notLike"
	OpILike    Operator = "iLike"
	OpNotILike Operator = "notILike"
	OpIn       Operator = "in"
	OpNotIn    Operator = "notIn"
)

var sqlOperators = map[Operator]string{
	OpEq:       "=",
	OpNe:       "<>",
	OpGt:       ">",
	OpGte:      ">=",
	OpLt:       "<",
	OpLte:      "<=",
	OpLike:     "LIKE",
	OpNotLike:  "NOT LIKE",
	OpILike:    "ILIKE",
	OpNotILike: "NOT ILIKE",
}

// ParseOperator validates an operator name against the supported set.
func ParseOperator(name string) (Operator, bool) {
	op := Operator(name)
	if op == OpIn || op == OpNotIn {
		return op, true
	}
	_, ok := sqlOperators[op]
	return op, ok
}

// Condition is a single comparison against one field.
type Condition struct {
	Op    Operator
	Value string
}

// Clause holds the AND-combined conditions for one field.
type Clause struct {
	Field      string
	Column     string
	Conditions []Condition
}

// Predicate is the compiled, schema-validated filter set.
type Predicate struct {
	Clauses []Clause
}

// Empty reports whether the predicate matches every row.
func (p Predicate) Empty() bool {
	return len(p.Clauses) == 0
}

// And returns a copy of the predicate with an extra equality clause on a trusted column.
func (p Predicate) And(field, column, value string) Predicate {
	clauses := make([]Clause, 0, len(p.Clauses)+1)
	clauses = append(clauses, p.Clauses...)
	clauses = append(clauses, Clause{Field: field, Column: column, Conditions: []Condition{{Op: OpEq, Value: value}}})
	return Predicate{Clauses: clauses}
}

// SQL renders the predicate as an AND chain with placeholders numbered from startArg.
// An empty predicate renders as an empty string.
func (p Predicate) SQL(startArg int) (string, []interface{}) {
	if p.Empty() {
		return "", nil
	}
	parts := make([]string, 0, len(p.Clauses))
	args := make([]interface{}, 0, len(p.Clauses))
	n := startArg
	for _, clause := range p.Clauses {
		for _, cond := range clause.Conditions {
			switch cond.Op {
			case OpIn:
				parts = append(parts, fmt.Sprintf("%s = ANY($%d)", clause.Column, n))
				args = append(args, pq.Array(splitList(cond.Value)))
			case OpNotIn:
				parts = append(parts, fmt.Sprintf("NOT (%s = ANY($%d))", clause.Column, n))
				args = append(args, pq.Array(splitList(cond.Value)))
			case OpLike, OpNotLike, OpILike, OpNotILike:
				parts = append(parts, fmt.Sprintf("%s::text %s $%d", clause.Column, sqlOperators[cond.Op], n))
				args = append(args, cond.Value)
			default:
				parts = append(parts, fmt.Sprintf("%s %s $%d", clause.Column, sqlOperators[cond.Op], n))
				args = append(args, cond.Value)
			}
			n++
		}
	}
	return strings.Join(parts, " AND "), args
}

// Where renders the predicate as a WHERE clause, or an empty string when it is empty.
func (p Predicate) Where(startArg int) (string, []interface{}) {
	sql, args := p.SQL(startArg)
	if sql == "" {
		return "", nil
	}
	return " WHERE " + sql, args
}

// SortField orders results by one column.
type SortField struct {
	Field  string
	Column string
	Desc   bool
}

// Schema describes the fields a resource exposes to filtering, projection and ordering.
type Schema struct {
	// Columns maps public field names to trusted SQL column expressions.
	Columns map[string]string
	// Projections overrides the select expression of a field. Fields reached through a
	// join need one so the scanned column carries an alias the row type maps.
	Projections map[string]string
	// DefaultSelect is the projection used when select is absent.
	DefaultSelect []string
	// DefaultSort is the ordering used when sort is absent.
	DefaultSort []SortField
}

func (s Schema) column(field string) (string, bool) {
	col, ok := s.Columns[field]
	return col, ok
}

func (s Schema) projection(field string) (string, bool) {
	if expr, ok := s.Projections[field]; ok {
		return expr, true
	}
	return s.column(field)
}

// Request is the parsed form of a list endpoint's query string.
type Request struct {
	Predicate Predicate
	Select    []string
	Sort      []SortField
	Page      int
	Limit     int
}

// Offset returns the zero-indexed row offset of the request's first row.
func (r *Request) Offset() int {
	return Offset(r.Page, r.Limit)
}

// ClampPage bounds page to the range whose row offsets fit in an int for the given limit.
// Pages below one become DefaultPage.
func ClampPage(page, limit int) int {
	if page < 1 {
		return DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if last := math.MaxInt / limit; page > last {
		return last
	}
	return page
}

// Offset returns the zero-indexed row offset of the first row on page.
func Offset(page, limit int) int {
	if limit < 1 {
		limit = DefaultLimit
	}
	return (ClampPage(page, limit) - 1) * limit
}

// Raw is the untrusted per-field operator mapping, e.g. {"age": {"gte": "18", "lte": "30"}}.
type Raw map[string]map[string]string

// Parse extracts the reserved keys and compiles the remaining parameters against schema.
func Parse(values url.Values, schema Schema) (*Request, error) {
	limit := parseLimit(values.Get("limit"))
	req := &Request{
		Page:  ClampPage(parsePage(values.Get("page")), limit),
		Limit: limit,
	}

	selected, err := parseSelect(values.Get("select"), schema)
	if err != nil {
		return nil, err
	}
	req.Select = selected

	order, err := parseSort(values.Get("sort"), schema)
	if err != nil {
		return nil, err
	}
	req.Sort = order

	raw, err := RawFromValues(values)
	if err != nil {
		return nil, err
	}
	pred, err := Compile(raw, schema)
	if err != nil {
		return nil, err
	}
	req.Predicate = pred
	return req, nil
}

// RawFromValues groups `field[op]=value` keys into a Raw mapping, skipping reserved keys.
// A bare `field=value` is treated as an equality comparison.
func RawFromValues(values url.Values) (Raw, error) {
	raw := Raw{}
	for key, vals := range values {
		if isReserved(key) || len(vals) == 0 {
			continue
		}
		field, op := key, string(OpEq)
		if open := strings.IndexByte(key, '['); open > 0 {
			if !strings.HasSuffix(key, "]") {
				return nil, appErrors.WithDetails(appErrors.ErrValidation, "malformed filter key", map[string]string{"key": key})
			}
			field, op = key[:open], key[open+1:len(key)-1]
		}
		if raw[field] == nil {
			raw[field] = map[string]string{}
		}
		raw[field][op] = vals[0]
	}
	return raw, nil
}

// Compile validates every field and operator in raw and builds the predicate.
// Clauses are ordered by field name so the rendered SQL is deterministic.
func Compile(raw Raw, schema Schema) (Predicate, error) {
	fields := make([]string, 0, len(raw))
	for field := range raw {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	pred := Predicate{Clauses: make([]Clause, 0, len(fields))}
	for _, field := range fields {
		ops := raw[field]
		column, ok := schema.column(field)
		if !ok {
			return Predicate{}, appErrors.WithDetails(appErrors.ErrValidation, "unknown filter field", map[string]string{"field": field})
		}
		if len(ops) == 0 || len(ops) > 2 {
			return Predicate{}, appErrors.WithDetails(appErrors.ErrValidation, "a filter accepts one or two comparisons", map[string]string{"field": field})
		}

		names := make([]string, 0, len(ops))
		for name := range ops {
			names = append(names, name)
		}
		sort.Strings(names)

		clause := Clause{Field: field, Column: column}
		for _, name := range names {
			op, ok := ParseOperator(name)
			if !ok {
				return Predicate{}, appErrors.WithDetails(appErrors.ErrValidation, "unsupported filter operator", map[string]string{"field": field, "operator": name})
			}
			value := ops[name]
			if len(ops) == 1 && strings.Contains(value, "%") {
				value = Contains(value)
			}
			clause.Conditions = append(clause.Conditions, Condition{Op: op, Value: value})
		}
		pred.Clauses = append(pred.Clauses, clause)
	}
	return pred, nil
}

// Contains rewrites a %-delimited operand into a contains-match pattern. The operand is
// URL-decoded, one leading and one trailing % are removed when present, the interior is
// decoded once more and the result is re-wrapped in %...%.
func Contains(operand string) string {
	decoded := unescape(operand)
	interior := strings.TrimPrefix(decoded, "%")
	interior = strings.TrimSuffix(interior, "%")
	return "%" + unescape(interior) + "%"
}

func unescape(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func parseSelect(raw string, schema Schema) ([]string, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		fields = schema.DefaultSelect
	}
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		column, ok := schema.projection(field)
		if !ok {
			return nil, appErrors.WithDetails(appErrors.ErrValidation, "unknown select field", map[string]string{"field": field})
		}
		columns = append(columns, column)
	}
	return columns, nil
}

func parseSort(raw string, schema Schema) ([]SortField, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return schema.DefaultSort, nil
	}
	order := make([]SortField, 0, len(fields))
	for _, field := range fields {
		desc := strings.HasPrefix(field, "-")
		name := strings.TrimPrefix(field, "-")
		column, ok := schema.column(name)
		if !ok {
			return nil, appErrors.WithDetails(appErrors.ErrValidation, "unknown sort field", map[string]string{"field": name})
		}
		order = append(order, SortField{Field: name, Column: column, Desc: desc})
	}
	return order, nil
}

// OrderBy renders the sort fields as an ORDER BY clause.
func OrderBy(order []SortField) string {
	if len(order) == 0 {
		return ""
	}
	parts := make([]string, len(order))
	for i, s := range order {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts[i] = s.Column + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return DefaultPage
	}
	return page
}

func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func isReserved(key string) bool {
	for _, r := range Reserved {
		if key == r {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
