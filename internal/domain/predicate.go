package domain

import (
	"fmt"
	"strings"
)

// Field names a filterable property attribute.
type Field string

const (
	FieldActive       Field = "active"
	FieldHighlight    Field = "highlight"
	FieldCode         Field = "code"
	FieldTitle        Field = "title"
	FieldNeighborhood Field = "neighborhood"
	FieldPurpose      Field = "purpose"
	FieldPropertyType Field = "propertyType"
	FieldSalePrice    Field = "salePrice"
	FieldRentalPrice  Field = "rentalPrice"
	FieldDailyPrice   Field = "dailyPrice"
	FieldTotalArea    Field = "totalArea"
	FieldBedrooms     Field = "numberOfBedrooms"
)

type Operator string

const (
	OpEq       Operator = "eq"
	OpNeq      Operator = "neq"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpContains Operator = "contains" // case-insensitive substring
	OpNull     Operator = "null"
	OpNotNull  Operator = "notnull"
)

type Kind int

const (
	KindAll Kind = iota
	KindAny
	KindCond
)

// Condition is one (field, operator, value) tuple.
type Condition struct {
	Field Field
	Op    Operator
	Value any
}

// Predicate is a boolean expression tree over property fields.
// The zero value is an empty conjunction and matches everything.
type Predicate struct {
	Kind  Kind
	Cond  Condition
	Items []Predicate
}

func Cond(f Field, op Operator, v any) Predicate {
	return Predicate{Kind: KindCond, Cond: Condition{Field: f, Op: op, Value: v}}
}

func All(ps ...Predicate) Predicate { return Predicate{Kind: KindAll, Items: ps} }

func Any(ps ...Predicate) Predicate { return Predicate{Kind: KindAny, Items: ps} }

// String renders p for logs, e.g. "(active eq true AND numberOfBedrooms gte 2)".
func (p Predicate) String() string {
	switch p.Kind {
	case KindCond:
		if p.Cond.Op == OpNull || p.Cond.Op == OpNotNull {
			return fmt.Sprintf("%s %s", p.Cond.Field, p.Cond.Op)
		}
		return fmt.Sprintf("%s %s %v", p.Cond.Field, p.Cond.Op, p.Cond.Value)
	case KindAny, KindAll:
		sep := " AND "
		if p.Kind == KindAny {
			sep = " OR "
		}
		parts := make([]string, len(p.Items))
		for i, it := range p.Items {
			parts[i] = it.String()
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
	return "?"
}

// Match evaluates p against a property. Comparisons against a null field
// are false, as in SQL.
func (p Predicate) Match(prop Property) bool {
	switch p.Kind {
	case KindCond:
		return p.Cond.match(prop)
	case KindAny:
		for _, it := range p.Items {
			if it.Match(prop) {
				return true
			}
		}
		return false
	default:
		for _, it := range p.Items {
			if !it.Match(prop) {
				return false
			}
		}
		return true
	}
}

func (c Condition) match(prop Property) bool {
	v, ok := fieldValue(prop, c.Field)
	switch c.Op {
	case OpNull:
		return ok && v == nil
	case OpNotNull:
		return ok && v != nil
	}
	if !ok || v == nil {
		return false
	}
	switch x := v.(type) {
	case string:
		want := fmt.Sprint(c.Value)
		switch c.Op {
		case OpEq:
			return strings.EqualFold(x, want)
		case OpNeq:
			return !strings.EqualFold(x, want)
		case OpContains:
			return strings.Contains(strings.ToLower(x), strings.ToLower(want))
		}
	case bool:
		want, _ := c.Value.(bool)
		switch c.Op {
		case OpEq:
			return x == want
		case OpNeq:
			return x != want
		}
	case float64:
		want, isNum := toFloat(c.Value)
		if !isNum {
			return false
		}
		switch c.Op {
		case OpEq:
			return x == want
		case OpNeq:
			return x != want
		case OpGte:
			return x >= want
		case OpLte:
			return x <= want
		}
	}
	return false
}

func fieldValue(p Property, f Field) (any, bool) {
	switch f {
	case FieldActive:
		return p.Active, true
	case FieldHighlight:
		return p.Highlight, true
	case FieldCode:
		return p.Code, true
	case FieldTitle:
		return p.Title, true
	case FieldNeighborhood:
		return p.Neighborhood, true
	case FieldPurpose:
		return string(p.Purpose), true
	case FieldPropertyType:
		return string(p.PropertyType), true
	case FieldSalePrice:
		return floatOrNil(p.SalePrice), true
	case FieldRentalPrice:
		return floatOrNil(p.RentalPrice), true
	case FieldDailyPrice:
		return floatOrNil(p.DailyPrice), true
	case FieldTotalArea:
		return floatOrNil(p.TotalArea), true
	case FieldBedrooms:
		if p.Bedrooms == nil {
			return nil, true
		}
		return float64(*p.Bedrooms), true
	}
	return nil, false
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
