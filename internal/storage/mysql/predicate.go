package mysql

import (
	"fmt"
	"strings"

	"imoveis/internal/domain"
)

// columns is the allow-list of filterable fields. Anything else is rejected
// so no caller-controlled text reaches the SQL string.
var columns = map[domain.Field]string{
	domain.FieldActive:       "p.active",
	domain.FieldHighlight:    "p.highlight",
	domain.FieldCode:         "p.code",
	domain.FieldTitle:        "p.title",
	domain.FieldNeighborhood: "p.neighborhood",
	domain.FieldPurpose:      "p.purpose",
	domain.FieldPropertyType: "p.property_type",
	domain.FieldSalePrice:    "p.sale_price",
	domain.FieldRentalPrice:  "p.rental_price",
	domain.FieldDailyPrice:   "p.daily_price",
	domain.FieldTotalArea:    "p.total_area",
	domain.FieldBedrooms:     "p.number_of_bedrooms",
}

// renderWhere turns a predicate tree into a parameterised SQL expression.
// String equality relies on the case-insensitive utf8mb4 collation.
func renderWhere(p domain.Predicate) (string, []any, error) {
	var b strings.Builder
	var args []any
	if err := render(&b, &args, p); err != nil {
		return "", nil, err
	}
	return b.String(), args, nil
}

func render(b *strings.Builder, args *[]any, p domain.Predicate) error {
	switch p.Kind {
	case domain.KindCond:
		return renderCond(b, args, p.Cond)
	case domain.KindAll, domain.KindAny:
		if len(p.Items) == 0 {
			// empty AND is true, empty OR is false
			if p.Kind == domain.KindAll {
				b.WriteString("1=1")
			} else {
				b.WriteString("1=0")
			}
			return nil
		}
		sep := " AND "
		if p.Kind == domain.KindAny {
			sep = " OR "
		}
		b.WriteByte('(')
		for i, it := range p.Items {
			if i > 0 {
				b.WriteString(sep)
			}
			if err := render(b, args, it); err != nil {
				return err
			}
		}
		b.WriteByte(')')
		return nil
	}
	return fmt.Errorf("unknown predicate kind %d", p.Kind)
}

func renderCond(b *strings.Builder, args *[]any, c domain.Condition) error {
	col, ok := columns[c.Field]
	if !ok {
		return fmt.Errorf("field %q is not filterable", c.Field)
	}
	switch c.Op {
	case domain.OpNull:
		b.WriteString(col + " IS NULL")
		return nil
	case domain.OpNotNull:
		b.WriteString(col + " IS NOT NULL")
		return nil
	case domain.OpContains:
		s, ok := c.Value.(string)
		if !ok {
			return fmt.Errorf("contains on %q needs a string", c.Field)
		}
		b.WriteString("LOWER(" + col + ") LIKE ? ESCAPE '!'")
		*args = append(*args, "%"+escapeLike(strings.ToLower(s))+"%")
		return nil
	}

	var op string
	switch c.Op {
	case domain.OpEq:
		op = " = ?"
	case domain.OpNeq:
		op = " <> ?"
	case domain.OpGte:
		op = " >= ?"
	case domain.OpLte:
		op = " <= ?"
	default:
		return fmt.Errorf("unknown operator %q", c.Op)
	}
	b.WriteString(col + op)
	*args = append(*args, c.Value)
	return nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string { return likeEscaper.Replace(s) }
