package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Amounts is a list of money values persisted as a JSON array in a text column.
type Amounts []decimal.Decimal

func (a Amounts) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]decimal.Decimal(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Amounts) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Amounts{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan amounts: unsupported type %T", src)
	}

	var out []decimal.Decimal
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan amounts: %w", err)
	}
	*a = out
	return nil
}

// Normalized returns the amounts sorted ascending with duplicates removed.
func (a Amounts) Normalized() Amounts {
	out := make(Amounts, 0, len(a))
	out = append(out, a...)
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })

	dedup := out[:0]
	for i, v := range out {
		if i > 0 && v.Equal(dedup[len(dedup)-1]) {
			continue
		}
		dedup = append(dedup, v)
	}
	return dedup
}
