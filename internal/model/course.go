package model

import "github.com/shopspring/decimal"

// Regime is the billing/curriculum mode a course belongs to.
type Regime string

const (
	// RegimeSeriado is the fixed sequential curriculum.
	RegimeSeriado Regime = "seriado"
	// RegimeAberto is the flexible elective curriculum.
	RegimeAberto Regime = "aberto"
)

// Regimes lists every regime bucket in display order.
var Regimes = []Regime{RegimeSeriado, RegimeAberto}

// Valid reports whether r is one of the two known regimes.
func (r Regime) Valid() bool {
	return r == RegimeSeriado || r == RegimeAberto
}

// Course is a catalog entry. Ids are unique only within a regime.
type Course struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CreditPrice decimal.Decimal `json:"credit_price"`
}

// Catalog maps each regime to its courses in insertion order.
type Catalog map[Regime][]Course

// Clone returns a deep copy with both regime buckets present.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(Regimes))
	for _, r := range Regimes {
		out[r] = append([]Course{}, c[r]...)
	}
	return out
}
