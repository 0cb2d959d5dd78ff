package tax

import "github.com/shopspring/decimal"

type SubsidyKind string

const (
	SubsidyTransport SubsidyKind = "transport"
	SubsidyFood      SubsidyKind = "food"
	SubsidyFamily    SubsidyKind = "family"
	SubsidyHousing   SubsidyKind = "housing"
	SubsidyChristmas SubsidyKind = "christmas"
	SubsidyVacation  SubsidyKind = "vacation"
)

var SubsidyKinds = []SubsidyKind{
	SubsidyTransport,
	SubsidyFood,
	SubsidyFamily,
	SubsidyHousing,
	SubsidyChristmas,
	SubsidyVacation,
}

func (k SubsidyKind) Valid() bool {
	for _, candidate := range SubsidyKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

type Subsidies struct {
	Transport decimal.Decimal `json:"transport"`
	Food      decimal.Decimal `json:"food"`
	Family    decimal.Decimal `json:"family"`
	Housing   decimal.Decimal `json:"housing"`
	Christmas decimal.Decimal `json:"christmas"`
	Vacation  decimal.Decimal `json:"vacation"`
}

func (s Subsidies) Get(kind SubsidyKind) decimal.Decimal {
	switch kind {
	case SubsidyTransport:
		return s.Transport
	case SubsidyFood:
		return s.Food
	case SubsidyFamily:
		return s.Family
	case SubsidyHousing:
		return s.Housing
	case SubsidyChristmas:
		return s.Christmas
	case SubsidyVacation:
		return s.Vacation
	}
	return decimal.Zero
}

func (s Subsidies) Total() decimal.Decimal {
	total := decimal.Zero
	for _, kind := range SubsidyKinds {
		total = total.Add(s.Get(kind))
	}
	return total
}
