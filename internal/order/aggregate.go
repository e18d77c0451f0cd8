package order

import (
	"fmt"

	"github.com/mperera/lottery-dms/internal/models"
)

// Line is one priced order line. Money is in minor units (cents).
type Line struct {
	Quantity       int
	UnitPrice      int64
	UnitCommission int64
}

type Totals struct {
	Quantity   int   `json:"quantity"`
	Amount     int64 `json:"amount"`
	Commission int64 `json:"commission"`
}

// ComputeTotals sums quantity, quantity*price and quantity*commission over
// the given lines. Callers clamp negative quantities before calling.
func ComputeTotals(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		t.Quantity += l.Quantity
		t.Amount += int64(l.Quantity) * l.UnitPrice
		t.Commission += int64(l.Quantity) * l.UnitCommission
	}
	return t
}

func LinesFromItems(items []models.OrderItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			UnitCommission: it.UnitCommission,
		}
	}
	return lines
}

// FormatAmount renders minor units with two decimal places, e.g. 35000 -> "350.00".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
