package model

// PrintRates тарифы печати (config/print_rates), суммы в рупиях
type PrintRates struct {
	PerPageBW             float64 `json:"perPageBw"`
	PerPageColor          float64 `json:"perPageColor"`
	DoubleSidedMultiplier float64 `json:"doubleSidedMultiplier"`
	StaplingFee           float64 `json:"staplingFee"`
}

// Quote считает стоимость заказа по тарифам
func (r PrintRates) Quote(prefs PrintPreferences) float64 {
	if prefs.TotalPageCount <= 0 || prefs.Copies <= 0 {
		return 0
	}

	pageCost := r.PerPageBW
	if prefs.Color == ColorColor {
		pageCost = r.PerPageColor
	}

	total := float64(prefs.TotalPageCount*prefs.Copies) * pageCost
	if prefs.Sided == SidedDouble {
		total *= r.DoubleSidedMultiplier
	}
	if prefs.IsStapled {
		total += r.StaplingFee
	}
	return total
}
