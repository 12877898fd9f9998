package periodic

// CycleType define la granularidad de recurrencia de un servicio periódico.
type CycleType string

const (
	CycleDaily     CycleType = "daily"
	CycleWeekly    CycleType = "weekly"
	CycleMonthly   CycleType = "monthly"
	CycleQuarterly CycleType = "quarterly"
	CycleYearly    CycleType = "yearly"
	// CycleCustom usa CycleDays (> 0, obligatorio solo para este tipo).
	CycleCustom CycleType = "custom"
)

func (c CycleType) Valid() bool {
	switch c {
	case CycleDaily, CycleWeekly, CycleMonthly, CycleQuarterly, CycleYearly, CycleCustom:
		return true
	}
	return false
}
