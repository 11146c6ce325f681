package adherence

// Tier es la etiqueta que el panel del cuidador muestra junto a la tasa.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
	TierUnknown   Tier = "unknown"
)

func TierOf(ratePercent *int) Tier {
	if ratePercent == nil {
		return TierUnknown
	}
	switch r := *ratePercent; {
	case r >= 90:
		return TierExcellent
	case r >= 80:
		return TierGood
	case r >= 70:
		return TierFair
	default:
		return TierPoor
	}
}
