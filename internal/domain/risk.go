package domain

// WarningTier classifies how close a position is to liquidation.
type WarningTier string

const (
	TierNone     WarningTier = ""
	TierCritical WarningTier = "CRITICAL"
	TierWarning  WarningTier = "WARNING"
	TierCaution  WarningTier = "CAUTION"
)

// AnnotateHealthFactor maps a health factor to a warning tier. Tiers are
// checked strictly in order, first match wins. A missing health factor
// defaults to 0 upstream, which always lands in CRITICAL.
func AnnotateHealthFactor(healthFactor float64) WarningTier {
	switch {
	case healthFactor < 1.1:
		return TierCritical
	case healthFactor < 1.3:
		return TierWarning
	case healthFactor < 1.5:
		return TierCaution
	default:
		return TierNone
	}
}

// Message returns the user-facing warning text for the tier, or "" for TierNone.
func (t WarningTier) Message() string {
	switch t {
	case TierCritical:
		return "🚨 CRITICAL: Your position is at immediate risk of liquidation!"
	case TierWarning:
		return "⚠️ WARNING: Your position has elevated risk. Consider adding collateral or repaying debt."
	case TierCaution:
		return "⚡ CAUTION: Your health factor is below the recommended safety threshold."
	default:
		return ""
	}
}
