package forecast

const (
	CategoryNone      = "none"
	CategoryLight     = "light"
	CategoryModerate  = "moderate"
	CategoryHeavy     = "heavy"
	CategoryVeryHeavy = "very heavy"
)

// Category names the rain band of a daily total in inches. Lower bounds are
// inclusive.
func Category(inches float64) string {
	switch {
	case inches >= 1.0:
		return CategoryVeryHeavy
	case inches >= 0.5:
		return CategoryHeavy
	case inches >= 0.1:
		return CategoryModerate
	case inches >= 0.01:
		return CategoryLight
	default:
		return CategoryNone
	}
}
