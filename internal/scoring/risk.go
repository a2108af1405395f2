package scoring

// Risk levels, from safest to least safe.
const (
	RiskLow     = "Low risk"
	RiskMedium  = "Medium risk"
	RiskHigh    = "High risk"
	RiskMaximum = "Maximum risk"
)

// RiskLevel labels a 0-100 metric value.
func RiskLevel(score int) string {
	switch {
	case score >= 75:
		return RiskLow
	case score >= 55:
		return RiskMedium
	case score >= 35:
		return RiskHigh
	default:
		return RiskMaximum
	}
}

// MetricInfo is the resident-facing wording for a metric.
type MetricInfo struct {
	Question    string `json:"question"`
	Description string `json:"description"`
}

var metricInfo = map[Metric]MetricInfo{
	MetricNight: {
		Question:    "Can I go outside after dark?",
		Description: "Safety for pedestrians during evening/night hours",
	},
	MetricTransit: {
		Question:    "Is it safe to use public transport?",
		Description: "Safety at and around transit locations",
	},
	MetricWalk: {
		Question:    "Can I walk around comfortably?",
		Description: "Walkability and street-level comfort during the day",
	},
	MetricVehicle: {
		Question:    "Can I park here safely?",
		Description: "Risk of vehicle theft and break-ins",
	},
	MetricChild: {
		Question:    "Are kids safe here?",
		Description: "Overall safety concerning crimes that could affect children",
	},
	MetricWomen: {
		Question:    "Would I be harassed here?",
		Description: "Assessment of crimes that disproportionately affect women",
	},
}

// Describe returns the wording for a metric.
func Describe(m Metric) MetricInfo {
	return metricInfo[m]
}
