package services

// Reference bands used when rendering the offline summary.
const (
	// Typical resting heart rate band for healthy adults (bpm).
	restingHeartRateLow  = 60
	restingHeartRateHigh = 100

	// Recommended nightly sleep duration (hours, CDC adult guidance).
	recommendedSleepLow  = 7.0
	recommendedSleepHigh = 9.0

	// Approximate VO2 max band for moderately active adults (ml/kg/min).
	vo2HealthyLow  = 35
	vo2HealthyHigh = 52
)
