package profile

// Range is an inclusive numeric bound for a slider.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// OnboardingDefaults is what the onboarding screens start from.
type OnboardingDefaults struct {
	Genders      []string         `json:"genders"`
	Goals        []string         `json:"goals"`
	Moods        []Mood           `json:"moods"`
	DefaultMood  string           `json:"defaultMood"`
	Height       float64          `json:"height"`
	UnitHeight   string           `json:"unitHeight"`
	Weight       float64          `json:"weight"`
	UnitWeight   string           `json:"unitWeight"`
	Activity     int              `json:"activity"`
	HeightRanges map[string]Range `json:"heightRanges"`
	WeightRanges map[string]Range `json:"weightRanges"`
	Activities   Range            `json:"activities"`
}

// Defaults returns the initial onboarding values and accepted ranges.
func Defaults() OnboardingDefaults {
	return OnboardingDefaults{
		Genders:     Genders,
		Goals:       Goals,
		Moods:       Moods,
		DefaultMood: "Happy",
		Height:      170,
		UnitHeight:  "cm",
		Weight:      59,
		UnitWeight:  "kg",
		Activity:    5,
		HeightRanges: map[string]Range{
			"cm": {Min: 140, Max: 210, Step: 1},
			"ft": {Min: 4.5, Max: 7.0, Step: 0.1},
		},
		WeightRanges: map[string]Range{
			"kg": {Min: 40, Max: 150, Step: 1},
			"lb": {Min: 88, Max: 330, Step: 1},
		},
		Activities: Range{Min: 1, Max: 7, Step: 1},
	}
}
