package domain

import "time"

// Progress is the per-user body progress document, keyed by user id.
// Percent is derived on read and never stored.
type Progress struct {
	CurrentWeight float64       `json:"currentWeight,omitempty"`
	StartWeight   float64       `json:"startWeight,omitempty"`
	BodyFat       float64       `json:"bodyFat,omitempty"`
	Steps         int           `json:"steps,omitempty"`
	Percent       float64       `json:"percent"`
	Weights       []WeightEntry `json:"weights,omitempty"`
	UpdatedAt     *time.Time    `json:"updatedAt,omitempty"`
}

// WeightEntry is one recorded weight in kilograms.
type WeightEntry struct {
	At     time.Time `json:"at"`
	Weight float64   `json:"weight"`
}
