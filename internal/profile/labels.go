package profile

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Genders accepted by the identity step.
var Genders = []string{"Male", "Female", "Non"}

// Goals accepted by the goal step, in display order.
var Goals = []string{"Gain Weight", "Lose weight", "Get fitter", "Gain more flexible", "Learn the basic"}

// Mood is a selectable mood and its display color.
type Mood struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Moods accepted by the mood step, in display order.
var Moods = []Mood{
	{Label: "Angry", Color: "#EF5350"},
	{Label: "Sad", Color: "#42A5F5"},
	{Label: "Neutral", Color: "#BDBDBD"},
	{Label: "Happy", Color: "#66BB6A"},
	{Label: "Excited", Color: "#FFB300"},
}

// titleCase builds a fresh Caser per call; Casers are not safe for
// concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// canonicalGender maps "male", "FEMALE" etc. to the stored label.
func canonicalGender(s string) (string, bool) {
	t := titleCase(s)
	for _, g := range Genders {
		if g == t {
			return g, true
		}
	}
	return "", false
}

// canonicalGoal matches case-insensitively. Stored labels keep their
// original mixed casing so they cannot be derived by title-casing.
func canonicalGoal(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, g := range Goals {
		if strings.EqualFold(g, s) {
			return g, true
		}
	}
	return "", false
}

func lookupMood(s string) (Mood, bool) {
	t := titleCase(s)
	for _, m := range Moods {
		if m.Label == t {
			return m, true
		}
	}
	return Mood{}, false
}
