package domain

import "time"

// Collections in the document store.
const (
	CollectionUsers    = "users"
	CollectionSettings = "settings"
	CollectionProgress = "progress"
)

// ProfileKeyPrefix is the key prefix of every profile document.
const ProfileKeyPrefix = "profile_"

// Profile is the typed view of a profile document. Field names follow the
// stored JSON so documents written by older clients decode unchanged.
type Profile struct {
	Email               string       `json:"email,omitempty"`
	Gender              string       `json:"gender,omitempty"`
	Name                string       `json:"name,omitempty"`
	Age                 int          `json:"age,omitempty"`
	Country             string       `json:"country,omitempty"`
	ImageURL            string       `json:"imageUrl,omitempty"`
	Height              string       `json:"height,omitempty"`
	Weight              string       `json:"weight,omitempty"`
	Activity            string       `json:"activity,omitempty"`
	UnitHeight          string       `json:"unitHeight,omitempty"`
	UnitWeight          string       `json:"unitWeight,omitempty"`
	Goal                string       `json:"goal,omitempty"`
	TrainingProgress    string       `json:"trainingProgress,omitempty"`
	TrainingPlanCreated bool         `json:"trainingPlanCreated,omitempty"`
	Mood                string       `json:"mood,omitempty"`
	MoodColor           string       `json:"moodColor,omitempty"`
	ReminderTime        string       `json:"reminderTime,omitempty"`
	FitnessPlan         *FitnessPlan `json:"fitnessPlan,omitempty"`
	CreatedAt           *time.Time   `json:"createdAt,omitempty"`
	UpdatedAt           *time.Time   `json:"updatedAt,omitempty"`
}

// FitnessPlan is the free-form plan sub-document edited by the user.
type FitnessPlan struct {
	Goal     string `json:"goal"`
	Duration string `json:"duration"`
	Split    string `json:"split"`
	Meal     string `json:"meal"`
	Notes    string `json:"notes"`
}

// SameIdentity reports whether p already carries the given identity facet.
func (p Profile) SameIdentity(name string, age int, gender, country string) bool {
	return p.Name != "" && p.Name == name && p.Age == age && p.Gender == gender && p.Country == country
}

// Settings is the per-user preferences document.
type Settings struct {
	Notifications   NotificationPrefs `json:"notifications"`
	DeviceConnected bool              `json:"deviceConnected"`
	PushEndpoint    string            `json:"pushEndpoint,omitempty"`
	PushPlatform    string            `json:"pushPlatform,omitempty"`
}

// NotificationPrefs toggles reminder delivery channels.
type NotificationPrefs struct {
	Push    bool `json:"push"`
	Email   bool `json:"email"`
	Summary bool `json:"summary"`
}

// DefaultSettings applies when no settings document exists yet.
func DefaultSettings() Settings {
	return Settings{Notifications: NotificationPrefs{Push: true, Email: true, Summary: false}}
}
