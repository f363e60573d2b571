package domain

// Phase is the screen the player is on.
type Phase string

const (
	PhaseBriefing    Phase = "briefing"
	PhaseGame        Phase = "game"
	PhaseResults     Phase = "results"
	PhaseLeaderboard Phase = "leaderboard"
	PhaseSettings    Phase = "settings"
)

// GameState is the state of the quiz session state machine.
type GameState string

const (
	StateIdle           GameState = "idle"
	StateLoading        GameState = "loading"
	StateLoadError      GameState = "load_error"
	StateQuestionActive GameState = "question_active"
	StateRevealed       GameState = "question_revealed"
	StateComplete       GameState = "complete"
	StateClosed         GameState = "closed"
)

// Theme is a UI color theme.
type Theme string

const (
	ThemeCelestial Theme = "theme-celestial"
	ThemeAurora    Theme = "theme-aurora"
	ThemeDusk      Theme = "theme-dusk"
	ThemeDawn      Theme = "theme-dawn"
	ThemeMidnight  Theme = "theme-midnight"
)

// ThemeOption pairs a theme with its label.
type ThemeOption struct {
	Name  string `json:"name"`
	Value Theme  `json:"value"`
}

// Themes lists the selectable themes in display order.
func Themes() []ThemeOption {
	return []ThemeOption{
		{Name: "Celestial", Value: ThemeCelestial},
		{Name: "Aurora", Value: ThemeAurora},
		{Name: "Dusk", Value: ThemeDusk},
		{Name: "Dawn", Value: ThemeDawn},
		{Name: "Midnight", Value: ThemeMidnight},
	}
}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	for _, opt := range Themes() {
		if opt.Value == t {
			return true
		}
	}
	return false
}

// Dark reports whether the theme uses a dark palette.
func (t Theme) Dark() bool {
	switch t {
	case ThemeCelestial, ThemeDusk, ThemeMidnight:
		return true
	}
	return false
}

// Preferences are per-client UI toggles. They are never persisted.
type Preferences struct {
	Theme                 Theme `json:"theme"`
	ShowCustomCursor      bool  `json:"showCustomCursor"`
	ShowBackgroundPattern bool  `json:"showBackgroundPattern"`
	EnableSoundEffects    bool  `json:"enableSoundEffects"`
}

// DefaultPreferences returns the initial UI preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:                 ThemeCelestial,
		ShowCustomCursor:      true,
		ShowBackgroundPattern: true,
		EnableSoundEffects:    true,
	}
}
