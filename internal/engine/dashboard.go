package engine

import "time"

// Dashboard is one refresh: the snapshot, its impact and the advice for it
type Dashboard struct {
	Time     time.Time     `json:"time"`
	Hour     int           `json:"hour"`
	Language Language      `json:"language"`
	Usage    UsageSnapshot `json:"usage"`
	Impact   ImpactMetrics `json:"impact"` // rounded for display
	Habits   HabitState    `json:"habits"`
	Advice   []Advice      `json:"advice"`
	Messages []string      `json:"messages"` // Advice localized to Language
}

// Advisor runs the impact calculator and the rule table with one set of options
type Advisor struct {
	Options    Options
	TimeOfUse  bool
	Estimator  SavingsEstimator
	Phrasebook Phrasebook
}

// NewAdvisor returns an advisor with the given options and the built-in phrasebook
func NewAdvisor(opts Options) *Advisor {
	return &Advisor{Options: opts, Phrasebook: DefaultPhrasebook()}
}

// Dashboard evaluates a snapshot taken at at. The hour of day is read from at in its own
// location, so callers convert to the household timezone first.
func (a *Advisor) Dashboard(usage UsageSnapshot, prefs UserPreferences, habits HabitState, at time.Time, lang Language) (Dashboard, error) {
	hour := at.Hour()

	impact, err := Compute(usage, a.Options.Pricing, ImpactOptions{
		TimeOfUse: a.TimeOfUse,
		Hour:      hour,
		Estimator: a.Estimator,
	})
	if err != nil {
		return Dashboard{}, err
	}

	advice, err := Suggest(usage, prefs, habits, hour, a.Options)
	if err != nil {
		return Dashboard{}, err
	}

	if lang == "" {
		lang = LangEnglish
	}

	return Dashboard{
		Time:     at,
		Hour:     hour,
		Language: lang,
		Usage:    usage,
		Impact:   impact.Rounded(),
		Habits:   habits.Clone(),
		Advice:   advice,
		Messages: a.Phrasebook.LocalizeAll(advice, lang),
	}, nil
}
