package risk

// Kind is how a question is answered.
type Kind string

const (
	KindRadio    Kind = "radio"
	KindSelect   Kind = "select"
	KindCheckbox Kind = "checkbox"
)

type Option struct {
	Text    string `json:"text"`
	Horizon string `json:"horizon,omitempty"`
}

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Kind    Kind     `json:"type"`
	Options []Option `json:"options"`
}

// Scored reports whether the question contributes to the risk score.
func (q Question) Scored() bool {
	return q.Kind != KindCheckbox
}

func (q Question) hasOption(text string) bool {
	for _, opt := range q.Options {
		if opt.Text == text {
			return true
		}
	}
	return false
}

func options(texts ...string) []Option {
	opts := make([]Option, len(texts))
	for i, t := range texts {
		opts[i] = Option{Text: t}
	}
	return opts
}

// Questions is the questionnaire, in display order. The scored questions add
// up to a maximum of 18.
var Questions = []Question{
	{
		ID:      "age",
		Text:    "Which age group do you belong to?",
		Kind:    KindRadio,
		Options: options("Above 60", "46 - 60", "31 - 45", "Below 30"),
	},
	{
		ID:      "experience",
		Text:    "How would you describe your investment experience?",
		Kind:    KindRadio,
		Options: options("None", "Fixed deposits and insurance only", "Mutual funds", "Direct equity and derivatives"),
	},
	{
		ID:      "drawdown",
		Text:    "If your portfolio fell 20% in a month, what would you do?",
		Kind:    KindRadio,
		Options: options("Sell everything", "Sell some", "Hold", "Buy more"),
	},
	{
		ID:   "horizon",
		Text: "How long do you plan to stay invested?",
		Kind: KindSelect,
		Options: []Option{
			{Text: "Short term", Horizon: "under 3 years"},
			{Text: "Medium term", Horizon: "3 to 7 years"},
			{Text: "Long term", Horizon: "over 7 years"},
		},
	},
	{
		ID:      "income",
		Text:    "How stable is your income?",
		Kind:    KindRadio,
		Options: options("Uncertain", "Stable", "Stable and growing"),
	},
	{
		ID:      "goals",
		Text:    "What are you investing for?",
		Kind:    KindCheckbox,
		Options: options("Wealth creation", "Retirement", "Children's education", "Buying a home", "Tax saving"),
	},
}

// MaxScore is the highest score the questionnaire can produce.
func MaxScore() int {
	total := 0
	for _, q := range Questions {
		if q.Scored() {
			total += len(q.Options)
		}
	}
	return total
}

// Find looks a question up by id.
func Find(id string) (Question, bool) {
	for _, q := range Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
