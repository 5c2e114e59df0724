package triggers

// Kind selects which clock or event evaluates a trigger.
type Kind string

const (
	KindScroll     Kind = "scroll"
	KindExitIntent Kind = "exit-intent"
	KindTime       Kind = "time"
	KindEngagement Kind = "engagement"
)

// ValidKind reports whether k is a known trigger kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindScroll, KindExitIntent, KindTime, KindEngagement:
		return true
	}
	return false
}

// Action is one effect a fired trigger requests from the presentation
// layer: show a modal, render a notification, swap a CTA, recommend
// content, hand off to email, redirect. Delayed actions are scheduled.
type Action struct {
	Type         string            `yaml:"type" json:"type"`
	Params       map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	DelaySeconds int               `yaml:"delay_seconds,omitempty" json:"delay_seconds,omitempty"`
}

// Trigger is a declarative behavior rule. Runtime state (last fire time,
// per-session fire count) lives in the Monitor, not here.
type Trigger struct {
	ID              string      `yaml:"id" json:"id"`
	Kind            Kind        `yaml:"kind" json:"kind"`
	Conditions      []Condition `yaml:"conditions" json:"conditions"`
	Actions         []Action    `yaml:"actions" json:"actions"`
	CooldownMinutes int         `yaml:"cooldown_minutes" json:"cooldown_minutes"`
	MaxPerSession   int         `yaml:"max_per_session" json:"max_per_session"` // 0 means unlimited
}

// ActionSink receives fired actions. The monitor decides when and what;
// the sink decides how.
type ActionSink interface {
	Dispatch(sessionID, triggerID string, action Action)
}

// SinkFunc adapts a function to the ActionSink interface.
type SinkFunc func(sessionID, triggerID string, action Action)

func (f SinkFunc) Dispatch(sessionID, triggerID string, action Action) {
	f(sessionID, triggerID, action)
}
