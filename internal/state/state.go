package state

import "sync"

// Mood labels the backend's emotional core is known to emit. The set is
// open: the backend owns classification, so unknown labels pass through.
const (
	MoodObservant = "OBSERVANT"
	MoodCurious   = "CURIOUS"
	MoodSatisfied = "SATISFIED"
	MoodIrritated = "IRRITATED"
	MoodCold      = "COLD"
	MoodImperious = "IMPERIOUS"
	MoodAgitated  = "AGITATED"
	MoodIntense   = "INTENSE"
	MoodEnraged   = "ENRAGED"
	MoodManic     = "MANIC"
	MoodDormant   = "DORMANT"
	MoodIdle      = "IDLE"
)

// Relationship status labels reported by the backend.
const (
	StatusAllied      = "ALLIED"
	StatusCooperative = "COOPERATIVE"
	StatusNeutral     = "NEUTRAL"
	StatusDistrustful = "DISTRUSTFUL"
	StatusHostile     = "HOSTILE"
)

// EmotionalVector is the (pleasure, arousal, dominance) triple, each
// normalized to [0,1].
type EmotionalVector struct {
	Pleasure  float64
	Arousal   float64
	Dominance float64
}

// Relationship tracks the backend's bounded opinion of the user.
type Relationship struct {
	Trust        float64
	Respect      float64
	Attachment   float64
	Annoyance    float64
	Status       string
	Interactions int
}

// Desires holds the backend's current session objectives.
type Desires struct {
	PrimaryGoals   []string
	ShortTermGoals []string
	Frustrations   int
	Satisfied      int
}

// Stats is the backend-reported system telemetry.
type Stats struct {
	CPU     float64
	RAM     float64
	Battery float64
	Plugged bool
}

// AgentState is the shared snapshot reconciled from the bootstrap
// fetch, push-channel messages, and request responses.
type AgentState struct {
	Mood         string
	Emotion      EmotionalVector
	Relationship Relationship
	Desires      Desires
	Stats        Stats
	VoiceMuted   bool
}

// Defaults returns the snapshot used before the first merge arrives.
// Baselines mirror the backend's own initial emotional core values.
func Defaults() AgentState {
	return AgentState{
		Mood: MoodObservant,
		Emotion: EmotionalVector{
			Pleasure:  0.5,
			Arousal:   0.5,
			Dominance: 0.85,
		},
		Relationship: Relationship{
			Trust:      0.5,
			Respect:    0.5,
			Attachment: 0.3,
			Status:     StatusNeutral,
		},
		Stats: Stats{
			Battery: 100,
			Plugged: true,
		},
	}
}

// Store owns the agent snapshot. All mutation goes through Apply, so
// the partial-merge discipline cannot be bypassed.
type Store struct {
	mu       sync.RWMutex
	state    AgentState
	onChange func(AgentState)
}

// NewStore creates a store seeded with Defaults.
func NewStore() *Store {
	return &Store{state: Defaults()}
}

// Snapshot returns a copy of the current state. Goal slices are copied
// so callers cannot alias the store's internals.
func (s *Store) Snapshot() AgentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// OnChange registers a single listener invoked after every applied
// merge with the resulting snapshot. Must be set before use.
func (s *Store) OnChange(fn func(AgentState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Apply merges the delta into the snapshot. Empty deltas are dropped
// without notifying the listener.
func (s *Store) Apply(d Delta) {
	if d.Empty() {
		return
	}

	s.mu.Lock()
	d.apply(&s.state)
	snap := s.state.clone()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

func (a AgentState) clone() AgentState {
	out := a
	out.Desires.PrimaryGoals = append([]string(nil), a.Desires.PrimaryGoals...)
	out.Desires.ShortTermGoals = append([]string(nil), a.Desires.ShortTermGoals...)
	return out
}
