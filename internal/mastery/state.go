package mastery

// State represents a tag's position in the mastery lifecycle.
type State string

const (
	StateNew      State = "new"
	StateLearning State = "learning"
	StateMastered State = "mastered"
)

// Transition records a tag state change for display and logging.
type Transition struct {
	Tag     string
	From    State
	To      State
	Trigger string // "gate-passed"
}

// TriggerGatePassed marks the one transition ordinary attempts can cause:
// all four mastery gates holding for the first time.
const TriggerGatePassed = "gate-passed"
