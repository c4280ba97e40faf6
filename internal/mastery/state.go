package mastery

// MasteryState is the coarse label shown next to a topic's score.
type MasteryState string

const (
	StateNew        MasteryState = "new"
	StateLearning   MasteryState = "learning"
	StateProficient MasteryState = "proficient"
	StateMastered   MasteryState = "mastered"
)

// Score thresholds for the states above.
const (
	ProficientThreshold = 50
	MasteredThreshold   = 80
)

// ResolveState maps a mastery score and session count to its label.
// A topic touched by no session is new regardless of score.
func ResolveState(mastery, sessions int) MasteryState {
	switch {
	case sessions == 0:
		return StateNew
	case mastery >= MasteredThreshold:
		return StateMastered
	case mastery >= ProficientThreshold:
		return StateProficient
	default:
		return StateLearning
	}
}
