package session

// Phase names a step of the research request lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// State is the current research state. It is one of Idle, Loading, Success
// or Failure, so a result and an error message can never coexist.
type State interface {
	Phase() Phase
	isState()
}

type Idle struct{}

// Loading holds the request in flight.
type Loading struct {
	Topic  string
	Format string
	Seq    uint64
}

type Success struct {
	Result string
}

type Failure struct {
	Message string
}

func (Idle) Phase() Phase    { return PhaseIdle }
func (Loading) Phase() Phase { return PhaseLoading }
func (Success) Phase() Phase { return PhaseSuccess }
func (Failure) Phase() Phase { return PhaseFailure }

func (Idle) isState()    {}
func (Loading) isState() {}
func (Success) isState() {}
func (Failure) isState() {}
