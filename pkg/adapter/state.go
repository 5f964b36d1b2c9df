package adapter

// State is a step of the per-request lifecycle.
type State int

const (
	StateReceived State = iota
	StateSettingsParsed
	StateBodyRead
	StatePayloadSent
	StateResponseBuilt
	StateSent
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateSettingsParsed:
		return "settings_parsed"
	case StateBodyRead:
		return "body_read"
	case StatePayloadSent:
		return "payload_sent"
	case StateResponseBuilt:
		return "response_built"
	case StateSent:
		return "sent"
	default:
		return "unknown"
	}
}

// Outcome summarizes one handled request. Reached is the last stage that
// completed before the response was sent; Err is the failure that ended the
// request early, if any.
type Outcome struct {
	Reached    State
	Final      State
	StatusCode int
	Err        error
	SendErr    error
}

// Succeeded reports whether the request went through every stage.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Reached == StateResponseBuilt
}
