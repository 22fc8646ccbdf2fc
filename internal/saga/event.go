package saga

// Event is a participant response already decoded from the transport.
// The wire layer translates its closed set of event kinds into this
// form once, at the boundary; the runner and instances never see raw
// payloads or kind strings.
type Event struct {
	// CorrelationID selects the instance.
	CorrelationID string

	// Step names the step this event answers. It must equal the name of
	// the step under the instance cursor or the event is dropped.
	Step string

	// Token is the business id the participant keys on. It must equal
	// the instance token or the event is dropped (cross-talk guard).
	Token string

	// Compensation marks acks for compensating commands. Forward events
	// while compensating, and compensation acks while running forward,
	// are dropped.
	Compensation bool

	Failed bool
	Err    string
}
