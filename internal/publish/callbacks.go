package publish

// OverwriteDecider is asked, with the conflicting file's name, whether an
// existing artifact may be replaced. It is called synchronously and may block
// on the operator.
type OverwriteDecider interface {
	ConfirmOverwrite(name string) bool
}

// DeciderFunc adapts a function to OverwriteDecider.
type DeciderFunc func(name string) bool

func (f DeciderFunc) ConfirmOverwrite(name string) bool {
	return f(name)
}

// Severity of a feedback message.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "info"
}

// Feedback is a message for the operator. When Question is set the notifier's
// answer is used as a yes/no decision.
type Feedback struct {
	Title    string
	Message  string
	Outcome  Outcome
	Severity Severity
	Question bool
}

// Notifier delivers feedback. The return value only matters for questions.
type Notifier interface {
	Notify(fb Feedback) bool
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(fb Feedback) bool

func (f NotifierFunc) Notify(fb Feedback) bool {
	return f(fb)
}

// Silent answers no to everything and reports nothing.
var Silent Notifier = NotifierFunc(func(Feedback) bool { return false })

// reportTracker remembers which outcomes were already shown during one
// publish so the final result is not reported twice.
type reportTracker struct {
	next     Notifier
	reported map[Outcome]bool
}

func newReportTracker(next Notifier) *reportTracker {
	if next == nil {
		next = Silent
	}
	return &reportTracker{next: next, reported: map[Outcome]bool{}}
}

func (t *reportTracker) Notify(fb Feedback) bool {
	t.reported[fb.Outcome] = true
	return t.next.Notify(fb)
}

func (t *reportTracker) reset() {
	clear(t.reported)
}

func (t *reportTracker) wasReported(o Outcome) bool {
	return t.reported[o]
}
