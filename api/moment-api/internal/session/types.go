package internal_session

// Question is an opaque, caller-defined record. The engine only relies on
// identity; presenters use fields like "id" and "stage" to pick a rendering
// strategy. Immutable once a session's sequence is fixed.
type Question map[string]interface{}

// ID returns the question's stable identifier, or nil when absent.
func (q Question) ID() interface{} {
	return q["id"]
}

// Stage returns the stage/condition discriminator, or "" when absent.
func (q Question) Stage() string {
	if s, ok := q["stage"].(string); ok {
		return s
	}
	return ""
}

// Response is a raw response payload. Its shape is determined by whichever
// presenter produced it: text, choice, audio metadata, or "ignored".
type Response map[string]interface{}

// ResponseRecord is the merge of a raw response with the question that
// produced it, under the "question" key. Never mutated after creation.
type ResponseRecord map[string]interface{}

// Question returns the question (or policy wrapper) this record was
// submitted for.
func (r ResponseRecord) Question() interface{} {
	return r["question"]
}

// EventSink receives one log event per user action. Implementations must
// never panic; the engine does not handle sink failures.
type EventSink func(eventType string, payload interface{})

// NextQuestionFunc selects the next question given prior responses. It may
// return an enriched wrapper rather than a plain Question; the engine passes
// the result to the presenter verbatim. A nil result means the session is
// done.
type NextQuestionFunc func(questions []Question, responses []ResponseRecord) interface{}

// BoundLog is a log callback pre-bound with a question: the payload sent to
// the sink is the raw response merged with that question.
type BoundLog func(eventType string, raw Response)

// BoundSubmit is a submit callback pre-bound with a question.
type BoundSubmit func(raw Response)

// QuestionPresenter renders one question. It receives the question (or the
// policy's wrapper), pre-bound log and submit callbacks, and a read-only
// snapshot of the accumulated responses.
type QuestionPresenter func(question interface{}, log BoundLog, submit BoundSubmit, responses []ResponseRecord) interface{}

// SummaryPresenter renders the end-of-session summary.
type SummaryPresenter func(questions []Question, responses []ResponseRecord) interface{}
