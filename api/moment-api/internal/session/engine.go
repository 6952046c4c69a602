package internal_session

import (
	"github.com/teachermoments/moments/pkg/commons"
)

// EventResponseSubmitted is logged once per submitted response, with the
// merged record as payload, before the appended response is observable.
const EventResponseSubmitted = "on_response_submitted"

// Engine manages the flow through a list of questions: it presents one
// question at a time, collects and logs each response, and switches to the
// summary presenter when no question remains.
//
// The engine is single-threaded and action-driven; it is not safe for
// concurrent use. A finished engine never goes back to presenting; start a
// new session with a fresh Start call and an empty response history, or a
// fresh engine.
type Engine struct {
	logger     commons.Logger
	sink       EventSink
	questionEl QuestionPresenter
	summaryEl  SummaryPresenter
	policy     NextQuestionFunc

	questions []Question
	responses []ResponseRecord
}

type EngineOption func(*Engine)

// WithPolicy installs a custom next-question policy owning skip, branch and
// reorder logic. Without it the engine walks the question list in order.
func WithPolicy(policy NextQuestionFunc) EngineOption {
	return func(e *Engine) { e.policy = policy }
}

// NewEngine binds the collaborators at construction time. The sink and both
// presenters are required; the policy is optional.
func NewEngine(logger commons.Logger, sink EventSink, questionEl QuestionPresenter, summaryEl SummaryPresenter, opts ...EngineOption) *Engine {
	e := &Engine{
		logger:     logger,
		sink:       sink,
		questionEl: questionEl,
		summaryEl:  summaryEl,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start fixes the question sequence for this session and clears any
// previously accumulated responses.
func (e *Engine) Start(questions []Question) {
	e.questions = questions
	e.responses = nil
}

func defaultNextQuestion(questions []Question, responses []ResponseRecord) interface{} {
	if len(responses) >= len(questions) {
		return nil
	}
	return questions[len(responses)]
}

// NextQuestion computes the question to present. A nil result signals
// completion; it is never an error. The custom policy's result is returned
// verbatim. The engine assumes nothing about its shape beyond nil-ness, so
// an out-of-range or intentionally empty policy result routes to the
// summary exactly like natural exhaustion.
func (e *Engine) NextQuestion() interface{} {
	if e.policy != nil {
		return e.policy(e.questions, e.snapshot())
	}
	return defaultNextQuestion(e.questions, e.responses)
}

// Done reports whether the session has exhausted its questions. Terminal:
// once true it stays true for a fixed question sequence.
func (e *Engine) Done() bool {
	return e.NextQuestion() == nil
}

func mergedResponse(raw Response, question interface{}) ResponseRecord {
	merged := make(ResponseRecord, len(raw)+1)
	for k, v := range raw {
		merged[k] = v
	}
	merged["question"] = question
	return merged
}

// LogWithQuestion mixes the question into the payload and forwards it to the
// sink without recording a response.
func (e *Engine) LogWithQuestion(question interface{}, eventType string, raw Response) {
	e.sink(eventType, mergedResponse(raw, question))
}

// SubmitResponse merges the raw response with its question, logs the merged
// record, and appends it to the session history. Logging fires exactly once
// per call, before the append is observable: callers see the two as one
// atomic step.
func (e *Engine) SubmitResponse(question interface{}, raw Response) {
	merged := mergedResponse(raw, question)
	e.sink(EventResponseSubmitted, merged)
	e.responses = append(e.responses, merged)
}

// Render produces the presentation output for the current state: the next
// question through the question presenter, or the summary when the policy
// yields nothing.
func (e *Engine) Render() interface{} {
	question := e.NextQuestion()
	if question == nil {
		return e.summaryEl(e.questions, e.snapshot())
	}

	log := func(eventType string, raw Response) {
		e.LogWithQuestion(question, eventType, raw)
	}
	submit := func(raw Response) {
		e.SubmitResponse(question, raw)
	}
	return e.questionEl(question, log, submit, e.snapshot())
}

// Responses returns a read-only snapshot of the accumulated responses in
// submission order.
func (e *Engine) Responses() []ResponseRecord {
	return e.snapshot()
}

func (e *Engine) snapshot() []ResponseRecord {
	out := make([]ResponseRecord, len(e.responses))
	copy(out, e.responses)
	return out
}
