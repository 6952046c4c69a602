package internal_session

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/teachermoments/moments/pkg/commons"
)

type sinkEvent struct {
	eventType string
	payload   interface{}
}

type captureSink struct {
	events []sinkEvent
}

func (s *captureSink) log(eventType string, payload interface{}) {
	s.events = append(s.events, sinkEvent{eventType, payload})
}

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-session"),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

// testHarness wires an engine whose presenters record what they were called
// with, so a test can walk the whole flow without any real rendering.
type testHarness struct {
	engine          *Engine
	sink            *captureSink
	summaryCalls    int
	summaryQs       []Question
	summaryRs       []ResponseRecord
	presented       []interface{}
	lastSubmit      BoundSubmit
	lastLog         BoundLog
	lastSnapshotLen int
}

func newTestHarness(t *testing.T, opts ...EngineOption) *testHarness {
	t.Helper()
	h := &testHarness{sink: &captureSink{}}

	questionEl := func(question interface{}, log BoundLog, submit BoundSubmit, responses []ResponseRecord) interface{} {
		h.presented = append(h.presented, question)
		h.lastLog = log
		h.lastSubmit = submit
		h.lastSnapshotLen = len(responses)
		return question
	}
	summaryEl := func(questions []Question, responses []ResponseRecord) interface{} {
		h.summaryCalls++
		h.summaryQs = questions
		h.summaryRs = responses
		return "summary"
	}

	h.engine = NewEngine(newTestLogger(t), h.sink.log, questionEl, summaryEl, opts...)
	return h
}

func questionList(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{"id": i + 1}
	}
	return qs
}

func TestDefaultPolicyWalksInOrder(t *testing.T) {
	h := newTestHarness(t)
	h.engine.Start(questionList(3))

	for i := 0; i < 3; i++ {
		out := h.engine.Render()
		q, ok := out.(Question)
		if !ok {
			t.Fatalf("render %d: expected a question, got %T", i, out)
		}
		if q["id"] != i+1 {
			t.Errorf("render %d: expected question id %d, got %v", i, i+1, q["id"])
		}
		h.lastSubmit(Response{"text": fmt.Sprintf("answer %d", i)})
	}

	if h.summaryCalls != 0 {
		t.Fatalf("summary should not render before exhaustion")
	}
	h.engine.Render()
	if h.summaryCalls != 1 {
		t.Fatalf("expected summary after last submission, got %d calls", h.summaryCalls)
	}
	if len(h.summaryRs) != 3 {
		t.Errorf("summary should receive 3 responses, got %d", len(h.summaryRs))
	}
}

func TestDoneExactlyAfterNthSubmission(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		h := newTestHarness(t)
		h.engine.Start(questionList(n))
		for i := 0; i < n; i++ {
			if h.engine.Done() {
				t.Fatalf("n=%d: done after %d submissions, too early", n, i)
			}
			h.engine.SubmitResponse(Question{"id": i + 1}, Response{"i": i})
		}
		if !h.engine.Done() {
			t.Errorf("n=%d: expected done after %d submissions", n, n)
		}
	}
}

func TestSubmitResponseMergesQuestion(t *testing.T) {
	h := newTestHarness(t)
	h.engine.Start(questionList(2))

	q := Question{"id": 7, "stage": "practice"}
	raw := Response{"text": "hello", "elapsedMs": 1200}
	h.engine.SubmitResponse(q, raw)

	responses := h.engine.Responses()
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	want := ResponseRecord{"text": "hello", "elapsedMs": 1200, "question": q}
	if !reflect.DeepEqual(responses[0], want) {
		t.Errorf("merged record mismatch:\n got %v\nwant %v", responses[0], want)
	}
	// The raw payload itself must stay untouched.
	if _, ok := raw["question"]; ok {
		t.Error("submit must not mutate the raw response")
	}
}

func TestSubmitLogsBeforeAppendObservable(t *testing.T) {
	h := newTestHarness(t)
	h.engine.Start(questionList(1))

	var lenAtLogTime = -1
	h.engine = NewEngine(newTestLogger(t),
		func(eventType string, payload interface{}) {
			lenAtLogTime = len(h.engine.Responses())
		},
		func(q interface{}, l BoundLog, s BoundSubmit, r []ResponseRecord) interface{} { return nil },
		func(q []Question, r []ResponseRecord) interface{} { return nil },
	)
	h.engine.Start(questionList(1))
	h.engine.SubmitResponse(Question{"id": 1}, Response{"text": "a"})

	if lenAtLogTime != 0 {
		t.Errorf("sink must fire before the append is observable, saw len=%d", lenAtLogTime)
	}
	if len(h.engine.Responses()) != 1 {
		t.Errorf("append must follow the log")
	}
}

func TestSubmitEmitsExactlyOneEventPerCall(t *testing.T) {
	h := newTestHarness(t)
	h.engine.Start(questionList(5))

	for i := 0; i < 5; i++ {
		h.engine.SubmitResponse(Question{"id": i}, Response{"k": i})
	}
	if len(h.sink.events) != 5 {
		t.Fatalf("expected 5 sink events, got %d", len(h.sink.events))
	}
	for i, ev := range h.sink.events {
		if ev.eventType != EventResponseSubmitted {
			t.Errorf("event %d: expected %q, got %q", i, EventResponseSubmitted, ev.eventType)
		}
	}
}

func TestCustomPolicyResultPassedVerbatim(t *testing.T) {
	type wrapper struct {
		Question Question
		Hint     string
	}
	policy := func(questions []Question, responses []ResponseRecord) interface{} {
		if len(responses) > 0 {
			return nil
		}
		return wrapper{Question: questions[0], Hint: "go slow"}
	}

	h := newTestHarness(t, WithPolicy(policy))
	h.engine.Start(questionList(2))

	out := h.engine.Render()
	w, ok := out.(wrapper)
	if !ok {
		t.Fatalf("expected the policy wrapper verbatim, got %T", out)
	}
	if w.Hint != "go slow" {
		t.Errorf("wrapper lost its enrichment")
	}
}

func TestFalsyPolicyRoutesToSummary(t *testing.T) {
	// A policy that bails immediately, mid-list: same as natural exhaustion.
	policy := func(questions []Question, responses []ResponseRecord) interface{} {
		return nil
	}
	h := newTestHarness(t, WithPolicy(policy))
	h.engine.Start(questionList(4))

	h.engine.Render()
	if h.summaryCalls != 1 {
		t.Fatalf("nil policy result must route to summary, got %d summary calls", h.summaryCalls)
	}
	if len(h.presented) != 0 {
		t.Errorf("no presenter call may happen with a nil question")
	}
}

func TestBoundLogMixesInQuestion(t *testing.T) {
	h := newTestHarness(t)
	h.engine.Start(questionList(1))
	h.engine.Render()

	h.lastLog("message_popup_text_changed", Response{"text": "dra"})
	if len(h.sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(h.sink.events))
	}
	record, ok := h.sink.events[0].payload.(ResponseRecord)
	if !ok {
		t.Fatalf("payload should be a merged record, got %T", h.sink.events[0].payload)
	}
	q, ok := record.Question().(Question)
	if !ok || q["id"] != 1 {
		t.Errorf("bound log must mix in the presented question, got %v", record.Question())
	}
	if len(h.engine.Responses()) != 0 {
		t.Errorf("log-only callback must not record a response")
	}
}

func TestEndToEndTwoQuestions(t *testing.T) {
	h := newTestHarness(t)
	h.engine.Start([]Question{{"id": 1}, {"id": 2}})

	h.engine.Render()
	h.lastSubmit(Response{"text": "a"})
	h.engine.Render()
	h.lastSubmit(Response{"text": "b"})

	if h.engine.NextQuestion() != nil {
		t.Fatal("next question should be nil after two submissions")
	}
	h.engine.Render()

	want := []ResponseRecord{
		{"text": "a", "question": Question{"id": 1}},
		{"text": "b", "question": Question{"id": 2}},
	}
	if !reflect.DeepEqual(h.summaryRs, want) {
		t.Errorf("summary responses mismatch:\n got %v\nwant %v", h.summaryRs, want)
	}
	if len(h.summaryQs) != 2 {
		t.Errorf("summary should receive the full question list")
	}
}

func TestStartResetsResponses(t *testing.T) {
	h := newTestHarness(t)
	h.engine.Start(questionList(2))
	h.engine.SubmitResponse(Question{"id": 1}, Response{"text": "x"})

	h.engine.Start(questionList(2))
	if len(h.engine.Responses()) != 0 {
		t.Error("Start must clear accumulated responses")
	}
}

func TestSnapshotIsReadOnlyCopy(t *testing.T) {
	h := newTestHarness(t)
	h.engine.Start(questionList(3))
	h.engine.SubmitResponse(Question{"id": 1}, Response{"text": "x"})

	snap := h.engine.Responses()
	snap[0] = ResponseRecord{"tampered": true}
	if _, ok := h.engine.Responses()[0]["tampered"]; ok {
		t.Error("mutating a snapshot must not affect engine state")
	}
}
