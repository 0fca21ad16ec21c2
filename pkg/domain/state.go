package domain

import (
	"strings"
	"time"
)

// Phase defines the lifecycle stage of a session.
type Phase string

const (
	PhaseIdle       Phase = "IDLE"       // Awaiting a question
	PhaseProcessing Phase = "PROCESSING" // Sequencer is running
	PhaseRevealed   Phase = "REVEALED"   // Result is available
)

// Question is the text submitted by the operator.
type Question struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
}

// NewQuestion trims and lowercases the original text.
func NewQuestion(text string) Question {
	return Question{
		Original:   text,
		Normalized: Normalize(text),
	}
}

// Normalize returns the trimmed, lowercased form used for hashing and script selection.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// StepStatus reports how a status line finished.
type StepStatus string

const (
	StepOK   StepStatus = "OK"
	StepFail StepStatus = "FAIL"
)

// StepOutcome is a committed status line.
type StepOutcome struct {
	Index  int        `json:"index"`
	Line   string     `json:"line"`
	Status StepStatus `json:"status"`
	At     time.Time  `json:"at"`
}

// Answer is the verdict of a successful session.
type Answer string

const (
	AnswerYes Answer = "YES"
	AnswerNo  Answer = "NO"
)

// ResultKind tags the Result variant.
type ResultKind string

const (
	ResultSuccess ResultKind = "SUCCESS"
	ResultError   ResultKind = "ERROR"
)

// Result is the final outcome of a session.
// For ResultSuccess, Answer and Probability are set.
// For ResultError, Code and Message are set.
type Result struct {
	Kind        ResultKind `json:"kind"`
	Answer      Answer     `json:"answer,omitempty"`
	Probability int        `json:"probability"`
	Code        string     `json:"code,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// IsError reports whether the session ended in a simulated failure.
func (r Result) IsError() bool {
	return r.Kind == ResultError
}

// Snapshot is a read-only projection of a session for presentation layers.
type Snapshot struct {
	ID       string        `json:"id,omitempty"`
	Phase    Phase         `json:"phase"`
	Question *Question     `json:"question,omitempty"`
	Script   []string      `json:"script,omitempty"`
	Log      []StepOutcome `json:"log"`
	Typing   string        `json:"typing,omitempty"`
	Result   *Result       `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
}
