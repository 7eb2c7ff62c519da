// Package conversation is the port to the remote assistants service:
// assistants, threads, messages and runs. It owns no game semantics.
package conversation

import (
	"context"
	"errors"
)

// ErrBackend wraps every failure returned by the remote service.
var ErrBackend = errors.New("conversation backend error")

// RunStatus mirrors the remote run lifecycle.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"
)

// IsPending reports whether the run is still being worked on by the model.
func (s RunStatus) IsPending() bool {
	return s == RunStatusQueued || s == RunStatusInProgress
}

// IsTerminalFailure reports statuses after which the run can never complete.
func (s RunStatus) IsTerminalFailure() bool {
	switch s {
	case RunStatusCancelled, RunStatusCancelling, RunStatusFailed, RunStatusExpired, RunStatusIncomplete:
		return true
	}
	return false
}

// Order of ListMessages results.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// FunctionSpec describes one function the assistant may call.
type FunctionSpec struct {
	Name        string
	Description string
	Parameters  any // JSON schema
}

// AssistantSpec describes an assistant to create. Empty Model means the backend default.
type AssistantSpec struct {
	Name         string
	Instructions string
	Model        string
	Functions    []FunctionSpec
}

type RunRequest struct {
	AssistantID            string
	ThreadID               string
	AdditionalInstructions string
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

type RunError struct {
	Code    string
	Message string
}

type Run struct {
	ID        string
	ThreadID  string
	Status    RunStatus
	ToolCalls []ToolCall // set only when Status is requires_action
	LastError *RunError
}

type Message struct {
	ID   string
	Role string
	Text string
}

type ListOptions struct {
	Limit int
	Order string
}

type ToolOutput struct {
	ToolCallID string
	Output     string
}

// Backend is the set of remote operations the session core depends on.
type Backend interface {
	CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error)
	DeleteAssistant(ctx context.Context, assistantID string) error
	CreateThread(ctx context.Context) (string, error)
	DeleteThread(ctx context.Context, threadID string) error
	CreateMessage(ctx context.Context, threadID, text string) error
	ListMessages(ctx context.Context, threadID string, opts ListOptions) ([]Message, error)
	CreateRun(ctx context.Context, req RunRequest) (Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error)
	CancelRun(ctx context.Context, threadID, runID string) (Run, error)
}
