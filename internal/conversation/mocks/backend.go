package mocks

import (
	"context"

	"adventure-server/internal/conversation"

	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock type for the conversation.Backend type
type MockBackend struct {
	mock.Mock
}

// CreateAssistant provides a mock function with given fields: ctx, spec
func (_m *MockBackend) CreateAssistant(ctx context.Context, spec conversation.AssistantSpec) (string, error) {
	ret := _m.Called(ctx, spec)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, conversation.AssistantSpec) string); ok {
		r0 = rf(ctx, spec)
	} else {
		r0 = ret.String(0)
	}
	return r0, ret.Error(1)
}

// DeleteAssistant provides a mock function with given fields: ctx, assistantID
func (_m *MockBackend) DeleteAssistant(ctx context.Context, assistantID string) error {
	ret := _m.Called(ctx, assistantID)
	return ret.Error(0)
}

// CreateThread provides a mock function with given fields: ctx
func (_m *MockBackend) CreateThread(ctx context.Context) (string, error) {
	ret := _m.Called(ctx)
	return ret.String(0), ret.Error(1)
}

// DeleteThread provides a mock function with given fields: ctx, threadID
func (_m *MockBackend) DeleteThread(ctx context.Context, threadID string) error {
	ret := _m.Called(ctx, threadID)
	return ret.Error(0)
}

// CreateMessage provides a mock function with given fields: ctx, threadID, text
func (_m *MockBackend) CreateMessage(ctx context.Context, threadID string, text string) error {
	ret := _m.Called(ctx, threadID, text)
	return ret.Error(0)
}

// ListMessages provides a mock function with given fields: ctx, threadID, opts
func (_m *MockBackend) ListMessages(ctx context.Context, threadID string, opts conversation.ListOptions) ([]conversation.Message, error) {
	ret := _m.Called(ctx, threadID, opts)

	var r0 []conversation.Message
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]conversation.Message)
	}
	return r0, ret.Error(1)
}

// CreateRun provides a mock function with given fields: ctx, req
func (_m *MockBackend) CreateRun(ctx context.Context, req conversation.RunRequest) (conversation.Run, error) {
	ret := _m.Called(ctx, req)
	return runResult(ret)
}

// RetrieveRun provides a mock function with given fields: ctx, threadID, runID
func (_m *MockBackend) RetrieveRun(ctx context.Context, threadID string, runID string) (conversation.Run, error) {
	ret := _m.Called(ctx, threadID, runID)
	return runResult(ret)
}

// SubmitToolOutputs provides a mock function with given fields: ctx, threadID, runID, outputs
func (_m *MockBackend) SubmitToolOutputs(ctx context.Context, threadID string, runID string, outputs []conversation.ToolOutput) (conversation.Run, error) {
	ret := _m.Called(ctx, threadID, runID, outputs)
	return runResult(ret)
}

// CancelRun provides a mock function with given fields: ctx, threadID, runID
func (_m *MockBackend) CancelRun(ctx context.Context, threadID string, runID string) (conversation.Run, error) {
	ret := _m.Called(ctx, threadID, runID)
	return runResult(ret)
}

func runResult(ret mock.Arguments) (conversation.Run, error) {
	var r0 conversation.Run
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(conversation.Run)
	}
	return r0, ret.Error(1)
}

// NewMockBackend creates a new instance of MockBackend. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockBackend(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBackend {
	m := &MockBackend{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ conversation.Backend = (*MockBackend)(nil)
