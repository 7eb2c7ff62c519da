package conversation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIConfig - параметры клиента assistants API.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIBackend реализует Backend поверх go-openai.
type OpenAIBackend struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

var _ Backend = (*OpenAIBackend)(nil)

// NewOpenAIBackend создает клиента assistants API.
func NewOpenAIBackend(cfg OpenAIConfig, logger *zap.Logger) *OpenAIBackend {
	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	openaiConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
	}
	log := logger.Named("OpenAIBackend")
	log.Info("Assistants client created",
		zap.String("base_url", openaiConfig.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(openaiConfig),
		model:  cfg.Model,
		logger: log,
	}
}

// observe записывает метрики вызова и оборачивает ошибку в ErrBackend.
func (b *OpenAIBackend) observe(op string, start time.Time, err error) error {
	backendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		backendRequestsTotal.WithLabelValues(op, "error").Inc()
		b.logger.Debug("Assistants API call failed", zap.String("operation", op), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrBackend, op, err)
	}
	backendRequestsTotal.WithLabelValues(op, "success").Inc()
	return nil
}

func (b *OpenAIBackend) CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error) {
	model := spec.Model
	if model == "" {
		model = b.model
	}
	tools := make([]openai.AssistantTool, 0, len(spec.Functions))
	for _, fn := range spec.Functions {
		tools = append(tools, openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  fn.Parameters,
			},
		})
	}
	name, instructions := spec.Name, spec.Instructions

	start := time.Now()
	resp, err := b.client.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        tools,
	})
	if err = b.observe("create_assistant", start, err); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (b *OpenAIBackend) DeleteAssistant(ctx context.Context, assistantID string) error {
	start := time.Now()
	_, err := b.client.DeleteAssistant(ctx, assistantID)
	return b.observe("delete_assistant", start, err)
}

func (b *OpenAIBackend) CreateThread(ctx context.Context) (string, error) {
	start := time.Now()
	thread, err := b.client.CreateThread(ctx, openai.ThreadRequest{})
	if err = b.observe("create_thread", start, err); err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (b *OpenAIBackend) DeleteThread(ctx context.Context, threadID string) error {
	start := time.Now()
	_, err := b.client.DeleteThread(ctx, threadID)
	return b.observe("delete_thread", start, err)
}

func (b *OpenAIBackend) CreateMessage(ctx context.Context, threadID, text string) error {
	start := time.Now()
	_, err := b.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: text,
	})
	return b.observe("create_message", start, err)
}

func (b *OpenAIBackend) ListMessages(ctx context.Context, threadID string, opts ListOptions) ([]Message, error) {
	var limit *int
	if opts.Limit > 0 {
		limit = &opts.Limit
	}
	var order *string
	if opts.Order != "" {
		order = &opts.Order
	}

	start := time.Now()
	list, err := b.client.ListMessage(ctx, threadID, limit, order, nil, nil, nil)
	if err = b.observe("list_messages", start, err); err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(list.Messages))
	for _, m := range list.Messages {
		messages = append(messages, Message{ID: m.ID, Role: m.Role, Text: messageText(m)})
	}
	return messages, nil
}

// messageText склеивает текстовые части сообщения, остальные игнорируются.
func messageText(m openai.Message) string {
	parts := make([]string, 0, len(m.Content))
	for _, c := range m.Content {
		if c.Text != nil {
			parts = append(parts, c.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}

func (b *OpenAIBackend) CreateRun(ctx context.Context, req RunRequest) (Run, error) {
	start := time.Now()
	run, err := b.client.CreateRun(ctx, req.ThreadID, openai.RunRequest{
		AssistantID:            req.AssistantID,
		AdditionalInstructions: req.AdditionalInstructions,
	})
	if err = b.observe("create_run", start, err); err != nil {
		return Run{}, err
	}
	return toRun(run), nil
}

func (b *OpenAIBackend) RetrieveRun(ctx context.Context, threadID, runID string) (Run, error) {
	start := time.Now()
	run, err := b.client.RetrieveRun(ctx, threadID, runID)
	if err = b.observe("retrieve_run", start, err); err != nil {
		return Run{}, err
	}
	return toRun(run), nil
}

func (b *OpenAIBackend) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error) {
	req := openai.SubmitToolOutputsRequest{ToolOutputs: make([]openai.ToolOutput, 0, len(outputs))}
	for _, o := range outputs {
		req.ToolOutputs = append(req.ToolOutputs, openai.ToolOutput{ToolCallID: o.ToolCallID, Output: o.Output})
	}

	start := time.Now()
	run, err := b.client.SubmitToolOutputs(ctx, threadID, runID, req)
	if err = b.observe("submit_tool_outputs", start, err); err != nil {
		return Run{}, err
	}
	return toRun(run), nil
}

func (b *OpenAIBackend) CancelRun(ctx context.Context, threadID, runID string) (Run, error) {
	start := time.Now()
	run, err := b.client.CancelRun(ctx, threadID, runID)
	if err = b.observe("cancel_run", start, err); err != nil {
		return Run{}, err
	}
	return toRun(run), nil
}

func toRun(r openai.Run) Run {
	out := Run{
		ID:       r.ID,
		ThreadID: r.ThreadID,
		Status:   RunStatus(r.Status),
	}
	if r.RequiredAction != nil && r.RequiredAction.SubmitToolOutputs != nil {
		for _, tc := range r.RequiredAction.SubmitToolOutputs.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	if r.LastError != nil {
		out.LastError = &RunError{Code: string(r.LastError.Code), Message: r.LastError.Message}
	}
	return out
}
