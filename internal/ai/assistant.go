// Package ai is the Quotie assistant: a generative-AI chat that drafts
// project quotations and answers general freelancing questions.
package ai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/model"
)

const defaultTimeout = 60 * time.Second

// Reply is the outcome of one user message. Failed replies carry an
// apology as Text and are not added to the history.
type Reply struct {
	Text        string
	IsQuotation bool
	Failed      bool
}

// Assistant talks to the generateContent API and keeps a bounded chat
// history.
type Assistant struct {
	apiKey  string
	baseURL string
	model   string
	chat    generation
	quote   generation
	context *ConversationContext
	client  *http.Client
	logger  *logging.Logger
}

// New creates an assistant from the AI config. The key comes from cfg.APIKey
// and may be empty, in which case every request degrades to an apology.
func New(cfg model.AIConfig, logger *logging.Logger) *Assistant {
	modelName := cfg.Model
	if modelName == "" {
		modelName = model.DefaultAIModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = model.DefaultAIBaseURL
	}

	chat := generation{
		Temperature:      cfg.Temperature,
		TopP:             cfg.TopP,
		TopK:             cfg.TopK,
		MaxOutputTokens:  cfg.MaxOutputTokens,
		ResponseMimeType: "text/plain",
	}
	quote := chat
	quote.Temperature = cfg.QuoteTemperature

	return &Assistant{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   modelName,
		chat:    chat,
		quote:   quote,
		context: NewConversationContext(DefaultMaxMessages),
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logging.OrDiscard(logger).WithComponent(logging.ComponentAI),
	}
}

// Configured reports whether an API key is available.
func (a *Assistant) Configured() bool {
	return a.apiKey != ""
}

// Reset clears the conversation history.
func (a *Assistant) Reset() {
	a.context.Reset()
}

// History returns the exchanged messages, without the persona seed.
func (a *Assistant) History() []Message {
	return a.context.GetMessages()
}

// Respond routes text to GenerateQuotation when it reads like a quotation
// request and to Chat otherwise.
func (a *Assistant) Respond(ctx context.Context, text string) Reply {
	if IsQuotationRequest(text) {
		return a.GenerateQuotation(ctx, text)
	}
	return a.Chat(ctx, text)
}

// Chat sends text with the persona seed and the recent history.
func (a *Assistant) Chat(ctx context.Context, text string) Reply {
	history := []Message{
		{Role: RoleUser, Content: SystemPrompt},
		{Role: RoleModel, Content: Greeting},
	}
	history = append(history, a.context.GetMessages()...)
	history = append(history, Message{Role: RoleUser, Content: text})

	start := time.Now()
	out, err := a.callAPI(ctx, history, a.chat)
	if err != nil {
		a.logger.Error("chat request failed", logging.FieldError, err)
		return Reply{Text: ChatApology, Failed: true}
	}
	a.logger.Debug("chat reply", logging.FieldDuration, time.Since(start).Milliseconds())

	a.context.AddMessage(RoleUser, text)
	a.context.AddMessage(RoleModel, out)
	return Reply{Text: out}
}

// GenerateQuotation drafts a structured quotation for a project
// description. The request carries no history and runs at the quotation
// temperature; the exchange is still recorded so the chat can refer to it.
func (a *Assistant) GenerateQuotation(ctx context.Context, description string) Reply {
	history := []Message{{Role: RoleUser, Content: QuotationPrompt(description)}}

	start := time.Now()
	out, err := a.callAPI(ctx, history, a.quote)
	if err != nil {
		a.logger.Error("quotation request failed", logging.FieldError, err)
		return Reply{Text: QuotationApology, IsQuotation: true, Failed: true}
	}
	a.logger.Debug("quotation reply", logging.FieldDuration, time.Since(start).Milliseconds())

	a.context.AddMessage(RoleUser, description)
	a.context.AddMessage(RoleModel, out)
	return Reply{Text: out, IsQuotation: true}
}
