// Package assistant asks a Gemini model about the household's numbers.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"fintool/internal/log"
	"fintool/internal/reports"
)

const DefaultModelName = "gemini-2.5-flash"

// Generator is the part of the genai Models service the assistant uses.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Assistant struct {
	gen    Generator
	model  string
	logger *log.Logger
}

// New creates an assistant backed by the Gemini API.
func New(ctx context.Context, apiKey, model string, logger *log.Logger) (*Assistant, error) {
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewWithGenerator(client.Models, model, logger), nil
}

func NewWithGenerator(gen Generator, model string, logger *log.Logger) *Assistant {
	if model == "" {
		model = DefaultModelName
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Assistant{gen: gen, model: model, logger: logger.WithComponent(log.ComponentAssistant)}
}

// Ask sends prompt with an optional system message and returns the trimmed
// reply text. Sampling temperature is 0.
func (a *Assistant) Ask(ctx context.Context, prompt, systemMessage string) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)}
	if systemMessage != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemMessage, genai.RoleUser)
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := a.gen.GenerateContent(ctx, a.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty response from model")
	}
	a.logger.DebugContext(ctx, "Model replied", "model", a.model, "chars", len(text))
	return text, nil
}

// AskJSON is Ask with the reply decoded as JSON. When the reply is not JSON
// the raw text is returned instead.
func (a *Assistant) AskJSON(ctx context.Context, prompt, systemMessage string) (any, error) {
	raw, err := a.Ask(ctx, prompt, systemMessage)
	if err != nil {
		return nil, err
	}
	var parsed any
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		a.logger.DebugContext(ctx, "Reply is not JSON, returning text", log.FieldError, err)
		return raw, nil
	}
	return parsed, nil
}

// CashflowPrompt frames a question about the monthly cashflow totals.
func CashflowPrompt(c reports.CashflowTotals, question string) string {
	var b strings.Builder
	b.WriteString("Monthly household cashflow:\n")
	fmt.Fprintf(&b, "- %s: %s\n", reports.TotalIncomeLabel, c.Income.StringFixed(2))
	fmt.Fprintf(&b, "- %s: %s\n", reports.TotalExpensesLabel, c.Expenses.StringFixed(2))
	fmt.Fprintf(&b, "- %s: %s\n", reports.TotalSavingsLabel, c.Savings.StringFixed(2))
	fmt.Fprintf(&b, "- %s: %s\n", reports.RemainderLabel, c.Remainder.StringFixed(2))
	question = strings.TrimSpace(question)
	if question == "" {
		question = "Comment briefly on this cashflow and name the single biggest lever to improve it."
	}
	b.WriteString("\n")
	b.WriteString(question)
	return b.String()
}

// cleanModelJSON strips Markdown fences and any text around the outermost
// JSON object or array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return s
	}
	closer := "]"
	if s[start] == '{' {
		closer = "}"
	}
	if end := strings.LastIndex(s, closer); end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
