package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/fairhaven/upkeep/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// classifySystemPrompt pins the model to a single-word answer.
const classifySystemPrompt = "You are a property management assistant. " +
	"Analyze maintenance requests and assign priority levels. " +
	"Respond with only the priority level (HIGH, MEDIUM, or LOW)."

// chatCompleter abstracts the OpenAI client method we use, enabling
// test mocks.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ClassifyPriority assigns a priority from the request text. When the
// service has no chat client configured it degrades to the keyword
// heuristic without error; an API failure or empty response is
// returned to the caller.
func (s *Service) ClassifyPriority(ctx context.Context, title, description string) (models.Priority, error) {
	if s.chat == nil {
		return KeywordPriority(title, description), nil
	}

	prompt := fmt.Sprintf(`Analyze this maintenance request and assign a priority level.

Title: %s
Description: %s

Priority levels:
- HIGH: Emergency situations (water leaks, no heat in winter, gas leaks, electrical hazards, security issues, broken locks)
- MEDIUM: Important but not urgent (broken appliances, minor plumbing, HVAC issues, pest problems)
- LOW: Cosmetic or non-urgent (paint touch-ups, minor repairs, cosmetic issues, routine maintenance)

Respond with ONLY one word: HIGH, MEDIUM, or LOW`, title, description)

	resp, err := s.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   10,
	})
	if err != nil {
		return "", fmt.Errorf("assist: classify priority: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("assist: classify priority: empty response")
	}

	switch strings.ToUpper(strings.TrimSpace(resp.Choices[0].Message.Content)) {
	case "HIGH":
		return models.PriorityHigh, nil
	case "LOW":
		return models.PriorityLow, nil
	default:
		return models.PriorityMedium, nil
	}
}

// Keyword lists for the deterministic priority heuristic. Matching is
// a plain substring check over the lowercased title+description.
var highPriorityKeywords = []string{
	"leak", "flood", "flooding", "water", "fire", "smoke", "gas", "electrical",
	"hazard", "emergency", "urgent", "broken lock", "security", "break-in",
	"no heat", "no hot water", "sewage", "backup", "overflow", "spark",
	"smell gas", "carbon monoxide", "co2", "toxic", "dangerous",
}

var lowPriorityKeywords = []string{
	"paint", "cosmetic", "touch-up", "touchup", "routine", "maintenance",
	"cleaning", "aesthetic", "decorative", "minor", "small", "cosmetic issue",
	"nail hole", "scratch", "stain", "dirty", "dust",
}

// KeywordPriority assigns a priority by keyword matching. It covers
// both the disabled-AI case (no API key configured) and the fallback
// after a failed classification call, so both paths classify the same
// text identically.
func KeywordPriority(title, description string) models.Priority {
	text := strings.ToLower(title + " " + description)

	for _, kw := range highPriorityKeywords {
		if strings.Contains(text, kw) {
			return models.PriorityHigh
		}
	}
	for _, kw := range lowPriorityKeywords {
		if strings.Contains(text, kw) {
			return models.PriorityLow
		}
	}
	return models.PriorityMedium
}
