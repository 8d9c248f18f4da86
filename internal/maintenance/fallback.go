package maintenance

import (
	"github.com/fairhaven/upkeep/internal/assist"
	"github.com/fairhaven/upkeep/internal/models"
)

// FallbackPriority assigns a priority by keyword matching, used when
// the AI classifier is unavailable or fails. It shares the keyword
// lists with the disabled-AI path so both classify identically.
func FallbackPriority(title, description string) models.Priority {
	return assist.KeywordPriority(title, description)
}
