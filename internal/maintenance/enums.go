package maintenance

import (
	"regexp"
	"strings"

	"github.com/fairhaven/upkeep/internal/models"
)

// separators collapses whitespace and hyphen runs during normalization.
var separators = regexp.MustCompile(`[\s-]+`)

// normalizeEnum maps free-form input onto the canonical enum spelling:
// trimmed, uppercased, separator runs replaced with underscores.
func normalizeEnum(raw string) string {
	return separators.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "_")
}

// parseEnum matches normalized input against the valid value set.
func parseEnum[T ~string](raw, field string, valid []T) (T, error) {
	norm := normalizeEnum(raw)
	for _, v := range valid {
		if string(v) == norm {
			return v, nil
		}
	}
	var zero T
	return zero, validationf("unsupported %s: %q", field, raw)
}

// ParsePriority validates a raw priority string.
func ParsePriority(raw string) (models.Priority, error) {
	return parseEnum(raw, "priority", models.Priorities())
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (models.Status, error) {
	return parseEnum(raw, "status", models.Statuses())
}

// ParseTechnicianRole validates a raw technician role string.
func ParseTechnicianRole(raw string) (models.TechnicianRole, error) {
	return parseEnum(raw, "technician role", models.TechnicianRoles())
}

// ParseAssetCategory validates a raw asset category string.
func ParseAssetCategory(raw string) (models.AssetCategory, error) {
	return parseEnum(raw, "asset category", models.AssetCategories())
}
