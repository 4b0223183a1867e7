package cleaning

import (
	"strings"

	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// UserStats counts what CleanUsers changed.
type UserStats struct {
	Input        int `json:"input"`
	DroppedItems int `json:"dropped_items"`
}

// NormalizeList lowercases and trims every item, dropping blanks and
// repeats. Order of first occurrence is kept.
func NormalizeList(values []string) ([]string, int) {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		item := NormalizeText(v)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out, len(values) - len(out)
}

// NormalizeLocation lowercases and collapses internal whitespace.
func NormalizeLocation(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// CleanUsers normalizes user records that already passed raw validation.
// The input is not modified.
func CleanUsers(users []types.User) ([]types.User, UserStats) {
	stats := UserStats{Input: len(users)}
	out := make([]types.User, len(users))

	for i, user := range users {
		var dropped int
		user.UserID = NormalizeID(user.UserID)

		user.Skills, dropped = NormalizeList(user.Skills)
		stats.DroppedItems += dropped
		user.PrimaryRoles, dropped = NormalizeList(user.PrimaryRoles)
		stats.DroppedItems += dropped

		user.ExperienceLevel = NormalizeText(user.ExperienceLevel)
		user.EducationLevel = NormalizeText(user.EducationLevel)
		user.Location = NormalizeLocation(user.Location)
		out[i] = user
	}
	return out, stats
}
