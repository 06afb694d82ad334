package expenses

import (
	"time"

	"budgeteer/internal/models"
)

// NormalizeItems returns a copy of items in which every record carries a
// creation timestamp; records without one get now in RFC 3339 form. Records
// that already have a timestamp and non-record entries pass through byte for
// byte, and stamping a record leaves its other fields untouched.
// The input slice is never modified.
func NormalizeItems(items []models.Item, now time.Time) models.ItemList {
	out := make(models.ItemList, 0, len(items))
	stamp := now.Format(time.RFC3339)
	for _, item := range items {
		if item.IsRecord() && item.CreatedAt == "" {
			item = item.WithCreatedAt(stamp)
		}
		out = append(out, item)
	}
	return out
}
