package derive

import (
	"slices"
	"strings"
	"time"

	"home-services-api/internal/model"
)

// DefaultExpiringWindow is how far ahead "expiring soon" looks.
const DefaultExpiringWindow = 30 * 24 * time.Hour

// ExpiringSoon returns documents whose expiration date lies in
// [now, now+window], soonest first. Documents already expired are excluded.
func ExpiringSoon(list []model.Document, now time.Time, window time.Duration) []model.Document {
	limit := now.Add(window)
	out := make([]model.Document, 0, len(list))
	for _, d := range list {
		if d.ExpirationDate == nil {
			continue
		}
		exp := *d.ExpirationDate
		if exp.Before(now) || exp.After(limit) {
			continue
		}
		out = append(out, d)
	}
	slices.SortStableFunc(out, func(x, y model.Document) int {
		return x.ExpirationDate.Compare(*y.ExpirationDate)
	})
	return out
}

func Expired(list []model.Document, now time.Time) []model.Document {
	out := make([]model.Document, 0, len(list))
	for _, d := range list {
		if d.ExpirationDate != nil && d.ExpirationDate.Before(now) {
			out = append(out, d)
		}
	}
	return out
}

// RemindersDue returns unexpired documents whose reminder date has passed.
func RemindersDue(list []model.Document, now time.Time) []model.Document {
	out := make([]model.Document, 0, len(list))
	for _, d := range list {
		if d.ReminderDate == nil || d.ReminderDate.After(now) {
			continue
		}
		if d.ExpirationDate != nil && d.ExpirationDate.Before(now) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func ByCategory(list []model.Document, c model.DocumentCategory) []model.Document {
	out := make([]model.Document, 0, len(list))
	for _, d := range list {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out
}

func Important(list []model.Document) []model.Document {
	out := make([]model.Document, 0, len(list))
	for _, d := range list {
		if d.Important {
			out = append(out, d)
		}
	}
	return out
}

// SearchDocuments matches query case-insensitively against title, notes and
// tags. An empty query matches everything.
func SearchDocuments(list []model.Document, query string) []model.Document {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(list)
	}
	out := make([]model.Document, 0, len(list))
	for _, d := range list {
		if matches(d, q) {
			out = append(out, d)
		}
	}
	return out
}

func matches(d model.Document, q string) bool {
	if strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.Notes), q) {
		return true
	}
	for _, t := range d.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// CategoryCounts reports how many documents fall in each category. Every
// known category is present, including empty ones.
func CategoryCounts(list []model.Document) map[model.DocumentCategory]int {
	counts := make(map[model.DocumentCategory]int, len(model.Categories))
	for _, c := range model.Categories {
		counts[c] = 0
	}
	for _, d := range list {
		counts[d.Category]++
	}
	return counts
}
