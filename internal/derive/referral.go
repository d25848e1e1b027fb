package derive

import (
	"time"

	"home-services-api/internal/model"
)

// ShareCard spends one share from c. It returns false, leaving c untouched,
// when no shares remain.
func ShareCard(c *model.ReferralCard, now time.Time) bool {
	if c.SharesRemaining <= 0 {
		return false
	}
	c.SharesRemaining--
	c.TimesShared++
	t := now
	c.LastSharedAt = &t
	return true
}
