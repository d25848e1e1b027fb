package derive

import (
	"slices"
	"time"

	"home-services-api/internal/model"
)

func servicesWithStatus(list []model.RecurringService, status model.RecurringStatus) []model.RecurringService {
	out := make([]model.RecurringService, 0, len(list))
	for _, s := range list {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}

func ActiveServices(list []model.RecurringService) []model.RecurringService {
	return servicesWithStatus(list, model.RecurringActive)
}

func PausedServices(list []model.RecurringService) []model.RecurringService {
	return servicesWithStatus(list, model.RecurringPaused)
}

// ServicesDueWithin returns active services whose next visit falls in
// [now, now+window], soonest first.
func ServicesDueWithin(list []model.RecurringService, now time.Time, window time.Duration) []model.RecurringService {
	limit := now.Add(window)
	out := make([]model.RecurringService, 0, len(list))
	for _, s := range list {
		if s.Status != model.RecurringActive {
			continue
		}
		if s.NextServiceDate.Before(now) || s.NextServiceDate.After(limit) {
			continue
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(x, y model.RecurringService) int {
		return x.NextServiceDate.Compare(y.NextServiceDate)
	})
	return out
}

// NextServiceDate advances from by one interval of f. Unknown frequencies
// return from unchanged.
func NextServiceDate(from time.Time, f model.Frequency) time.Time {
	return from.AddDate(0, f.Months(), 0)
}

// FirstServiceDate is the earliest visit on the schedule that starts at start
// and is not before now.
func FirstServiceDate(start time.Time, f model.Frequency, now time.Time) time.Time {
	if f.Months() == 0 {
		return start
	}
	// step from start each time so a month-end anchor doesn't drift
	next := start
	for k := 1; next.Before(now); k++ {
		next = start.AddDate(0, k*f.Months(), 0)
	}
	return next
}

// MonthlyEquivalent spreads a per-visit price over the months it covers.
func MonthlyEquivalent(price float64, f model.Frequency) float64 {
	m := f.Months()
	if m == 0 {
		return 0
	}
	return price / float64(m)
}

// MonthlySpend sums MonthlyEquivalent over active services.
func MonthlySpend(list []model.RecurringService) float64 {
	var total float64
	for _, s := range ActiveServices(list) {
		total += MonthlyEquivalent(s.Price, s.Frequency)
	}
	return total
}

func PauseService(s *model.RecurringService) error {
	if s.Status != model.RecurringActive {
		return ErrInvalidTransition
	}
	s.Status = model.RecurringPaused
	return nil
}

// ResumeService reactivates a paused service. NextServiceDate is left as is.
func ResumeService(s *model.RecurringService) error {
	if s.Status != model.RecurringPaused {
		return ErrInvalidTransition
	}
	s.Status = model.RecurringActive
	return nil
}

func CancelService(s *model.RecurringService) error {
	if s.Status == model.RecurringCancelled {
		return ErrInvalidTransition
	}
	s.Status = model.RecurringCancelled
	return nil
}
