package ranking

import (
	"fmt"
	"time"

	"github.com/Clark-Hu/boxoffice-monthly/internal/apperr"
)

// MinYear is the earliest year accepted for a ranking query.
const MinYear = 1900

// Validator checks year/month bounds against a clock.
type Validator struct {
	now func() time.Time
}

// NewValidator returns a Validator reading the current year from now. A nil
// clock uses time.Now.
func NewValidator(now func() time.Time) Validator {
	if now == nil {
		now = time.Now
	}
	return Validator{now: now}
}

// Validate rejects years outside [MinYear, current year] and months outside
// [1, 12].
func (v Validator) Validate(year, month int) error {
	now := v.now
	if now == nil {
		now = time.Now
	}
	currentYear := now().Year()
	if year < MinYear || year > currentYear {
		return apperr.Validation(fmt.Sprintf("Year must be between %d and %d", MinYear, currentYear))
	}
	if month < 1 || month > 12 {
		return apperr.Validation("Month must be between 1 and 12")
	}
	return nil
}
