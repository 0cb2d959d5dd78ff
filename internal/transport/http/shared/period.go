package shared

import (
	"net/http"
	"strconv"
	"time"

	"gestao/internal/domain/period"
)

// PeriodFromQuery reads ?period=YYYY-MM, or ?year=&month=, defaulting to the
// current month.
func PeriodFromQuery(r *http.Request) (period.Period, error) {
	q := r.URL.Query()
	if raw := q.Get("period"); raw != "" {
		return period.Parse(raw)
	}
	if q.Get("year") == "" && q.Get("month") == "" {
		return period.Of(time.Now()), nil
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return period.Period{}, period.ErrInvalidPeriod
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		return period.Period{}, period.ErrInvalidPeriod
	}
	return period.New(year, month)
}
