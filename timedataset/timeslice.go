package timedataset

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCannotInferFreq = errors.New("cannot infer frequency from time slice")
	ErrNegativeCount   = errors.New("negative number of time points requested")
)

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// Unique returns the distinct time points of an ascending time slice
func (t TimeSlice) Unique() TimeSlice {
	res := make(TimeSlice, 0, len(t))
	for i, tPnt := range t {
		if i > 0 && tPnt.Equal(res[len(res)-1]) {
			continue
		}
		res = append(res, tPnt)
	}
	return res
}

// Frequency is the step between consecutive time points. Calendar steps are expressed
// in months so that monthly and yearly series land on the same day of month. Every
// other series uses a fixed interval.
type Frequency struct {
	Months   int           `json:"months,omitempty"`
	MonthEnd bool          `json:"month_end,omitempty"`
	Interval time.Duration `json:"interval,omitempty"`
}

// Next returns the time point one step after tPnt
func (f Frequency) Next(tPnt time.Time) time.Time {
	if f.Months > 0 {
		if f.MonthEnd {
			return lastDayOfMonth(firstOfMonth(tPnt).AddDate(0, f.Months, 0))
		}
		return tPnt.AddDate(0, f.Months, 0)
	}
	return tPnt.Add(f.Interval)
}

func (f Frequency) String() string {
	if f.Months > 0 {
		if f.MonthEnd {
			return fmt.Sprintf("%d month(s), month end", f.Months)
		}
		return fmt.Sprintf("%d month(s)", f.Months)
	}
	return f.Interval.String()
}

// EstimateFreq infers the step of an ascending time slice ignoring repeated time points.
// A calendar step is chosen if every consecutive pair is the same number of months
// apart, otherwise the most common interval wins with ties going to the smaller one.
func (t TimeSlice) EstimateFreq() (Frequency, error) {
	uniq := t.Unique()
	if len(uniq) < 2 {
		return Frequency{}, ErrCannotInferFreq
	}

	if months, monthEnd, ok := calendarStep(uniq); ok {
		return Frequency{Months: months, MonthEnd: monthEnd}, nil
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(uniq); i++ {
		delta := uniq[i].Sub(uniq[i-1])
		frequencies[delta] += 1
	}

	var maxCnt int
	var maxDelta time.Duration
	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return Frequency{Interval: maxDelta}, nil
}

// Extend returns n time points following the end of the slice at the inferred frequency
func (t TimeSlice) Extend(n int) ([]time.Time, error) {
	if n < 0 {
		return nil, ErrNegativeCount
	}
	freq, err := t.EstimateFreq()
	if err != nil {
		return nil, err
	}

	res := make([]time.Time, 0, n)
	last := t.EndTime()
	for i := 0; i < n; i++ {
		last = freq.Next(last)
		res = append(res, last)
	}
	return res, nil
}

func calendarStep(t TimeSlice) (int, bool, bool) {
	months := monthsBetween(t[0], t[1])
	if months <= 0 {
		return 0, false, false
	}

	sameDay := true
	monthEnd := true
	for i := 1; i < len(t); i++ {
		if monthsBetween(t[i-1], t[i]) != months {
			return 0, false, false
		}
		if !t[i-1].AddDate(0, months, 0).Equal(t[i]) {
			sameDay = false
		}
		if !isMonthEnd(t[i-1]) || !isMonthEnd(t[i]) || !sameClock(t[i-1], t[i]) {
			monthEnd = false
		}
	}
	switch {
	case sameDay:
		return months, false, true
	case monthEnd:
		return months, true, true
	}
	return 0, false, false
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func isMonthEnd(tPnt time.Time) bool {
	return tPnt.AddDate(0, 0, 1).Month() != tPnt.Month()
}

func sameClock(a, b time.Time) bool {
	ah, am, as := a.Clock()
	bh, bm, bs := b.Clock()
	return ah == bh && am == bm && as == bs && a.Nanosecond() == b.Nanosecond()
}

func firstOfMonth(tPnt time.Time) time.Time {
	return tPnt.AddDate(0, 0, 1-tPnt.Day())
}

func lastDayOfMonth(tPnt time.Time) time.Time {
	return firstOfMonth(tPnt).AddDate(0, 1, -1)
}
