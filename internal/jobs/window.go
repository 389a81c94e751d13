package jobs

import (
	"fmt"
	"time"

	"github.com/courierwatch/courier-tracker/internal/config"
)

// Window is a daily time range in minutes after midnight. Both bounds are
// inclusive at second zero, so a 06:00 end admits 06:00:00 but not 06:00:30.
type Window struct {
	Start int
	End   int
}

func ParseWindow(start, end string) (Window, error) {
	s, err := config.ParseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := config.ParseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	return Window{Start: s, End: e}, nil
}

// Contains reports whether the wall clock of t falls inside the window.
// A window whose end precedes its start wraps midnight.
func (w Window) Contains(t time.Time) bool {
	h, m, s := t.Clock()
	offset := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())

	start := time.Duration(w.Start) * time.Minute
	end := time.Duration(w.End) * time.Minute

	if w.Start <= w.End {
		return offset >= start && offset <= end
	}
	return offset >= start || offset <= end
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}
