package matching

import (
	"sort"
	"time"
)

// Window returns the half-open range [start, end) of sorted times that fall
// within [t-pre, t+post].
func Window(times []time.Time, t time.Time, pre, post time.Duration) (start, end int) {
	lower := t.Add(-pre)
	upper := t.Add(post)

	start = sort.Search(len(times), func(i int) bool {
		return !times[i].Before(lower)
	})
	end = sort.Search(len(times), func(i int) bool {
		return times[i].After(upper)
	})
	if end < start {
		end = start
	}
	return start, end
}
