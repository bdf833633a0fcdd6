// Package loader implements incremental, offset/limit pagination over any list
// endpoint.
//
// # Overview
//
// A Loader wraps a FetchFunc and grows an in-memory list one page at a time. The
// next page always starts at the current item count, so successful pages form a
// gap-free, strictly increasing sequence of skip values. A page shorter than the
// limit marks the list as exhausted and no further fetches happen until Reset.
//
// # State machine
//
// Each loader owns a loadstate.Machine:
//
//	Idle ──Next──> Loading ──ok──> Loaded ──Next──> Loading ...
//	                  │
//	                  └──err──> Errored ──Next──> Loading (manual retry)
//
// Next is rejected while Loading, which is the only concurrency guarantee the
// loader needs: fetch calls are never concurrent.
//
// # Errors
//
// Fetch errors are converted with apperr.Message and kept in State.Err. Items and
// HasMore are left untouched, so the same page can be retried. A payload of the
// wrong shape is reported by the fetch as apperr.ErrInvalidResponse and shows up
// as the fixed "invalid response" message.
//
// # Sentinel
//
// Hosts that render the list compute the sentinel's visibility with Sentinel and
// feed it to OnSentinel after every scroll, resize or page load:
//
//	if run, ok := l.OnSentinel(sentinel.Visible(top, height, len(rows))); ok {
//		go run(ctx)
//	}
//
// # Event-loop hosts
//
// Next reserves the page synchronously and returns the fetch as a function, so a
// Bubble Tea model can render the loading state in the same Update that issues
// the command:
//
//	run, ok := l.Next()
//	if ok {
//		return m, func() tea.Msg { return pageMsg{err: run(ctx)} }
//	}
package loader
