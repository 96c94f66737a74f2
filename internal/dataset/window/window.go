// Package window groups events into sessions and slides a fixed-length
// context window over each session's token stream, emitting (context,
// target) training examples.
package window

import (
	"fmt"
	"sort"

	"github.com/crimson-sun/presage/internal/dataset/vocab"
	"github.com/crimson-sun/presage/internal/model"
)

// ErrWindowSize is returned when the configured window size is below 1.
var ErrWindowSize = fmt.Errorf("window: size must be at least 1")

// Window is one training example: exactly W context tokens and the token
// that immediately follows them in session order.
type Window struct {
	Context []vocab.Token
	Target  vocab.Token
}

// Sessionize groups events by session identifier and orders them.
//
// The ordering is explicit, not a library default: sessions are sorted by
// identifier ascending, and each session's events by timestamp ascending
// with ties kept in original input order (stable sort).
func Sessionize(events []model.Event) []model.Session {
	byID := make(map[string][]model.Event)
	for _, e := range events {
		byID[e.SessionID] = append(byID[e.SessionID], e)
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sessions := make([]model.Session, 0, len(ids))
	for _, id := range ids {
		evs := byID[id]
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Timestamp < evs[j].Timestamp
		})
		tokens := make([]string, len(evs))
		for i, e := range evs {
			tokens[i] = e.EntityID
		}
		sessions = append(sessions, model.Session{ID: id, Tokens: tokens})
	}
	return sessions
}

// Slide emits every (context, target) window across the given sessions.
//
// A session of length L yields max(0, L-size) windows; short sessions
// contribute nothing and are not an error. Tokens absent from the
// vocabulary map to UNK so cross-dataset windowing stays total. The output
// order is a hard contract: sessions in the given (ascending-identifier)
// order, windows within a session by ascending start index; the splitter
// relies on it.
func Slide(sessions []model.Session, v *vocab.Vocabulary, size int) ([]Window, error) {
	return SlideParallel(sessions, v, size, 1)
}

// SlideParallel windows sessions across a pool of workers. Each session is
// processed independently and results are merged by session position, never
// by completion order, so the output is identical to sequential Slide.
// Workers below 2 run sequentially.
func SlideParallel(sessions []model.Session, v *vocab.Vocabulary, size, workers int) ([]Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrWindowSize, size)
	}

	perSession := make([][]Window, len(sessions))
	if workers < 2 || len(sessions) < 2 {
		for i, s := range sessions {
			perSession[i] = slideSession(s, v, size)
		}
	} else {
		if workers > len(sessions) {
			workers = len(sessions)
		}
		jobs := make(chan int)
		done := make(chan struct{})
		for w := 0; w < workers; w++ {
			go func() {
				for i := range jobs {
					perSession[i] = slideSession(sessions[i], v, size)
				}
				done <- struct{}{}
			}()
		}
		for i := range sessions {
			jobs <- i
		}
		close(jobs)
		for w := 0; w < workers; w++ {
			<-done
		}
	}

	total := 0
	for _, ws := range perSession {
		total += len(ws)
	}
	out := make([]Window, 0, total)
	for _, ws := range perSession {
		out = append(out, ws...)
	}
	return out, nil
}

// slideSession emits the windows of a single session in ascending start
// index order.
func slideSession(s model.Session, v *vocab.Vocabulary, size int) []Window {
	if len(s.Tokens) <= size {
		return nil
	}
	mapped := make([]vocab.Token, len(s.Tokens))
	for i, tok := range s.Tokens {
		mapped[i] = v.Lookup(tok)
	}

	windows := make([]Window, 0, len(mapped)-size)
	for i := 0; i+size < len(mapped); i++ {
		ctx := make([]vocab.Token, size)
		copy(ctx, mapped[i:i+size])
		windows = append(windows, Window{Context: ctx, Target: mapped[i+size]})
	}
	return windows
}
