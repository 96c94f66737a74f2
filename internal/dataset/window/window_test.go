package window

import (
	"errors"
	"fmt"
	"testing"

	"github.com/crimson-sun/presage/internal/dataset/vocab"
	"github.com/crimson-sun/presage/internal/model"
)

func session(id string, tokens ...string) model.Session {
	return model.Session{ID: id, Tokens: tokens}
}

// contextStrings renders a window's context through the vocabulary for
// readable comparisons.
func contextStrings(v *vocab.Vocabulary, w Window) []string {
	out := make([]string, len(w.Context))
	for i, tok := range w.Context {
		out[i] = v.String(tok)
	}
	return out
}

func TestSlideConcreteExample(t *testing.T) {
	v := vocab.Build([]string{"A", "B", "C", "D", "E", "F"})
	sessions := []model.Session{session("s1", "A", "A", "B", "C", "D", "E", "F")}

	windows, err := Slide(sessions, v, 5)
	if err != nil {
		t.Fatalf("Slide: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}

	wantContexts := [][]string{
		{"A", "A", "B", "C", "D"},
		{"A", "B", "C", "D", "E"},
	}
	wantTargets := []string{"E", "F"}
	for i, w := range windows {
		got := contextStrings(v, w)
		for j, tok := range wantContexts[i] {
			if got[j] != tok {
				t.Fatalf("window %d context %d: expected %q, got %q", i, j, tok, got[j])
			}
		}
		if v.String(w.Target) != wantTargets[i] {
			t.Fatalf("window %d: expected target %q, got %q", i, wantTargets[i], v.String(w.Target))
		}
	}
}

func TestSlideWindowCount(t *testing.T) {
	v := vocab.Build([]string{"x"})
	cases := []struct {
		length, size, want int
	}{
		{0, 5, 0},
		{3, 5, 0},
		{5, 5, 0},
		{6, 5, 1},
		{25, 5, 20},
		{2, 1, 1},
	}
	for _, tc := range cases {
		tokens := make([]string, tc.length)
		for i := range tokens {
			tokens[i] = "x"
		}
		windows, err := Slide([]model.Session{session("s", tokens...)}, v, tc.size)
		if err != nil {
			t.Fatalf("Slide(L=%d, W=%d): %v", tc.length, tc.size, err)
		}
		if len(windows) != tc.want {
			t.Fatalf("L=%d W=%d: expected %d windows, got %d", tc.length, tc.size, tc.want, len(windows))
		}
	}
}

func TestSlideRejectsBadWindowSize(t *testing.T) {
	v := vocab.Build([]string{"x"})
	for _, size := range []int{0, -1} {
		if _, err := Slide(nil, v, size); !errors.Is(err, ErrWindowSize) {
			t.Fatalf("size %d: expected ErrWindowSize, got %v", size, err)
		}
	}
}

func TestSlideUnknownTokenMapsToUnk(t *testing.T) {
	v := vocab.Build([]string{"A", "B"})
	windows, err := Slide([]model.Session{session("s", "A", "mystery", "B")}, v, 1)
	if err != nil {
		t.Fatalf("Slide: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if windows[0].Target.Kind() != vocab.KindUnk {
		t.Fatalf("expected first target to be Unk, got kind %v", windows[0].Target.Kind())
	}
	if windows[1].Context[0].Kind() != vocab.KindUnk {
		t.Fatalf("expected second context token to be Unk, got kind %v", windows[1].Context[0].Kind())
	}
}

func TestSlideConcatenatesSessionsInOrder(t *testing.T) {
	v := vocab.Build([]string{"a", "b", "c"})
	sessions := []model.Session{
		session("s01", "a", "b", "c"),
		session("s02", "b", "c", "a"),
	}
	windows, err := Slide(sessions, v, 1)
	if err != nil {
		t.Fatalf("Slide: %v", err)
	}

	// First session's windows, then second session's, each in start-index order.
	wantTargets := []string{"b", "c", "c", "a"}
	if len(windows) != len(wantTargets) {
		t.Fatalf("expected %d windows, got %d", len(wantTargets), len(windows))
	}
	for i, want := range wantTargets {
		if got := v.String(windows[i].Target); got != want {
			t.Fatalf("window %d: expected target %q, got %q", i, want, got)
		}
	}
}

func TestSessionizeOrdersSessionsAndEvents(t *testing.T) {
	events := []model.Event{
		{SessionID: "s2", EntityID: "/x", Timestamp: 10},
		{SessionID: "s1", EntityID: "/late", Timestamp: 300},
		{SessionID: "s1", EntityID: "/early", Timestamp: 100},
		{SessionID: "s2", EntityID: "/y", Timestamp: 5},
	}
	sessions := Sessionize(events)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "s1" || sessions[1].ID != "s2" {
		t.Fatalf("expected session order s1, s2; got %s, %s", sessions[0].ID, sessions[1].ID)
	}
	if sessions[0].Tokens[0] != "/early" || sessions[0].Tokens[1] != "/late" {
		t.Fatalf("s1 not in timestamp order: %v", sessions[0].Tokens)
	}
	if sessions[1].Tokens[0] != "/y" || sessions[1].Tokens[1] != "/x" {
		t.Fatalf("s2 not in timestamp order: %v", sessions[1].Tokens)
	}
}

func TestSessionizeTiesKeepInputOrder(t *testing.T) {
	events := []model.Event{
		{SessionID: "s", EntityID: "/first", Timestamp: 42},
		{SessionID: "s", EntityID: "/second", Timestamp: 42},
		{SessionID: "s", EntityID: "/third", Timestamp: 42},
	}
	sessions := Sessionize(events)
	want := []string{"/first", "/second", "/third"}
	for i, tok := range want {
		if sessions[0].Tokens[i] != tok {
			t.Fatalf("tie-break not stable: expected %v, got %v", want, sessions[0].Tokens)
		}
	}
}

func TestSessionizeEmpty(t *testing.T) {
	if got := Sessionize(nil); len(got) != 0 {
		t.Fatalf("expected no sessions, got %d", len(got))
	}
}

func TestSlideParallelMatchesSequential(t *testing.T) {
	var ids []string
	for i := 0; i < 12; i++ {
		ids = append(ids, fmt.Sprintf("/route_%d", i))
	}
	v := vocab.Build(ids)

	var sessions []model.Session
	for s := 0; s < 40; s++ {
		tokens := make([]string, 3+s%20)
		for i := range tokens {
			tokens[i] = ids[(s+i)%len(ids)]
		}
		sessions = append(sessions, session(fmt.Sprintf("s%03d", s), tokens...))
	}

	sequential, err := Slide(sessions, v, 5)
	if err != nil {
		t.Fatalf("Slide: %v", err)
	}
	parallel, err := SlideParallel(sessions, v, 5, 8)
	if err != nil {
		t.Fatalf("SlideParallel: %v", err)
	}
	if len(sequential) != len(parallel) {
		t.Fatalf("window counts differ: %d vs %d", len(sequential), len(parallel))
	}
	for i := range sequential {
		if v.Index(sequential[i].Target) != v.Index(parallel[i].Target) {
			t.Fatalf("window %d targets differ", i)
		}
		for j := range sequential[i].Context {
			if v.Index(sequential[i].Context[j]) != v.Index(parallel[i].Context[j]) {
				t.Fatalf("window %d context %d differs", i, j)
			}
		}
	}
}
