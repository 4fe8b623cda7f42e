package toast

import (
	"testing"
	"time"
)

func newFrozenStore() (*Store, *time.Time) {
	s := NewStore()
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestPushAndActive(t *testing.T) {
	s, _ := newFrozenStore()

	pushed := s.Push("sid", KindSuccess, "予約が完了しました!")
	if pushed.ID == "" {
		t.Fatal("expected an id")
	}

	active := s.Active("sid")
	if len(active) != 1 {
		t.Fatalf("expected 1 toast, got %d", len(active))
	}
	if active[0].Message != "予約が完了しました!" || active[0].Kind != KindSuccess {
		t.Errorf("unexpected toast: %+v", active[0])
	}
}

func TestDuplicatesKeptSeparately(t *testing.T) {
	s, _ := newFrozenStore()

	first := s.Push("sid", KindInfo, "同じメッセージ")
	second := s.Push("sid", KindInfo, "同じメッセージ")
	if first.ID == second.ID {
		t.Fatal("expected distinct ids for duplicate messages")
	}
	if got := len(s.Active("sid")); got != 2 {
		t.Fatalf("expected 2 toasts, got %d", got)
	}
}

func TestExpiryPrunesOnRead(t *testing.T) {
	s, now := newFrozenStore()

	s.Push("sid", KindError, "キャンセルに失敗しました")
	*now = now.Add(DisplayDuration + time.Second)

	if got := s.Active("sid"); got != nil {
		t.Fatalf("expected expired toast to be pruned, got %+v", got)
	}
}

func TestDismissRemovesOnlyTarget(t *testing.T) {
	s, _ := newFrozenStore()

	keep := s.Push("sid", KindSuccess, "ログインしました")
	drop := s.Push("sid", KindInfo, "お知らせ")

	s.Dismiss("sid", drop.ID)

	active := s.Active("sid")
	if len(active) != 1 || active[0].ID != keep.ID {
		t.Fatalf("expected only %q to remain, got %+v", keep.ID, active)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s, _ := newFrozenStore()

	s.Push("one", KindSuccess, "A")
	s.Push("two", KindSuccess, "B")

	if got := len(s.Active("one")); got != 1 {
		t.Fatalf("expected 1 toast for session one, got %d", got)
	}
	s.Dismiss("one", s.Active("one")[0].ID)
	if got := len(s.Active("two")); got != 1 {
		t.Fatalf("expected session two untouched, got %d", got)
	}
}

func TestSweepDropsExpiredAcrossSessions(t *testing.T) {
	s, now := newFrozenStore()

	s.Push("idle", KindInfo, "古いお知らせ")
	*now = now.Add(DisplayDuration + time.Second)
	fresh := s.Push("busy", KindInfo, "新しいお知らせ")

	s.Sweep()

	s.mu.Lock()
	_, idleKept := s.active["idle"]
	busy := s.active["busy"]
	s.mu.Unlock()

	if idleKept {
		t.Error("expected idle session queue to be dropped")
	}
	if len(busy) != 1 || busy[0].ID != fresh.ID {
		t.Errorf("expected fresh toast to survive sweep, got %+v", busy)
	}
}
