package plugin

import (
	"testing"
	"time"
)

func TestWatchdogQuarantinesAfterStreak(t *testing.T) {
	var quarantinedStreak uint32
	w := New(WithTimeoutStreak(3), WithOnQuarantine(func(streak uint32) { quarantinedStreak = streak }))
	now := time.Now()

	w.Record(false, now)
	w.Record(false, now)
	if w.IsQuarantined(now) {
		t.Fatal("quarantined before reaching streak threshold")
	}
	w.Record(false, now)
	if !w.IsQuarantined(now) {
		t.Fatal("not quarantined after reaching streak threshold")
	}
	if quarantinedStreak != 3 {
		t.Errorf("onQuarantine callback streak = %d, want 3", quarantinedStreak)
	}
}

func TestWatchdogStreakResetsOnSuccess(t *testing.T) {
	w := New(WithTimeoutStreak(3))
	now := time.Now()
	w.Record(false, now)
	w.Record(false, now)
	w.Record(true, now)
	if w.Streak() != 0 {
		t.Errorf("Streak() = %d, want 0 after success", w.Streak())
	}
}

func TestWatchdogQuarantineExpires(t *testing.T) {
	w := New(WithTimeoutStreak(1), WithQuarantineDuration(time.Second))
	now := time.Now()
	w.Record(false, now)
	if !w.IsQuarantined(now) {
		t.Fatal("expected quarantine to engage immediately")
	}
	later := now.Add(2 * time.Second)
	if w.IsQuarantined(later) {
		t.Error("quarantine should have expired")
	}
}

func TestWatchdogManualRelease(t *testing.T) {
	w := New(WithTimeoutStreak(1))
	now := time.Now()
	w.Record(false, now)
	if !w.IsQuarantined(now) {
		t.Fatal("expected quarantine to engage")
	}
	w.Release()
	if w.IsQuarantined(now) {
		t.Error("quarantine should be cleared after manual release")
	}
}
