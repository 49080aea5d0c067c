package models

import (
	"testing"
	"time"
)

func TestGainXPLoops(t *testing.T) {
	a := NewActor("tester", "tester@example.com")

	// Level 1 needs 100, level 2 needs 400. 520 clears both with 20 left.
	if gained := a.GainXP(520); gained != 2 {
		t.Errorf("gained = %d, want 2", gained)
	}
	if a.Level != 3 {
		t.Errorf("level = %d, want 3", a.Level)
	}
	if a.XP != 20 {
		t.Errorf("remaining xp = %d, want 20", a.XP)
	}

	if gained := a.GainXP(10); gained != 0 {
		t.Errorf("below threshold gained = %d, want 0", gained)
	}
}

func TestConfined(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := NewActor("tester", "tester@example.com")

	if a.Confined(now) {
		t.Error("fresh actor should not be confined")
	}

	release := now.Add(30 * time.Minute)
	a.PrisonReleaseTime = &release
	if !a.Confined(now) {
		t.Error("actor with pending prison release should be confined")
	}
	if a.Confined(release.Add(time.Second)) {
		t.Error("actor past release time should not be confined")
	}

	a.PrisonReleaseTime = nil
	a.HospitalReleaseTime = &release
	if !a.Confined(now) {
		t.Error("actor with pending hospital release should be confined")
	}
}
