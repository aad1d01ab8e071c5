package changeset

import (
	"testing"
	"time"
)

type sample struct {
	Name     string
	Target   float64
	MaxDay   *float64
	StartAt  time.Time
	Flag     bool
	internal int
}

func floatPtr(v float64) *float64 { return &v }

func TestSnapshotFlattensAndRounds(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	snap := Snapshot(sample{
		Name:    "move",
		Target:  100.004999,
		MaxDay:  floatPtr(30.006),
		StartAt: at,
	})

	if snap["Target"] != 100.0 {
		t.Fatalf("Target = %v, want rounded 100", snap["Target"])
	}
	if snap["MaxDay"] != 30.01 {
		t.Fatalf("MaxDay = %v, want flattened and rounded 30.01", snap["MaxDay"])
	}
	if snap["StartAt"] != at {
		t.Fatalf("StartAt = %v, want %v", snap["StartAt"], at)
	}
	if _, ok := snap["internal"]; ok {
		t.Fatal("unexported field should not be captured")
	}
}

func TestSnapshotNilPointer(t *testing.T) {
	t.Parallel()

	snap := Snapshot(sample{Name: "x"})
	if snap["MaxDay"] != nil {
		t.Fatalf("MaxDay = %v, want nil", snap["MaxDay"])
	}
}

func TestTrackReportsOnlyDifferingFields(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	before := sample{Name: "move", Target: 100, MaxDay: floatPtr(30), StartAt: at}
	after := before
	after.Target = 150
	after.MaxDay = nil

	changes := Track(before, after)
	if len(changes) != 2 {
		t.Fatalf("changes = %v, want exactly Target and MaxDay", changes)
	}

	target, ok := changes["Target"]
	if !ok || target.Old != 100.0 || target.New != 150.0 {
		t.Fatalf("Target change = %+v", target)
	}
	maxDay, ok := changes["MaxDay"]
	if !ok || maxDay.Old != 30.0 || maxDay.New != nil {
		t.Fatalf("MaxDay change = %+v", maxDay)
	}
}

func TestTrackIgnoresSubCentFloatNoise(t *testing.T) {
	t.Parallel()

	before := sample{Target: 100.001}
	after := sample{Target: 100.0049}

	if changes := Track(before, after); len(changes) != 0 {
		t.Fatalf("changes = %v, want none", changes)
	}
}

func TestTrackNormalizesTimezones(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, loc)

	before := sample{StartAt: at}
	after := sample{StartAt: at.UTC()}

	if changes := Track(before, after); len(changes) != 0 {
		t.Fatalf("changes = %v, want none", changes)
	}
}

func TestChangesHelpers(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	later := at.AddDate(0, 0, 3)
	changes := Changes{
		"Name":    {Old: "a", New: "b"},
		"StartAt": {Old: at, New: later},
		"Flag":    {Old: false, New: true},
	}

	if !changes.Has("Name") || changes.Has("Target") {
		t.Fatal("Has misreported fields")
	}
	if !changes.Any("Target", "StartAt") || changes.Any("Target", "MaxDay") {
		t.Fatal("Any misreported fields")
	}

	trimmed := changes.Without("Name")
	if trimmed.Has("Name") || !changes.Has("Name") {
		t.Fatal("Without must not mutate the receiver")
	}

	oldAt, ok := changes.OldTime("StartAt")
	if !ok || !oldAt.Equal(at) {
		t.Fatalf("OldTime = %v, %v", oldAt, ok)
	}
	newAt, ok := changes.NewTime("StartAt")
	if !ok || !newAt.Equal(later) {
		t.Fatalf("NewTime = %v, %v", newAt, ok)
	}
	flag, ok := changes.NewBool("Flag")
	if !ok || !flag {
		t.Fatalf("NewBool = %v, %v", flag, ok)
	}
}
