package availability

import (
	"testing"
	"time"
)

func TestDaySlots_Template(t *testing.T) {
	slots := DaySlots(time.Date(2025, 12, 24, 0, 0, 0, 0, Location()))
	want := []string{
		"08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00", "12:30",
		"15:00", "15:30", "16:00", "16:30", "17:00", "17:30", "18:00", "18:30",
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %v", len(want), len(slots), slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("slot %d: got %s, want %s", i, slots[i], want[i])
		}
	}
}

func TestDaySlots_OrderedAndUnique(t *testing.T) {
	slots := DaySlots(time.Now())
	seen := map[string]bool{}
	for i, s := range slots {
		if seen[s] {
			t.Fatalf("duplicate slot %s", s)
		}
		seen[s] = true
		if i > 0 && slots[i-1] >= s {
			t.Fatalf("slots not ascending at %d: %s >= %s", i, slots[i-1], s)
		}
	}
	for _, excluded := range []string{"08:00", "13:00", "13:30", "14:30", "19:00"} {
		if seen[excluded] {
			t.Fatalf("%s must not be a slot", excluded)
		}
	}
}

func TestGenerate_HourCarryAndExclusiveEnd(t *testing.T) {
	got := Generate([]Window{{Start: 9*time.Hour + 45*time.Minute, End: 10*time.Hour + 50*time.Minute}}, 30*time.Minute)
	want := []string{"09:45", "10:15"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
	if Generate(BusinessHours, 0) != nil {
		t.Fatal("zero step must yield no slots")
	}
}

func TestFree(t *testing.T) {
	all := []string{"08:30", "09:00", "09:30"}
	free := Free(all, map[string]struct{}{"09:00": {}})
	if len(free) != 2 || free[0] != "08:30" || free[1] != "09:30" {
		t.Fatalf("unexpected free slots %v", free)
	}
}

func TestIsSlotAndParsing(t *testing.T) {
	if !IsSlot("12:30") || IsSlot("12:45") || IsSlot("9:00") {
		t.Fatal("IsSlot mismatch")
	}
	loc := Location()
	if _, err := ParseDate("2025-02-30", loc); err == nil {
		t.Fatal("expected error for impossible date")
	}
	start, err := SlotStart("2025-12-24", "09:00", loc)
	if err != nil {
		t.Fatalf("SlotStart failed: %v", err)
	}
	if start.Hour() != 9 || start.Location().String() != Timezone {
		t.Fatalf("unexpected start %s", start)
	}
}
