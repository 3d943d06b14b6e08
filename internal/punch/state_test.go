package punch

import "testing"

func TestNextAction(t *testing.T) {
	tests := []struct {
		name string
		last *PunchEvent
		want Kind
	}{
		{"nothing punched today expects entry", nil, KindEntry},
		{"after entry expects break start", &PunchEvent{Kind: KindEntry}, KindBreakStart},
		{"after break start expects break end", &PunchEvent{Kind: KindBreakStart}, KindBreakEnd},
		{"after break end expects exit", &PunchEvent{Kind: KindBreakEnd}, KindExit},
		{"after exit a new cycle starts", &PunchEvent{Kind: KindExit}, KindEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextAction(tt.last); got != tt.want {
				t.Errorf("NextAction() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextAction_IgnoresEarlierDays(t *testing.T) {
	events := []PunchEvent{
		ev("a", KindEntry, "2024-03-03T08:00:00-03:00"),
		ev("b", KindBreakStart, "2024-03-03T12:00:00-03:00"),
	}
	today := LocalDateAt(mustParse("2024-03-04T07:00:00-03:00"), -180)
	if got := NextAction(LastEventOn(events, today)); got != KindEntry {
		t.Errorf("NextAction = %s, want entry when the last punch was yesterday", got)
	}
}

func TestStateAfter(t *testing.T) {
	tests := []struct {
		kind Kind
		want State
	}{
		{KindEntry, AwaitingBreakStart},
		{KindBreakStart, AwaitingBreakEnd},
		{KindBreakEnd, AwaitingExit},
		{KindExit, AwaitingEntry},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := StateAfter(&PunchEvent{Kind: tt.kind})
			if got != tt.want {
				t.Errorf("StateAfter(%s) = %s, want %s", tt.kind, got, tt.want)
			}
		})
	}
	if got := State(42).Expects(); got != KindEntry {
		t.Errorf("State(42).Expects() = %s, want entry", got)
	}
}
