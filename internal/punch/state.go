package punch

// State is the phase of the daily punch cycle.
type State int

const (
	AwaitingEntry State = iota
	AwaitingBreakStart
	AwaitingBreakEnd
	AwaitingExit
)

// expects is the punch each state accepts.
var expects = [...]Kind{
	AwaitingEntry:      KindEntry,
	AwaitingBreakStart: KindBreakStart,
	AwaitingBreakEnd:   KindBreakEnd,
	AwaitingExit:       KindExit,
}

// transitions maps the kind of the last punch of the day to the state it
// leaves the day in. There are no skip transitions; an Exit starts a new cycle
// on the same day.
var transitions = map[Kind]State{
	KindEntry:      AwaitingBreakStart,
	KindBreakStart: AwaitingBreakEnd,
	KindBreakEnd:   AwaitingExit,
	KindExit:       AwaitingEntry,
}

// StateAfter returns the state the day is in after last. A nil last event
// means nothing has been punched today.
func StateAfter(last *PunchEvent) State {
	if last == nil {
		return AwaitingEntry
	}
	if s, ok := transitions[last.Kind]; ok {
		return s
	}
	return AwaitingEntry
}

// Expects returns the only punch kind legal in state s.
func (s State) Expects() Kind {
	if s < 0 || int(s) >= len(expects) {
		return KindEntry
	}
	return expects[s]
}

// NextAction returns the only legal next punch given the last punch of today.
// Callers pass nil when there is no punch today, including when the most
// recent punch belongs to an earlier day (see LastEventOn).
func NextAction(lastEventToday *PunchEvent) Kind {
	return StateAfter(lastEventToday).Expects()
}

func (s State) String() string {
	switch s {
	case AwaitingEntry:
		return "awaiting entry"
	case AwaitingBreakStart:
		return "awaiting break start"
	case AwaitingBreakEnd:
		return "awaiting break end"
	case AwaitingExit:
		return "awaiting exit"
	default:
		return "unknown"
	}
}
