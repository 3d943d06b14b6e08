package punch

// Kind is the type of a punch. The set is closed: ParseKind rejects anything
// that is not one of the four constants below.
type Kind string

const (
	KindEntry      Kind = "entry"
	KindBreakStart Kind = "break_start"
	KindBreakEnd   Kind = "break_end"
	KindExit       Kind = "exit"
)

// Kinds lists every valid kind in daily cycle order.
var Kinds = []Kind{KindEntry, KindBreakStart, KindBreakEnd, KindExit}

// ParseKind validates a raw kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", &MalformedEventError{Field: "kind", Value: s, Reason: "not one of entry, break_start, break_end, exit"}
	}
	return k, nil
}

// Valid reports whether k is one of the four punch kinds.
func (k Kind) Valid() bool {
	return k.phase() >= 0
}

// phase is the position of k in the daily cycle, or -1 for an invalid kind.
// It breaks ties between punches captured at the same instant.
func (k Kind) phase() int {
	for i, kk := range Kinds {
		if kk == k {
			return i
		}
	}
	return -1
}

// Label returns a human-readable name for the kind.
func (k Kind) Label() string {
	switch k {
	case KindEntry:
		return "Entry"
	case KindBreakStart:
		return "Break start"
	case KindBreakEnd:
		return "Break end"
	case KindExit:
		return "Exit"
	default:
		return string(k)
	}
}

// Source describes how the location attached to a punch was obtained.
type Source string

const (
	SourceGPS      Source = "gps"
	SourceNetwork  Source = "network"
	SourceExternal Source = "external"
)

// ParseSource validates a raw source string.
func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case SourceGPS, SourceNetwork, SourceExternal:
		return src, nil
	default:
		return "", &MalformedEventError{Field: "source", Value: s, Reason: "not one of gps, network, external"}
	}
}
