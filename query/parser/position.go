package parser

// Position represents a line/column position in source text
// Uses LSP conventions: 1-based line numbers, 0-based character offsets
type Position struct {
	Line      int `json:"line" yaml:"line"`           // 1-based line number
	Character int `json:"character" yaml:"character"` // 0-based character offset within line
	Offset    int `json:"offset" yaml:"offset"`       // 0-based byte offset in entire source
}

// Range represents a source span from start to end position
type Range struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// PositionTracker maintains line/column/offset state while walking a query
type PositionTracker struct {
	source    string
	line      int // 1-based
	character int // 0-based within line
	offset    int // 0-based in source
}

// NewPositionTracker creates a tracker starting at beginning of source
func NewPositionTracker(source string) *PositionTracker {
	return &PositionTracker{
		source: source,
		line:   1,
	}
}

// AdvanceTo moves forward to byte offset, counting newlines and runes on
// the way. Offsets behind the tracker or past the source are clamped.
func (pt *PositionTracker) AdvanceTo(offset int) {
	offset = min(offset, len(pt.source))
	for _, ch := range pt.source[min(pt.offset, offset):offset] {
		if ch == '\n' {
			pt.line++
			pt.character = 0
		} else {
			pt.character++
		}
	}
	pt.offset = max(pt.offset, offset)
}

// CurrentPosition returns the current position snapshot
func (pt *PositionTracker) CurrentPosition() Position {
	return Position{
		Line:      pt.line,
		Character: pt.character,
		Offset:    pt.offset,
	}
}

// Locate converts a byte offset in source to a Position.
func Locate(source string, offset int) Position {
	pt := NewPositionTracker(source)
	pt.AdvanceTo(offset)
	return pt.CurrentPosition()
}

// RangeOf converts a half-open byte span in source to a Range.
func RangeOf(source string, start, end int) Range {
	pt := NewPositionTracker(source)
	pt.AdvanceTo(start)
	from := pt.CurrentPosition()
	pt.AdvanceTo(end)
	return Range{Start: from, End: pt.CurrentPosition()}
}
