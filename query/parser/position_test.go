package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocate(t *testing.T) {
	source := "banana AND\n  (pie OR\ncake)"

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{Line: 1, Character: 0, Offset: 0}},
		{7, Position{Line: 1, Character: 7, Offset: 7}},
		{11, Position{Line: 2, Character: 0, Offset: 11}},
		{13, Position{Line: 2, Character: 2, Offset: 13}},
		{len(source), Position{Line: 3, Character: 5, Offset: len(source)}},
		{len(source) + 10, Position{Line: 3, Character: 5, Offset: len(source)}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Locate(source, tt.offset))
	}
}

func TestLocateCountsRunes(t *testing.T) {
	source := "crème brûlée"
	pos := Locate(source, len("crème brû"))

	assert.Equal(t, 1, pos.Line)
	assert.Equal(t, 9, pos.Character)
	assert.Equal(t, len("crème brû"), pos.Offset)
}

func TestRangeOf(t *testing.T) {
	r := RangeOf("a\nbc", 2, 4)

	assert.Equal(t, Position{Line: 2, Character: 0, Offset: 2}, r.Start)
	assert.Equal(t, Position{Line: 2, Character: 2, Offset: 4}, r.End)
}

func TestPositionTrackerNeverMovesBack(t *testing.T) {
	pt := NewPositionTracker("abc")
	pt.AdvanceTo(2)
	pt.AdvanceTo(1)

	assert.Equal(t, Position{Line: 1, Character: 2, Offset: 2}, pt.CurrentPosition())
}
