package bots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"neutral text scores zero", "Quarterly report published today", 0},
		{"positive headline", "Shares surge after earnings beat", 1},
		{"negative headline", "Stock tumbles on lawsuit and probe", -1},
		{"mixed headline", "Record profit as shares beat estimates but concern lingers", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreText(tt.text), 0.001)
		})
	}
}

func TestScoreTextStaysInRange(t *testing.T) {
	// Pile on positive words: the ratio construction keeps it bounded
	s := scoreText("beats surges jumps rises gains rallies soars upgrade strong record")
	assert.GreaterOrEqual(t, s, -1.0)
	assert.LessOrEqual(t, s, 1.0)
}

func TestDetectCatalyst(t *testing.T) {
	phrase, direction := detectCatalyst("Company wins FDA approval for new treatment")
	assert.Equal(t, "fda approval", phrase)
	assert.Equal(t, 1.0, direction)

	phrase, direction = detectCatalyst("SEC investigation widens into accounting")
	assert.Equal(t, "sec investigation", phrase)
	assert.Equal(t, -1.0, direction)

	phrase, direction = detectCatalyst("Shares traded sideways this week")
	assert.Equal(t, "", phrase)
	assert.Equal(t, 0.0, direction)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Fda Approval", titleCase("fda approval"))
	assert.Equal(t, "Earnings Beat", titleCase("earnings beat"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 80))
	assert.Len(t, truncate("a very long headline that keeps going and going and going and going and going on", 80), 80)
}

func TestCapFactors(t *testing.T) {
	factors := []string{"a", "b", "c", "d"}
	assert.Len(t, capFactors(factors, 3), 3)
	assert.Len(t, capFactors(factors[:2], 3), 2)
}
