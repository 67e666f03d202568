package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXp(t *testing.T) {
	assert.Equal(t, 1, LevelForXp(0))
	assert.Equal(t, 1, LevelForXp(999))
	assert.Equal(t, 2, LevelForXp(1000))
	assert.Equal(t, 2, LevelForXp(1999))
	assert.Equal(t, 3, LevelForXp(2000))
	assert.Equal(t, 11, LevelForXp(10500))
	assert.Equal(t, 51, LevelForXp(50000))
}

func TestTitleForLevel(t *testing.T) {
	table := DefaultTitleTable()

	cases := []struct {
		level int
		want  string
	}{
		{1, DefaultTitle},
		{2, "Apprentice Coder"},
		{4, "Apprentice Coder"},
		{5, "Tool Explorer"},
		{9, "Tool Explorer"},
		{10, "Stack Specialist"},
		{20, "Senior Engineer"},
		{30, "Master Developer"},
		{49, "Master Developer"},
		{50, "Legendary Architect"},
		{120, "Legendary Architect"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, table.TitleForLevel(tc.level, DefaultTitle), "level %d", tc.level)
	}
}

func TestTitleForLevelKeepsCurrentBelowFirstTier(t *testing.T) {
	table := DefaultTitleTable()
	assert.Equal(t, "Custom Title", table.TitleForLevel(1, "Custom Title"))
}
