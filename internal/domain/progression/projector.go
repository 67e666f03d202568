package progression

// XpPerLevel is the XP cost of each level.
const XpPerLevel = 1000

// DefaultTitle is the title every profile starts with.
const DefaultTitle = "Novice"

// LevelForXp derives the level tier from cumulative XP.
func LevelForXp(xp int) int {
	return xp/XpPerLevel + 1
}

// TitleTier maps a minimum level to a title.
type TitleTier struct {
	MinLevel int
	Title    string
}

// TitleTable resolves a level to a title. Tiers must be sorted by
// descending MinLevel; the first tier at or below the level wins.
type TitleTable []TitleTier

// DefaultTitleTable returns the product's standard title ladder.
func DefaultTitleTable() TitleTable {
	return TitleTable{
		{MinLevel: 50, Title: "Legendary Architect"},
		{MinLevel: 30, Title: "Master Developer"},
		{MinLevel: 20, Title: "Senior Engineer"},
		{MinLevel: 10, Title: "Stack Specialist"},
		{MinLevel: 5, Title: "Tool Explorer"},
		{MinLevel: 2, Title: "Apprentice Coder"},
	}
}

// TitleForLevel returns the title earned at a level, or current when no
// tier applies. Titles never regress through this path because xp is
// monotonically non-decreasing.
func (t TitleTable) TitleForLevel(level int, current string) string {
	for _, tier := range t {
		if level >= tier.MinLevel {
			return tier.Title
		}
	}
	return current
}
