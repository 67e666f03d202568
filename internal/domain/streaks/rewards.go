package streaks

// fallbackReward covers an out-of-range reward index so a claim never fails
// on table shape.
const fallbackReward = 25

// rewardCycleDays is the length of the repeating reward cycle.
const rewardCycleDays = 7

// RewardTable maps streak day (1-based, cyclic) to an XP reward. Index 6,
// day 7, is the weekly jackpot.
type RewardTable []int

// DefaultRewardTable returns the standard 7-day reward cycle.
func DefaultRewardTable() RewardTable {
	return RewardTable{25, 50, 75, 100, 150, 200, 500}
}

// ForStreak returns the cyclic streak day and reward for a streak length.
// Claim number 1, 8, 15, ... all land on day 1.
func (t RewardTable) ForStreak(streak int) (day, reward int) {
	day = ((streak - 1) % rewardCycleDays) + 1
	if day < 1 || day > len(t) {
		return day, fallbackReward
	}
	return day, t[day-1]
}
