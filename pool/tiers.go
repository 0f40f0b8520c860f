package pool

// TierCount: в каждой связке ровно по одной команде из каждого яруса посева.
const TierCount = 4

// tierBounds holds the inclusive seed ranges of the four tiers:
// [1-3], [4-6], [7-10], [11-16].
var tierBounds = [TierCount][2]int{
	{1, 3},
	{4, 6},
	{7, 10},
	{11, 16},
}

// TierOf returns the tier index (0..3) for a seed, or -1 if the seed
// falls outside 1..16.
func TierOf(seed int) int {
	for i, bounds := range tierBounds {
		if seed >= bounds[0] && seed <= bounds[1] {
			return i
		}
	}
	return -1
}
