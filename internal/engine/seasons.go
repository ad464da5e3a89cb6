// Seasonal production cycle — harvests swell in summer and thin out in
// winter. See design doc Section 7.
package engine

import "github.com/ashvale/tradewinds/internal/goods"

// Season indices.
const (
	SeasonSpring = iota
	SeasonSummer
	SeasonAutumn
	SeasonWinter
)

// seasonYield is the production multiplier per season, in fixed point.
var seasonYield = [4]goods.Amount{
	SeasonSpring: goods.Unit + goods.Unit/10,
	SeasonSummer: goods.Unit + goods.Unit/5,
	SeasonAutumn: goods.Unit,
	SeasonWinter: goods.Unit - 3*goods.Unit/10,
}

var seasonNames = [4]string{"Spring", "Summer", "Autumn", "Winter"}

// SeasonName returns the display name of a season index.
func SeasonName(season int) string {
	return seasonNames[season%4]
}

// SeasonOf returns the season index for a turn.
func SeasonOf(turn uint64) int {
	return int(turn/TurnsPerSeason) % 4
}

// SeasonYield returns the production multiplier for a turn's season.
func SeasonYield(turn uint64) goods.Amount {
	return seasonYield[SeasonOf(turn)]
}
