// Population dynamics — well-fed groups grow, starving groups shrink.
// See design doc Section 9.
package engine

import "log/slog"

// Thresholds for demographic change, in turns.
const (
	growthStreak    = 2 * TurnsPerWeek // well-fed this long → growth
	starvationLimit = 3                // unfed this long → attrition
)

func (p *Population) recordMeal(fed bool) {
	if fed {
		p.FedStreak++
		p.Starving = 0
	} else {
		p.Starving++
		p.FedStreak = 0
	}
}

// processPopulations applies growth and attrition after the day's meals.
func (s *Simulation) processPopulations(turn uint64) {
	for _, st := range s.Settlements {
		for _, pop := range st.Populations {
			if pop.Need == nil || pop.Size <= 0 {
				continue
			}

			if pop.FedStreak >= growthStreak {
				born := max(1, pop.Size/20)
				pop.Size += born
				pop.FedStreak = 0
				slog.Info("population grows",
					"turn", turn,
					"settlement", st.Name,
					"group", pop.Name,
					"born", born,
					"size", pop.Size,
				)
			}

			if pop.Starving >= starvationLimit {
				lost := max(1, pop.Size/10)
				pop.Size -= lost
				if pop.Size < 0 {
					pop.Size = 0
				}
				slog.Warn("population starves",
					"turn", turn,
					"settlement", st.Name,
					"group", pop.Name,
					"lost", lost,
					"size", pop.Size,
				)
				if pop.Size == 0 {
					slog.Warn("population wiped out",
						"turn", turn,
						"settlement", st.Name,
						"group", pop.Name,
					)
				}
			}
		}
	}
}
