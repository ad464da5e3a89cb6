// Site placement — assigns each scenario location a hex and derives its
// production fertility from the local climate.
// See design doc Section 3.3.
package world

import (
	"fmt"
	"math"
	"sort"

	"github.com/ashvale/tradewinds/internal/goods"
)

// Placement names a settlement the scenario wants on the map. Coastal
// settlements go on coast hexes, the rest on inland terrain.
type Placement struct {
	Name    string
	Coastal bool
}

// Site is a placed settlement.
type Site struct {
	Name      string       `json:"name"`
	Coord     HexCoord     `json:"coord"`
	Coastal   bool         `json:"coastal"`
	Fertility goods.Amount `json:"fertility"` // production multiplier, Unit = 1.0
}

// Atlas ties the generated map to the scenario's named settlements.
type Atlas struct {
	Map   *Map
	Sites map[string]*Site
}

// BuildAtlas generates a map and places every requested settlement on it.
// Placement is deterministic for a given seed.
func BuildAtlas(cfg GenConfig, placements []Placement) (*Atlas, error) {
	m := Generate(cfg)
	a := &Atlas{Map: m, Sites: make(map[string]*Site, len(placements))}

	coastal, inland := candidateHexes(m)
	if err := a.place(placements, coastal, inland); err != nil {
		return nil, err
	}
	return a, nil
}

// Distance returns the hex distance between two placed settlements.
func (a *Atlas) Distance(from, to string) (int, error) {
	sf, ok := a.Sites[from]
	if !ok {
		return 0, fmt.Errorf("no settlement named %q", from)
	}
	st, ok := a.Sites[to]
	if !ok {
		return 0, fmt.Errorf("no settlement named %q", to)
	}
	return Distance(sf.Coord, st.Coord), nil
}

// HasSeaRoute reports whether goods can move between two settlements by
// ship: both must sit on the coast.
func (a *Atlas) HasSeaRoute(from, to string) bool {
	sf, sok := a.Sites[from]
	st, tok := a.Sites[to]
	return sok && tok && sf.Coastal && st.Coastal
}

type scoredHex struct {
	coord HexCoord
	score float64
}

// candidateHexes scores every usable hex and splits the candidates into
// coastal and inland pools, best first.
func candidateHexes(m *Map) (coastal, inland []scoredHex) {
	for coord, hex := range m.Hexes {
		switch hex.Terrain {
		case TerrainOcean, TerrainMountain:
			continue
		}
		s := siteScore(m, coord, hex)
		if hex.Terrain == TerrainCoast {
			coastal = append(coastal, scoredHex{coord, s})
		} else {
			inland = append(inland, scoredHex{coord, s})
		}
	}
	byScore := func(c []scoredHex) {
		sort.Slice(c, func(i, j int) bool {
			if c[i].score != c[j].score {
				return c[i].score > c[j].score
			}
			// Deterministic order under equal scores.
			if c[i].coord.Q != c[j].coord.Q {
				return c[i].coord.Q < c[j].coord.Q
			}
			return c[i].coord.R < c[j].coord.R
		})
	}
	byScore(coastal)
	byScore(inland)
	return coastal, inland
}

// place assigns each settlement the best-scored free hex from its pool,
// keeping settlements spread out. The distance requirement relaxes when a
// crowded map leaves no qualifying hex.
func (a *Atlas) place(placements []Placement, coastal, inland []scoredHex) error {
	taken := make(map[HexCoord]bool)

	for _, p := range placements {
		pool := inland
		if p.Coastal {
			pool = coastal
		}

		var chosen *scoredHex
		for minDist := a.Map.Radius / 2; minDist >= 0 && chosen == nil; minDist /= 2 {
			for i, c := range pool {
				if taken[c.coord] || a.tooClose(c.coord, minDist) {
					continue
				}
				chosen = &pool[i]
				break
			}
			if minDist == 0 {
				break
			}
		}
		if chosen == nil {
			return fmt.Errorf("no hex left for settlement %q (coastal=%v)", p.Name, p.Coastal)
		}

		taken[chosen.coord] = true
		hex := a.Map.Get(chosen.coord)
		a.Sites[p.Name] = &Site{
			Name:      p.Name,
			Coord:     chosen.coord,
			Coastal:   p.Coastal,
			Fertility: fertility(hex),
		}
	}
	return nil
}

func (a *Atlas) tooClose(coord HexCoord, minDist int) bool {
	for _, s := range a.Sites {
		if Distance(coord, s.Coord) < minDist {
			return true
		}
	}
	return false
}

// siteScore evaluates how desirable a hex is for a settlement.
// Prefers fertile terrain, water access, and varied surroundings.
func siteScore(m *Map, coord HexCoord, hex *Hex) float64 {
	score := 0.0

	switch hex.Terrain {
	case TerrainPlains:
		score += 3.0
	case TerrainCoast:
		score += 4.0 // harbors are prime locations
	case TerrainRiver:
		score += 3.5
	case TerrainForest:
		score += 1.5
	case TerrainDesert:
		score += 0.5
	}

	// Varied surroundings support a varied economy.
	terrainTypes := make(map[Terrain]bool)
	for _, nc := range coord.Neighbors() {
		if nh := m.Get(nc); nh != nil && nh.Terrain != TerrainOcean {
			terrainTypes[nh.Terrain] = true
		}
	}
	score += float64(len(terrainTypes)) * 0.3

	for _, nc := range coord.Neighbors() {
		if nh := m.Get(nc); nh != nil && (nh.Terrain == TerrainRiver || nh.Terrain == TerrainCoast) {
			score += 0.5
			break
		}
	}

	return score
}

// fertility converts a hex's climate into a fixed-point production
// multiplier around 1.0. Rivers and well-watered plains outproduce
// deserts roughly three to one.
func fertility(hex *Hex) goods.Amount {
	base := 1.0
	switch hex.Terrain {
	case TerrainRiver:
		base = 1.3
	case TerrainPlains:
		base = 1.1
	case TerrainCoast:
		base = 1.0
	case TerrainForest:
		base = 0.9
	case TerrainDesert:
		base = 0.5
	}
	f := base * (0.75 + 0.5*hex.Rainfall)
	f = math.Min(2.0, math.Max(0.25, f))
	return goods.Amount(math.Round(f * float64(goods.Unit)))
}
