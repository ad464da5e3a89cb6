package world

import (
	"testing"

	"github.com/ashvale/tradewinds/internal/goods"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b HexCoord
		want int
	}{
		{HexCoord{0, 0}, HexCoord{0, 0}, 0},
		{HexCoord{0, 0}, HexCoord{1, 0}, 1},
		{HexCoord{0, 0}, HexCoord{1, -1}, 1},
		{HexCoord{0, 0}, HexCoord{2, -1}, 2},
		{HexCoord{-2, 1}, HexCoord{3, -1}, 5},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Fatalf("Distance(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := GenConfig{Radius: 8, Seed: 7, SeaLevel: 0.25, MountainLvl: 0.72}
	m1 := Generate(cfg)
	m2 := Generate(cfg)

	if m1.HexCount() != m2.HexCount() {
		t.Fatalf("hex counts differ: %d vs %d", m1.HexCount(), m2.HexCount())
	}
	for coord, h1 := range m1.Hexes {
		h2 := m2.Get(coord)
		if h2 == nil || h1.Terrain != h2.Terrain || h1.Elevation != h2.Elevation {
			t.Fatalf("hex %v differs between runs", coord)
		}
	}
}

// River sources are gathered from a map, so their placement is only
// reproducible if generation orders them before the seeded shuffle. Save
// restore rebuilds the map from the scenario seed and depends on every
// regeneration matching, rivers included.
func TestGenerateRiversAreDeterministic(t *testing.T) {
	cfg := GenConfig{Radius: 16, Seed: 1712, SeaLevel: 0.25, MountainLvl: 0.72}
	first := Generate(cfg)

	for run := 0; run < 20; run++ {
		m := Generate(cfg)
		for coord, h1 := range first.Hexes {
			h2 := m.Get(coord)
			if h2 == nil {
				t.Fatalf("run %d: hex %v missing", run, coord)
			}
			if h1.Terrain != h2.Terrain {
				t.Fatalf("run %d: hex %v terrain %s, want %s",
					run, coord, TerrainName(h2.Terrain), TerrainName(h1.Terrain))
			}
		}
	}
}

func TestGenerateHasOceanBorder(t *testing.T) {
	cfg := GenConfig{Radius: 10, Seed: 3, SeaLevel: 0.25, MountainLvl: 0.72}
	m := Generate(cfg)

	counts := m.TerrainCounts()
	if counts[TerrainOcean] == 0 {
		t.Fatal("no ocean generated")
	}
	land := m.HexCount() - counts[TerrainOcean]
	if land == 0 {
		t.Fatal("no land generated")
	}
}

func TestFertilityFixedPoint(t *testing.T) {
	tests := []struct {
		name string
		hex  Hex
		want goods.Amount
	}{
		{"plains, average rain", Hex{Terrain: TerrainPlains, Rainfall: 0.5}, 1_100_000},
		{"coast, average rain", Hex{Terrain: TerrainCoast, Rainfall: 0.5}, goods.Unit},
		{"river, soaked", Hex{Terrain: TerrainRiver, Rainfall: 1.0}, 1_625_000},
		{"desert, bone dry", Hex{Terrain: TerrainDesert, Rainfall: 0.0}, 375_000},
		{"mountain, no rain", Hex{Terrain: TerrainMountain, Rainfall: 0.0}, 750_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fertility(&tt.hex); got != tt.want {
				t.Fatalf("fertility = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildAtlasPlacesEverySettlement(t *testing.T) {
	cfg := GenConfig{Radius: 12, Seed: 11, SeaLevel: 0.25, MountainLvl: 0.72}
	placements := []Placement{
		{Name: "saltmere", Coastal: true},
		{Name: "thornfield"},
		{Name: "dunharbor", Coastal: true},
	}

	a, err := BuildAtlas(cfg, placements)
	if err != nil {
		t.Fatalf("BuildAtlas: %v", err)
	}
	for _, p := range placements {
		site, ok := a.Sites[p.Name]
		if !ok {
			t.Fatalf("settlement %q not placed", p.Name)
		}
		hex := a.Map.Get(site.Coord)
		if hex == nil {
			t.Fatalf("settlement %q placed off-map", p.Name)
		}
		if p.Coastal && hex.Terrain != TerrainCoast {
			t.Fatalf("coastal settlement %q on %s", p.Name, TerrainName(hex.Terrain))
		}
		if site.Fertility < goods.Unit/4 || site.Fertility > 2*goods.Unit {
			t.Fatalf("settlement %q fertility %d outside [0.25, 2.0] units", p.Name, site.Fertility)
		}
	}

	if !a.HasSeaRoute("saltmere", "dunharbor") {
		t.Fatal("two coastal settlements should have a sea route")
	}
	if a.HasSeaRoute("saltmere", "thornfield") {
		t.Fatal("inland settlement should not have a sea route")
	}
	if d, err := a.Distance("saltmere", "thornfield"); err != nil || d <= 0 {
		t.Fatalf("Distance = %d, %v", d, err)
	}
	if _, err := a.Distance("saltmere", "atlantis"); err == nil {
		t.Fatal("distance to an unplaced settlement should fail")
	}
}

func TestBuildAtlasIsDeterministic(t *testing.T) {
	cfg := GenConfig{Radius: 12, Seed: 11, SeaLevel: 0.25, MountainLvl: 0.72}
	placements := []Placement{{Name: "a", Coastal: true}, {Name: "b"}}

	a1, err := BuildAtlas(cfg, placements)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := BuildAtlas(cfg, placements)
	if err != nil {
		t.Fatal(err)
	}
	for name, s1 := range a1.Sites {
		s2 := a2.Sites[name]
		if s2 == nil || s1.Coord != s2.Coord || s1.Fertility != s2.Fertility {
			t.Fatalf("placement of %q not deterministic", name)
		}
	}
}
