// Package persistence provides SQLite-based world state storage: market
// snapshots, population rolls, caravans underway, and world metadata.
// See design doc Section 8.3.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ashvale/tradewinds/internal/engine"
	"github.com/ashvale/tradewinds/internal/goods"
	"github.com/ashvale/tradewinds/internal/market"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS markets (
		location TEXT PRIMARY KEY,
		state_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS populations (
		settlement TEXT NOT NULL,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		fed_streak INTEGER NOT NULL,
		starving INTEGER NOT NULL,
		holdings_json TEXT NOT NULL,
		PRIMARY KEY (settlement, name)
	);

	CREATE TABLE IF NOT EXISTS shipments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		good TEXT NOT NULL,
		amount INTEGER NOT NULL,
		src TEXT NOT NULL,
		dst TEXT NOT NULL,
		arrives_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shipments_arrival ON shipments(arrives_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMarkets snapshots every settlement's market (full replace).
func (db *DB) SaveMarkets(settlements []*engine.Settlement) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM markets"); err != nil {
		return err
	}

	for _, st := range settlements {
		stateJSON, err := json.Marshal(st.Market.Snapshot())
		if err != nil {
			return fmt.Errorf("marshal market %q: %w", st.Name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO markets (location, state_json) VALUES (?, ?)",
			st.Name, string(stateJSON),
		); err != nil {
			return fmt.Errorf("insert market %q: %w", st.Name, err)
		}
	}

	return tx.Commit()
}

// SavePopulations writes the mutable population state (full replace).
func (db *DB) SavePopulations(settlements []*engine.Settlement) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM populations"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO populations
		(settlement, name, size, fed_streak, starving, holdings_json)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range settlements {
		for _, pop := range st.Populations {
			holdingsJSON, err := json.Marshal(*pop.Holdings)
			if err != nil {
				return fmt.Errorf("marshal holdings of %q: %w", pop.Name, err)
			}
			if _, err := stmt.Exec(
				st.Name, pop.Name, pop.Size, pop.FedStreak, pop.Starving,
				string(holdingsJSON),
			); err != nil {
				return fmt.Errorf("insert population %q/%q: %w", st.Name, pop.Name, err)
			}
		}
	}

	return tx.Commit()
}

// SaveShipments writes the caravans underway (full replace).
func (db *DB) SaveShipments(shipments []*engine.Shipment) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM shipments"); err != nil {
		return err
	}

	for _, sh := range shipments {
		if _, err := tx.Exec(
			"INSERT INTO shipments (good, amount, src, dst, arrives_at) VALUES (?, ?, ?, ?, ?)",
			sh.Good, sh.Amount, sh.From, sh.To, sh.ArrivesAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// WorldID returns the stable identifier of the stored world, minting one
// on first save.
func (db *DB) WorldID() (string, error) {
	id, err := db.GetMeta("world_id")
	if err == nil {
		return id, nil
	}
	id = uuid.NewString()
	if err := db.SaveMeta("world_id", id); err != nil {
		return "", err
	}
	return id, nil
}

// SaveWorldState performs a full save of all world state.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	slog.Info("saving world state",
		"settlements", len(sim.Settlements),
		"turn", sim.CurrentTurn(),
	)

	if err := db.SaveMarkets(sim.Settlements); err != nil {
		return fmt.Errorf("save markets: %w", err)
	}
	if err := db.SavePopulations(sim.Settlements); err != nil {
		return fmt.Errorf("save populations: %w", err)
	}
	if err := db.SaveShipments(sim.Shipments); err != nil {
		return fmt.Errorf("save shipments: %w", err)
	}
	traderJSON, err := json.Marshal(*sim.Trader)
	if err != nil {
		return fmt.Errorf("marshal trader purse: %w", err)
	}
	if err := db.SaveMeta("trader", string(traderJSON)); err != nil {
		return fmt.Errorf("save trader purse: %w", err)
	}
	if err := db.SaveMeta("last_turn", strconv.FormatUint(sim.CurrentTurn(), 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if _, err := db.WorldID(); err != nil {
		return fmt.Errorf("world id: %w", err)
	}

	slog.Info("world state saved")
	return nil
}

// LoadWorldState restores saved state into a simulation freshly built
// from the same scenario. Markets, population rolls, caravans, and the
// turn counter come from the database; everything structural (the map,
// the needs, the catalogue) is rebuilt from the scenario.
func (db *DB) LoadWorldState(sim *engine.Simulation) error {
	type marketRow struct {
		Location  string `db:"location"`
		StateJSON string `db:"state_json"`
	}
	var mrows []marketRow
	if err := db.conn.Select(&mrows, "SELECT location, state_json FROM markets"); err != nil {
		return fmt.Errorf("load markets: %w", err)
	}
	for _, row := range mrows {
		st := sim.Settlement(row.Location)
		if st == nil {
			return fmt.Errorf("saved market %q has no settlement in this scenario", row.Location)
		}
		var state market.State
		if err := json.Unmarshal([]byte(row.StateJSON), &state); err != nil {
			return fmt.Errorf("unmarshal market %q: %w", row.Location, err)
		}
		st.Market = market.Restore(sim.Registry, state)
	}

	type popRow struct {
		Settlement   string `db:"settlement"`
		Name         string `db:"name"`
		Size         int    `db:"size"`
		FedStreak    int    `db:"fed_streak"`
		Starving     int    `db:"starving"`
		HoldingsJSON string `db:"holdings_json"`
	}
	var prows []popRow
	if err := db.conn.Select(&prows, "SELECT settlement, name, size, fed_streak, starving, holdings_json FROM populations"); err != nil {
		return fmt.Errorf("load populations: %w", err)
	}
	for _, row := range prows {
		st := sim.Settlement(row.Settlement)
		if st == nil {
			return fmt.Errorf("saved population at %q has no settlement in this scenario", row.Settlement)
		}
		var pop *engine.Population
		for _, p := range st.Populations {
			if p.Name == row.Name {
				pop = p
				break
			}
		}
		if pop == nil {
			return fmt.Errorf("saved population %q/%q not in this scenario", row.Settlement, row.Name)
		}
		holdings := goods.NewContainer()
		if err := json.Unmarshal([]byte(row.HoldingsJSON), &holdings); err != nil {
			return fmt.Errorf("unmarshal holdings of %q: %w", row.Name, err)
		}
		pop.Size = row.Size
		pop.FedStreak = row.FedStreak
		pop.Starving = row.Starving
		*pop.Holdings = holdings
	}

	type shipRow struct {
		Good      string `db:"good"`
		Amount    int64  `db:"amount"`
		Src       string `db:"src"`
		Dst       string `db:"dst"`
		ArrivesAt uint64 `db:"arrives_at"`
	}
	var srows []shipRow
	if err := db.conn.Select(&srows, "SELECT good, amount, src, dst, arrives_at FROM shipments ORDER BY id"); err != nil {
		return fmt.Errorf("load shipments: %w", err)
	}
	sim.Shipments = sim.Shipments[:0]
	for _, row := range srows {
		sim.Shipments = append(sim.Shipments, &engine.Shipment{
			Good:      row.Good,
			Amount:    goods.Amount(row.Amount),
			From:      row.Src,
			To:        row.Dst,
			ArrivesAt: row.ArrivesAt,
		})
	}

	if raw, err := db.GetMeta("trader"); err == nil {
		trader := goods.NewContainer()
		if err := json.Unmarshal([]byte(raw), &trader); err != nil {
			return fmt.Errorf("unmarshal trader purse: %w", err)
		}
		*sim.Trader = trader
	}

	raw, err := db.GetMeta("last_turn")
	if err != nil {
		return fmt.Errorf("load meta: %w", err)
	}
	turn, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("parse last_turn %q: %w", raw, err)
	}
	sim.LastTurn = turn

	slog.Info("world state restored", "turn", turn, "settlements", len(mrows))
	return nil
}

// HasWorld reports whether the database contains a saved world.
func (db *DB) HasWorld() (bool, error) {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM markets"); err != nil {
		return false, err
	}
	return n > 0, nil
}
