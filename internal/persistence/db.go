// Package persistence stores resort state: zstd-compressed JSON map
// snapshots, and full sessions in SQLite.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/ski-resort/internal/resort"
	"github.com/talgya/ski-resort/internal/world"
)

// Meta keys.
const (
	MetaWidth    = "width"
	MetaHeight   = "height"
	MetaMoney    = "money"
	MetaTick     = "last_tick"
	MetaSeed     = "seed"
	MetaEntrance = "entrance"
)

// DB wraps a SQLite connection for resort persistence.
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
	CREATE TABLE IF NOT EXISTS tiles (
		idx INTEGER PRIMARY KEY,
		x INTEGER NOT NULL,
		z INTEGER NOT NULL,
		height REAL NOT NULL,
		terrain INTEGER NOT NULL,
		structure INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS structures (
		seq INTEGER PRIMARY KEY,
		kind INTEGER NOT NULL,
		x INTEGER NOT NULL,
		z INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lifts (
		seq INTEGER PRIMARY KEY,
		start_x INTEGER NOT NULL,
		start_z INTEGER NOT NULL,
		end_x INTEGER NOT NULL,
		end_z INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type tileRow struct {
	Idx       int     `db:"idx"`
	X         int     `db:"x"`
	Z         int     `db:"z"`
	Height    float32 `db:"height"`
	Terrain   uint8   `db:"terrain"`
	Structure uint8   `db:"structure"`
}

type structureRow struct {
	Seq  int   `db:"seq"`
	Kind uint8 `db:"kind"`
	X    int   `db:"x"`
	Z    int   `db:"z"`
}

type liftRow struct {
	Seq    int `db:"seq"`
	StartX int `db:"start_x"`
	StartZ int `db:"start_z"`
	EndX   int `db:"end_x"`
	EndZ   int `db:"end_z"`
}

// SaveGrid writes every tile to the database (full replace).
func (db *DB) SaveGrid(g *world.Grid) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveGridTx(tx, g); err != nil {
		return err
	}
	return tx.Commit()
}

func saveGridTx(tx *sqlx.Tx, g *world.Grid) error {
	if _, err := tx.Exec("DELETE FROM tiles"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO tiles
		(idx, x, z, height, terrain, structure)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range g.Tiles() {
		c := g.CellAt(i)
		if _, err := stmt.Exec(i, c.X, c.Z, t.Height, uint8(t.Terrain), uint8(t.Structure)); err != nil {
			return fmt.Errorf("insert tile %v: %w", c, err)
		}
	}

	return upsertMeta(tx, map[string]string{
		MetaWidth:  strconv.Itoa(g.Width()),
		MetaHeight: strconv.Itoa(g.Height()),
	})
}

// LoadGrid rebuilds the saved grid.
func (db *DB) LoadGrid() (*world.Grid, error) {
	w, err := db.metaInt(MetaWidth)
	if err != nil {
		return nil, err
	}
	h, err := db.metaInt(MetaHeight)
	if err != nil {
		return nil, err
	}

	var rows []tileRow
	if err := db.conn.Select(&rows, "SELECT idx, x, z, height, terrain, structure FROM tiles ORDER BY idx"); err != nil {
		return nil, fmt.Errorf("load tiles: %w", err)
	}
	tiles := make([]world.Tile, len(rows))
	for i, r := range rows {
		if r.Idx != i {
			return nil, fmt.Errorf("load tiles: missing tile %d", i)
		}
		tiles[i] = world.Tile{
			Height:    r.Height,
			Terrain:   world.Terrain(r.Terrain),
			Structure: world.StructureKind(r.Structure),
		}
	}
	return world.LoadTiles(int(w), int(h), tiles)
}

// SaveSession writes the grid, structure registries, treasury, tick and
// recent events in one transaction.
func (db *DB) SaveSession(s *resort.Session) error {
	slog.Info("saving session",
		"tick", s.Tick(),
		"tiles", s.Grid.Len(),
		"lifts", len(s.Structures.Lifts()),
	)

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveGridTx(tx, s.Grid); err != nil {
		return fmt.Errorf("save grid: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM structures"); err != nil {
		return err
	}
	seq := 0
	for _, kind := range []world.StructureKind{world.StructureLodge, world.StructureParkingLot} {
		for _, c := range s.Structures.Positions(kind) {
			if _, err := tx.Exec("INSERT INTO structures (seq, kind, x, z) VALUES (?, ?, ?, ?)",
				seq, uint8(kind), c.X, c.Z); err != nil {
				return fmt.Errorf("insert %s at %v: %w", kind, c, err)
			}
			seq++
		}
	}

	if _, err := tx.Exec("DELETE FROM lifts"); err != nil {
		return err
	}
	for i, l := range s.Structures.Lifts() {
		if _, err := tx.Exec("INSERT INTO lifts (seq, start_x, start_z, end_x, end_z) VALUES (?, ?, ?, ?, ?)",
			i, l.Start.X, l.Start.Z, l.End.X, l.End.Z); err != nil {
			return fmt.Errorf("insert lift %d: %w", i, err)
		}
	}

	meta := map[string]string{
		MetaMoney: strconv.FormatInt(s.Economy.Money(), 10),
		MetaTick:  strconv.FormatUint(s.Tick(), 10),
		MetaSeed:  strconv.FormatInt(s.Options().Seed, 10),
	}
	if e := s.Options().Entrance; e != nil {
		meta[MetaEntrance] = fmt.Sprintf("%d,%d", e.X, e.Z)
	} else if _, err := tx.Exec("DELETE FROM world_meta WHERE key = ?", MetaEntrance); err != nil {
		return err
	}
	if err := upsertMeta(tx, meta); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM events"); err != nil {
		return err
	}
	for _, e := range s.Events {
		if _, err := tx.Exec("INSERT INTO events (tick, description, category) VALUES (?, ?, ?)",
			e.Tick, e.Description, e.Category); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("session saved")
	return nil
}

// LoadSession restores a saved session. Grid, registries, treasury, seed,
// entrance and tick come from the database; the rest of opts is kept.
// Guests are not saved; a restored resort starts empty.
func (db *DB) LoadSession(opts resort.Options) (*resort.Session, error) {
	g, err := db.LoadGrid()
	if err != nil {
		return nil, fmt.Errorf("load grid: %w", err)
	}

	money, err := db.metaInt(MetaMoney)
	if err != nil {
		return nil, err
	}
	opts.StartingMoney = money
	if seed, err := db.metaInt(MetaSeed); err == nil {
		opts.Seed = seed
	}
	if v, err := db.GetMeta(MetaEntrance); err == nil {
		var c world.Cell
		if _, err := fmt.Sscanf(v, "%d,%d", &c.X, &c.Z); err != nil {
			return nil, fmt.Errorf("meta %s=%q: %w", MetaEntrance, v, err)
		}
		opts.Entrance = &c
	}

	s, err := resort.FromGrid(g, opts)
	if err != nil {
		return nil, err
	}

	var structs []structureRow
	if err := db.conn.Select(&structs, "SELECT seq, kind, x, z FROM structures ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("load structures: %w", err)
	}
	for _, r := range structs {
		kind := world.StructureKind(r.Kind)
		if !s.Structures.Restore(world.Cell{X: r.X, Z: r.Z}, kind) {
			return nil, fmt.Errorf("restore %s at (%d,%d): rejected", kind, r.X, r.Z)
		}
	}

	var lifts []liftRow
	if err := db.conn.Select(&lifts, "SELECT seq, start_x, start_z, end_x, end_z FROM lifts ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("load lifts: %w", err)
	}
	for _, r := range lifts {
		l := world.Lift{Start: world.Cell{X: r.StartX, Z: r.StartZ}, End: world.Cell{X: r.EndX, Z: r.EndZ}}
		if !s.Structures.RestoreLift(l) {
			return nil, fmt.Errorf("restore lift %d: rejected", r.Seq)
		}
	}
	// Restores that found their tiles already marked fire no map event.
	s.Navigation.Invalidate()

	tick, err := db.metaInt(MetaTick)
	if err != nil {
		return nil, err
	}
	s.SetTick(uint64(tick))

	events, err := db.RecentEvents(1000)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	for i := len(events) - 1; i >= 0; i-- {
		s.Events = append(s.Events, events[i])
	}

	slog.Info("session restored",
		"tick", tick,
		"money", money,
		"structures", len(structs),
		"lifts", len(lifts),
	)
	return s, nil
}

// HasSession reports whether a session has been saved.
func (db *DB) HasSession() (bool, error) {
	_, err := db.GetMeta(MetaTick)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
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

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]resort.Event, error) {
	var events []resort.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

func (db *DB) metaInt(key string) (int64, error) {
	v, err := db.GetMeta(key)
	if err != nil {
		return 0, fmt.Errorf("meta %s: %w", key, err)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("meta %s=%q: %w", key, v, err)
	}
	return n, nil
}

func upsertMeta(tx *sqlx.Tx, kv map[string]string) error {
	for k, v := range kv {
		if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return err
		}
	}
	return nil
}
