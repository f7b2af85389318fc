package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrInvalidBay is returned when a bay number is outside 1..NumBays.
var ErrInvalidBay = errors.New("invalid bay")

// Open opens the SQLite database at path for the monitor loop.
// The pool is capped at one connection: the loop is its only user.
func Open(path string) (*sql.DB, error) {
	return open(path, false)
}

// OpenReadOnly opens the SQLite database at path for the dashboard.
func OpenReadOnly(path string) (*sql.DB, error) {
	return open(path, true)
}

func open(path string, readOnly bool) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("open database: path is empty")
	}

	dsn := path
	if path != MemoryPath {
		params := []string{"_pragma=busy_timeout(5000)"}
		if readOnly {
			params = append(params, "mode=ro")
		} else {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
		dsn = "file:" + path + "?" + strings.Join(params, "&")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}
	return db, nil
}

// Store provides SQLite-backed persistence for the bay monitor.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store bound to an existing database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) timestamp() (time.Time, string) {
	t := s.now().UTC()
	return t, t.Format(time.RFC3339Nano)
}

func checkBay(bay int) error {
	if bay < 1 || bay > NumBays {
		return fmt.Errorf("%w: %d", ErrInvalidBay, bay)
	}
	return nil
}

// ResetLiveStatus marks every bay idle with zero runtime. Called at startup,
// since nothing is running before the first poll.
func (s *Store) ResetLiveStatus() error {
	_, now := s.timestamp()
	_, err := s.db.Exec(`UPDATE bay_status
		SET timer_running = 0, pump_running = 0, timer_runtime = 0, pump_runtime = 0, updated_at = ?`, now)
	if err != nil {
		return fmt.Errorf("reset live status: %w", err)
	}
	return nil
}

// UpsertLiveStatus sets a bay's running flags.
func (s *Store) UpsertLiveStatus(bay int, timerRunning, pumpRunning bool) error {
	if err := checkBay(bay); err != nil {
		return fmt.Errorf("upsert live status: %w", err)
	}
	_, now := s.timestamp()
	_, err := s.db.Exec(`INSERT INTO bay_status (bay, timer_running, pump_running, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(bay) DO UPDATE SET
			timer_running = excluded.timer_running,
			pump_running = excluded.pump_running,
			updated_at = excluded.updated_at`,
		bay, timerRunning, pumpRunning, now)
	if err != nil {
		return fmt.Errorf("upsert live status: bay %d: %w", bay, err)
	}
	return nil
}

// UpsertLiveRuntime sets a bay's current timer and pump elapsed seconds.
func (s *Store) UpsertLiveRuntime(bay int, timerSeconds, pumpSeconds float64) error {
	if err := checkBay(bay); err != nil {
		return fmt.Errorf("upsert live runtime: %w", err)
	}
	_, now := s.timestamp()
	_, err := s.db.Exec(`INSERT INTO bay_status (bay, timer_runtime, pump_runtime, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(bay) DO UPDATE SET
			timer_runtime = excluded.timer_runtime,
			pump_runtime = excluded.pump_runtime,
			updated_at = excluded.updated_at`,
		bay, timerSeconds, pumpSeconds, now)
	if err != nil {
		return fmt.Errorf("upsert live runtime: bay %d: %w", bay, err)
	}
	return nil
}

// RecordSession appends a completed session.
func (s *Store) RecordSession(bay int, timerSeconds, pumpSeconds float64) (Session, error) {
	if err := checkBay(bay); err != nil {
		return Session{}, fmt.Errorf("record session: %w", err)
	}
	created, now := s.timestamp()
	session := Session{
		ID:           uuid.New().String(),
		Bay:          bay,
		TimerSeconds: timerSeconds,
		PumpSeconds:  pumpSeconds,
		CreatedAt:    created,
	}
	_, err := s.db.Exec(`INSERT INTO bay_sessions (uuid, bay, timer_time, pump_time, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		session.ID, bay, timerSeconds, pumpSeconds, now)
	if err != nil {
		return Session{}, fmt.Errorf("record session: bay %d: %w", bay, err)
	}
	return session, nil
}

// RecordMaintenanceInsert appends a maintenance coin insert.
func (s *Store) RecordMaintenanceInsert(bay int) (MaintenanceInsert, error) {
	if err := checkBay(bay); err != nil {
		return MaintenanceInsert{}, fmt.Errorf("record maintenance insert: %w", err)
	}
	created, now := s.timestamp()
	insert := MaintenanceInsert{
		ID:        uuid.New().String(),
		Bay:       bay,
		CreatedAt: created,
	}
	_, err := s.db.Exec(`INSERT INTO bay_maintenance_inserts (uuid, bay, created_at) VALUES (?, ?, ?)`,
		insert.ID, bay, now)
	if err != nil {
		return MaintenanceInsert{}, fmt.Errorf("record maintenance insert: bay %d: %w", bay, err)
	}
	return insert, nil
}

// WipeHistoricalData deletes every session and maintenance insert.
// Live status rows are left alone.
func (s *Store) WipeHistoricalData() error {
	transaction, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("wipe: begin transaction: %w", err)
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	if _, err := transaction.Exec(`DELETE FROM bay_sessions`); err != nil {
		return fmt.Errorf("wipe: delete sessions: %w", err)
	}
	if _, err := transaction.Exec(`DELETE FROM bay_maintenance_inserts`); err != nil {
		return fmt.Errorf("wipe: delete maintenance inserts: %w", err)
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("wipe: commit transaction: %w", err)
	}
	return nil
}

// LiveStatuses returns every bay's live row, ordered by bay.
func (s *Store) LiveStatuses() ([]LiveStatus, error) {
	rows, err := s.db.Query(`SELECT bay, timer_running, pump_running, timer_runtime, pump_runtime, updated_at
		FROM bay_status ORDER BY bay ASC`)
	if err != nil {
		return nil, fmt.Errorf("live statuses: query: %w", err)
	}
	defer rows.Close()

	var out []LiveStatus
	for rows.Next() {
		var ls LiveStatus
		var updated string
		if err := rows.Scan(&ls.Bay, &ls.TimerRunning, &ls.PumpRunning, &ls.TimerRuntime, &ls.PumpRuntime, &updated); err != nil {
			return nil, fmt.Errorf("live statuses: scan: %w", err)
		}
		ls.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated)
		if err != nil {
			return nil, fmt.Errorf("live statuses: parse updated_at for bay %d: %w", ls.Bay, err)
		}
		out = append(out, ls)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("live statuses: rows: %w", err)
	}
	return out, nil
}

// SessionTotals sums recorded sessions per bay. Bays with no sessions are absent.
func (s *Store) SessionTotals() (map[int]Totals, error) {
	rows, err := s.db.Query(`SELECT bay, COUNT(*), COALESCE(SUM(timer_time), 0), COALESCE(SUM(pump_time), 0)
		FROM bay_sessions GROUP BY bay ORDER BY bay ASC`)
	if err != nil {
		return nil, fmt.Errorf("session totals: query: %w", err)
	}
	defer rows.Close()

	out := make(map[int]Totals)
	for rows.Next() {
		var t Totals
		if err := rows.Scan(&t.Bay, &t.Sessions, &t.TimerSeconds, &t.PumpSeconds); err != nil {
			return nil, fmt.Errorf("session totals: scan: %w", err)
		}
		out[t.Bay] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session totals: rows: %w", err)
	}
	return out, nil
}

// MaintenanceCounts counts maintenance inserts per bay. Bays with none are absent.
func (s *Store) MaintenanceCounts() (map[int]int, error) {
	rows, err := s.db.Query(`SELECT bay, COUNT(*) FROM bay_maintenance_inserts GROUP BY bay ORDER BY bay ASC`)
	if err != nil {
		return nil, fmt.Errorf("maintenance counts: query: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var bay, count int
		if err := rows.Scan(&bay, &count); err != nil {
			return nil, fmt.Errorf("maintenance counts: scan: %w", err)
		}
		out[bay] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("maintenance counts: rows: %w", err)
	}
	return out, nil
}

// RecentSessions returns up to limit of a bay's sessions, newest first.
func (s *Store) RecentSessions(bay, limit int) ([]Session, error) {
	if err := checkBay(bay); err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("recent sessions: invalid limit %d", limit)
	}

	rows, err := s.db.Query(`SELECT uuid, bay, timer_time, pump_time, created_at
		FROM bay_sessions WHERE bay = ? ORDER BY id DESC LIMIT ?`, bay, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: query: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var ss Session
		var created string
		if err := rows.Scan(&ss.ID, &ss.Bay, &ss.TimerSeconds, &ss.PumpSeconds, &created); err != nil {
			return nil, fmt.Errorf("recent sessions: scan: %w", err)
		}
		ss.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("recent sessions: parse created_at: %w", err)
		}
		out = append(out, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent sessions: rows: %w", err)
	}
	return out, nil
}
