package datarecording

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/ArminHamedi/precice/com/stream"
	"github.com/ArminHamedi/precice/cplscheme"
)

// ErrNoCheckpoint is returned when a requested checkpoint does not exist.
var ErrNoCheckpoint = errors.New("datarecording: no such checkpoint")

const checkpointSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	run_id      TEXT    NOT NULL,
	participant TEXT    NOT NULL,
	timestep    INTEGER NOT NULL,
	time        REAL    NOT NULL,
	created_at  INTEGER NOT NULL,
	state       BLOB    NOT NULL,
	PRIMARY KEY (run_id, participant, timestep)
);`

// Checkpoint describes a stored scheme state.
type Checkpoint struct {
	RunID       string
	Participant string
	Timestep    int
	Time        float64
	CreatedAt   time.Time
	Size        int
}

// A CheckpointStore keeps serialized coupling scheme states, so that a run can
// be restarted from a completed timestep. Every store instance belongs to a
// run. Checkpoints of other runs in the same database remain readable.
type CheckpointStore struct {
	db    *sql.DB
	runID string
}

// OpenCheckpointStore opens or creates the database file at path. The store
// is closed at exit if it has not been closed before.
func OpenCheckpointStore(path string) (*CheckpointStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("datarecording: open %s: %w", path, err)
	}

	s, err := NewCheckpointStoreWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	atexit.Register(func() { s.Close() })

	return s, nil
}

// NewCheckpointStoreWithDB creates a store on an open database.
func NewCheckpointStoreWithDB(db *sql.DB) (*CheckpointStore, error) {
	// Writes from several participants of a demo go through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(checkpointSchema); err != nil {
		return nil, fmt.Errorf("datarecording: create checkpoint table: %w",
			err)
	}

	return &CheckpointStore{
		db:    db,
		runID: xid.New().String(),
	}, nil
}

// RunID returns the id under which Save stores checkpoints.
func (s *CheckpointStore) RunID() string {
	return s.runID
}

// Save stores a serialized state. A checkpoint of the same participant and
// timestep in this run is replaced.
func (s *CheckpointStore) Save(
	ctx context.Context,
	participant string,
	timestep int,
	t float64,
	state []byte,
) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO checkpoints
		(run_id, participant, timestep, time, created_at, state)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.runID, participant, timestep, t, time.Now().UnixNano(), state)
	if err != nil {
		return fmt.Errorf("datarecording: save checkpoint of %s at "+
			"timestep %d: %w", participant, timestep, err)
	}

	return nil
}

// Load returns the serialized state of a checkpoint.
func (s *CheckpointStore) Load(
	ctx context.Context,
	runID, participant string,
	timestep int,
) ([]byte, error) {
	var state []byte

	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM checkpoints
		WHERE run_id = ? AND participant = ? AND timestep = ?`,
		runID, participant, timestep).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s, participant %s, timestep %d",
			ErrNoCheckpoint, runID, participant, timestep)
	}

	if err != nil {
		return nil, fmt.Errorf("datarecording: load checkpoint: %w", err)
	}

	return state, nil
}

// Latest returns the checkpoint of the participant with the highest timestep
// in the run.
func (s *CheckpointStore) Latest(
	ctx context.Context,
	runID, participant string,
) (Checkpoint, error) {
	list, err := s.list(ctx,
		`WHERE run_id = ? AND participant = ?
		ORDER BY timestep DESC LIMIT 1`,
		runID, participant)
	if err != nil {
		return Checkpoint{}, err
	}

	if len(list) == 0 {
		return Checkpoint{}, fmt.Errorf("%w: run %s, participant %s",
			ErrNoCheckpoint, runID, participant)
	}

	return list[0], nil
}

// List returns the checkpoints of a run, or of all runs if runID is empty,
// ordered by run, participant and timestep.
func (s *CheckpointStore) List(
	ctx context.Context,
	runID string,
) ([]Checkpoint, error) {
	const order = ` ORDER BY run_id, participant, timestep`

	if runID == "" {
		return s.list(ctx, order)
	}

	return s.list(ctx, `WHERE run_id = ?`+order, runID)
}

func (s *CheckpointStore) list(
	ctx context.Context,
	clause string,
	args ...any,
) ([]Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, participant, timestep, time, created_at,
		length(state) FROM checkpoints `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("datarecording: list checkpoints: %w", err)
	}
	defer rows.Close()

	var list []Checkpoint

	for rows.Next() {
		var (
			c       Checkpoint
			created int64
		)

		err := rows.Scan(&c.RunID, &c.Participant, &c.Timestep, &c.Time,
			&created, &c.Size)
		if err != nil {
			return nil, fmt.Errorf("datarecording: list checkpoints: %w", err)
		}

		c.CreatedAt = time.Unix(0, created)
		list = append(list, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("datarecording: list checkpoints: %w", err)
	}

	return list, nil
}

// SaveScheme stores the current state of the scheme under its local
// participant and completed timestep count.
func (s *CheckpointStore) SaveScheme(
	ctx context.Context,
	scheme cplscheme.CouplingScheme,
) error {
	var buf bytes.Buffer

	if err := scheme.SendState(stream.New(&buf)); err != nil {
		return fmt.Errorf("datarecording: serialize state: %w", err)
	}

	return s.Save(ctx, scheme.LocalParticipant(), scheme.Timesteps(),
		scheme.Time(), buf.Bytes())
}

// LoadState reads the scheme state of a checkpoint.
func (s *CheckpointStore) LoadState(
	ctx context.Context,
	runID, participant string,
	timestep int,
) (cplscheme.State, error) {
	state, err := s.Load(ctx, runID, participant, timestep)
	if err != nil {
		return cplscheme.State{}, err
	}

	st, err := cplscheme.ReceiveState(stream.New(bytes.NewBuffer(state)))
	if err != nil {
		return cplscheme.State{}, fmt.Errorf(
			"datarecording: decode checkpoint of %s at timestep %d: %w",
			participant, timestep, err)
	}

	return st, nil
}

// RestoreScheme prepares a scheme that has not been initialized to resume
// from the checkpoint of its local participant at the timestep. It returns
// the restored state, whose time and timesteps the scheme has to be
// initialized with.
func (s *CheckpointStore) RestoreScheme(
	ctx context.Context,
	runID string,
	timestep int,
	scheme cplscheme.CouplingScheme,
) (cplscheme.State, error) {
	st, err := s.LoadState(ctx, runID, scheme.LocalParticipant(), timestep)
	if err != nil {
		return cplscheme.State{}, err
	}

	if err := scheme.Restore(st); err != nil {
		return cplscheme.State{}, fmt.Errorf("datarecording: restore: %w", err)
	}

	return st, nil
}

// Close closes the database. Closing twice is harmless.
func (s *CheckpointStore) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}
