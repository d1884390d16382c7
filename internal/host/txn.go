package host

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/sequence"
)

// lockRetryDelay is how often Begin retries a held host lock.
const lockRetryDelay = 50 * time.Millisecond

// ErrTxnDone is returned by writes on a committed or rolled-back Txn.
var ErrTxnDone = errors.New("host transaction already finished")

// ErrNothingToUndo is returned by Undo when every transaction is undone.
var ErrNothingToUndo = errors.New("nothing to undo")

// Txn is one labelled write transaction. It holds the host lock until Commit
// or Rollback. Before the first write to a sequence the Txn records its prior
// state, which is what Undo restores.
//
// Not safe for concurrent use.
type Txn struct {
	h       *Host
	tx      *sql.Tx
	id      string
	label   string
	touched map[string]bool
	done    bool
}

// Begin acquires the host lock and opens a transaction labelled label.
// Blocks until the lock is free or ctx is done.
func (h *Host) Begin(ctx context.Context, label string) (*Txn, error) {
	tx, err := h.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin %q: %w", label, err)
	}

	id := h.ids.Generate()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, label, seq)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions))
	`, id, label)
	if err != nil {
		h.release(tx)
		return nil, fmt.Errorf("begin %q: journal: %w", label, err)
	}

	slog.Debug("host transaction begun", "id", id, "label", label)
	return &Txn{h: h, tx: tx, id: id, label: label, touched: make(map[string]bool)}, nil
}

func (h *Host) begin(ctx context.Context) (*sql.Tx, error) {
	ok, err := h.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire host lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire host lock: %s is held", h.lock.Path())
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		_ = h.lock.Unlock()
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (h *Host) release(tx *sql.Tx) {
	_ = tx.Rollback()
	if err := h.lock.Unlock(); err != nil {
		slog.Warn("failed to release host lock", "lock", h.lock.Path(), "error", err)
	}
}

// ID returns the transaction id.
func (t *Txn) ID() string { return t.id }

// Label returns the transaction label.
func (t *Txn) Label() string { return t.label }

// Sequence reads a sequence as this transaction sees it.
func (t *Txn) Sequence(ctx context.Context, path string) (*sequence.Sequence, error) {
	snap, err := readSnapshot(ctx, t.tx, sequence.Key(path))
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %s", sequence.ErrNotFound, path)
	}
	return snap.toSequence(), nil
}

// touch records the prior state of the sequence at key once per transaction.
func (t *Txn) touch(ctx context.Context, key string) error {
	if t.done {
		return ErrTxnDone
	}
	if t.touched[key] {
		return nil
	}

	snap, err := readSnapshot(ctx, t.tx, key)
	if err != nil {
		return err
	}
	var state sql.NullString
	if snap != nil {
		s, err := marshalSnapshot(snap)
		if err != nil {
			return err
		}
		state = sql.NullString{String: s, Valid: true}
	}

	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO transaction_snapshots (txn_id, key, state) VALUES (?, ?, ?)
	`, t.id, key, state); err != nil {
		return fmt.Errorf("snapshot %s: %w", key, err)
	}
	t.touched[key] = true
	return nil
}

// CreateSequence creates a sequence with an empty shot track.
func (t *Txn) CreateSequence(ctx context.Context, rec SequenceRecord) error {
	if err := sequence.ValidatePath(rec.Path); err != nil {
		return err
	}
	key := sequence.Key(rec.Path)
	if err := t.touch(ctx, key); err != nil {
		return err
	}
	rec.Path = sequence.NormalizePath(rec.Path)
	if err := insertSequence(ctx, t.tx, key, rec); err != nil {
		return fmt.Errorf("create sequence %s: %w", rec.Path, err)
	}
	return nil
}

// SetPlaybackRange sets a sequence's playback range in its own frames.
func (t *Txn) SetPlaybackRange(ctx context.Context, path string, start, end int64) error {
	key := sequence.Key(path)
	if err := t.touch(ctx, key); err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE sequences SET start_frame = ?, end_frame = ? WHERE key = ?
	`, start, end, key)
	if err != nil {
		return fmt.Errorf("set playback range %s: %w", path, err)
	}
	return requireRow(res, path)
}

// SetMarkers replaces a sequence's markers.
func (t *Txn) SetMarkers(ctx context.Context, path string, markers []MarkerRecord) error {
	key := sequence.Key(path)
	if err := t.touch(ctx, key); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM sequence_markers WHERE sequence_key = ?`, key); err != nil {
		return fmt.Errorf("set markers %s: %w", path, err)
	}
	if err := insertSequenceMarkers(ctx, t.tx, key, markers); err != nil {
		return fmt.Errorf("set markers %s: %w", path, err)
	}
	return nil
}

// AddSection appends a section to parent's shot track and returns its id.
func (t *Txn) AddSection(ctx context.Context, parent string, rec SectionRecord) (int64, error) {
	if err := sequence.ValidatePath(rec.SubSequence); err != nil {
		return 0, err
	}
	key := sequence.Key(parent)
	if err := t.touch(ctx, key); err != nil {
		return 0, err
	}
	id, err := insertSection(ctx, t.tx, key, rec)
	if err != nil {
		return 0, fmt.Errorf("add section %s to %s: %w", rec.SubSequence, parent, err)
	}
	return id, nil
}

// UpdateSection rewrites section id of parent in place, markers included.
func (t *Txn) UpdateSection(ctx context.Context, parent string, id int64, rec SectionRecord) error {
	key := sequence.Key(parent)
	if err := t.touch(ctx, key); err != nil {
		return err
	}
	speed := speedOrOne(rec.Speed)
	res, err := t.tx.ExecContext(ctx, `
		UPDATE sections
		SET row_index = ?, position = ?, start_frame = ?, end_frame = ?, start_offset = ?,
		    speed_num = ?, speed_den = ?
		WHERE id = ? AND parent_key = ?
	`, rec.Row, rec.Position, rec.StartFrame, rec.EndFrame, rec.StartOffset, speed.Num, speed.Den, id, key)
	if err != nil {
		return fmt.Errorf("update section %d of %s: %w", id, parent, err)
	}
	if err := requireRow(res, fmt.Sprintf("%s section %d", parent, id)); err != nil {
		return err
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM section_markers WHERE section_id = ?`, id); err != nil {
		return fmt.Errorf("update section %d of %s: %w", id, parent, err)
	}
	if err := insertSectionMarkers(ctx, t.tx, id, rec.Markers); err != nil {
		return fmt.Errorf("update section %d of %s: %w", id, parent, err)
	}
	return nil
}

// RemoveSection deletes section id from parent's shot track. The referenced
// sequence asset is left alone.
func (t *Txn) RemoveSection(ctx context.Context, parent string, id int64) error {
	key := sequence.Key(parent)
	if err := t.touch(ctx, key); err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM sections WHERE id = ? AND parent_key = ?`, id, key)
	if err != nil {
		return fmt.Errorf("remove section %d of %s: %w", id, parent, err)
	}
	return requireRow(res, fmt.Sprintf("%s section %d", parent, id))
}

// Commit makes every write of the transaction visible and releases the lock.
// A transaction that wrote nothing leaves no journal entry.
func (t *Txn) Commit() error {
	if t.done {
		return ErrTxnDone
	}
	t.done = true
	defer t.unlock()

	if len(t.touched) == 0 {
		if _, err := t.tx.Exec(`DELETE FROM transactions WHERE id = ?`, t.id); err != nil {
			_ = t.tx.Rollback()
			return fmt.Errorf("commit %q: %w", t.label, err)
		}
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit %q: %w", t.label, err)
	}
	slog.Debug("host transaction committed", "id", t.id, "label", t.label, "sequences", len(t.touched))
	return nil
}

// Rollback discards every write of the transaction and releases the lock.
// Safe to call after Commit, where it does nothing.
func (t *Txn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.unlock()

	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback %q: %w", t.label, err)
	}
	slog.Debug("host transaction rolled back", "id", t.id, "label", t.label)
	return nil
}

func (t *Txn) unlock() {
	if err := t.h.lock.Unlock(); err != nil {
		slog.Warn("failed to release host lock", "lock", t.h.lock.Path(), "error", err)
	}
}

// CreateSequence creates one sequence in a transaction of its own.
func (h *Host) CreateSequence(ctx context.Context, label string, rec SequenceRecord) error {
	txn, err := h.Begin(ctx, label)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	if err := txn.CreateSequence(ctx, rec); err != nil {
		return err
	}
	return txn.Commit()
}

// Undo restores every sequence touched by the most recent transaction that
// has not been undone to its state before that transaction, and marks it
// undone. Returns ErrNothingToUndo when there is none.
func (h *Host) Undo(ctx context.Context) (*TxnInfo, error) {
	tx, err := h.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}
	defer h.release(tx)

	var info TxnInfo
	err = tx.QueryRowContext(ctx, `
		SELECT id, label, seq FROM transactions
		WHERE undone = 0
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&info.ID, &info.Label, &info.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNothingToUndo
	}
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}

	snaps, err := readTxnSnapshots(ctx, tx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("undo %q: %w", info.Label, err)
	}
	for key, state := range snaps {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sequences WHERE key = ?`, key); err != nil {
			return nil, fmt.Errorf("undo %q: %w", info.Label, err)
		}
		if !state.Valid {
			continue
		}
		snap, err := unmarshalSnapshot(state.String)
		if err != nil {
			return nil, fmt.Errorf("undo %q: %w", info.Label, err)
		}
		if err := restoreSnapshot(ctx, tx, key, snap); err != nil {
			return nil, fmt.Errorf("undo %q: %w", info.Label, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE transactions SET undone = 1 WHERE id = ?`, info.ID); err != nil {
		return nil, fmt.Errorf("undo %q: %w", info.Label, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("undo %q: %w", info.Label, err)
	}

	info.Undone = true
	info.Sequences = len(snaps)
	slog.Info("transaction undone", "id", info.ID, "label", info.Label, "sequences", info.Sequences)
	return &info, nil
}

func readTxnSnapshots(ctx context.Context, tx *sql.Tx, txnID string) (map[string]sql.NullString, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT key, state FROM transaction_snapshots WHERE txn_id = ? ORDER BY key COLLATE BINARY ASC
	`, txnID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := make(map[string]sql.NullString)
	for rows.Next() {
		var (
			key   string
			state sql.NullString
		)
		if err := rows.Scan(&key, &state); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps[key] = state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

func restoreSnapshot(ctx context.Context, tx *sql.Tx, key string, snap *snapshot) error {
	if err := insertSequence(ctx, tx, key, snap.Sequence); err != nil {
		return fmt.Errorf("restore %s: %w", snap.Sequence.Path, err)
	}
	for _, sec := range snap.Sections {
		if _, err := insertSection(ctx, tx, key, sec); err != nil {
			return fmt.Errorf("restore %s: %w", snap.Sequence.Path, err)
		}
	}
	return nil
}

func insertSequence(ctx context.Context, tx *sql.Tx, key string, rec SequenceRecord) error {
	props, err := marshalProperties(rec.Properties)
	if err != nil {
		return err
	}
	rate := rec.Rate.Norm()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sequences (key, path, rate_num, rate_den, start_frame, end_frame, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key, rec.Path, rate.Num, rate.Den, rec.StartFrame, rec.EndFrame, props); err != nil {
		return err
	}
	return insertSequenceMarkers(ctx, tx, key, rec.Markers)
}

func insertSection(ctx context.Context, tx *sql.Tx, parentKey string, rec SectionRecord) (int64, error) {
	speed := speedOrOne(rec.Speed)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO sections
		(parent_key, sub_sequence, row_index, position, start_frame, end_frame, start_offset, speed_num, speed_den)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, parentKey, sequence.NormalizePath(rec.SubSequence), rec.Row, rec.Position,
		rec.StartFrame, rec.EndFrame, rec.StartOffset, speed.Num, speed.Den)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertSectionMarkers(ctx, tx, id, rec.Markers); err != nil {
		return 0, err
	}
	return id, nil
}

func insertSequenceMarkers(ctx context.Context, tx *sql.Tx, key string, markers []MarkerRecord) error {
	for _, m := range markers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sequence_markers (sequence_key, name, frame, duration, color, comment)
			VALUES (?, ?, ?, ?, ?, ?)
		`, key, m.Name, m.Frame, m.Duration, m.Color, m.Comment); err != nil {
			return fmt.Errorf("insert marker %q: %w", m.Name, err)
		}
	}
	return nil
}

func insertSectionMarkers(ctx context.Context, tx *sql.Tx, sectionID int64, markers []MarkerRecord) error {
	for _, m := range markers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO section_markers (section_id, name, frame, duration, color, comment)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sectionID, m.Name, m.Frame, m.Duration, m.Color, m.Comment); err != nil {
			return fmt.Errorf("insert marker %q: %w", m.Name, err)
		}
	}
	return nil
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", sequence.ErrNotFound, what)
	}
	return nil
}

func speedOrOne(r rational.Ratio) rational.Ratio {
	if r.Den == 0 {
		return rational.One
	}
	return r.Norm()
}
