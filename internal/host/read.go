package host

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/sequence"
)

// querier is satisfied by *sql.DB and *sql.Tx, so reads can run inside a
// write transaction and see its uncommitted state.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Sequence returns the live sequence at path with its sections and markers.
// Returns sequence.ErrNotFound if no sequence exists there.
//
// Implements sequence.Reader.
func (h *Host) Sequence(ctx context.Context, path string) (*sequence.Sequence, error) {
	snap, err := readSnapshot(ctx, h.db, sequence.Key(path))
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %s", sequence.ErrNotFound, path)
	}
	return snap.toSequence(), nil
}

// Sequences returns every sequence path, sorted.
//
// Returns empty slice (not nil) if the host holds no sequences.
func (h *Host) Sequences(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT path FROM sequences ORDER BY key COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sequences: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan sequence: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sequences: %w", err)
	}
	return paths, nil
}

// TxnInfo describes a committed transaction.
type TxnInfo struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Seq       int64  `json:"seq"`
	Undone    bool   `json:"undone"`
	Sequences int    `json:"sequences"`
}

// Transactions returns the journal, newest first.
func (h *Host) Transactions(ctx context.Context) ([]TxnInfo, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT t.id, t.label, t.seq, t.undone, COUNT(s.key)
		FROM transactions t
		LEFT JOIN transaction_snapshots s ON s.txn_id = t.id
		GROUP BY t.id
		ORDER BY t.seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txns := []TxnInfo{}
	for rows.Next() {
		var info TxnInfo
		if err := rows.Scan(&info.ID, &info.Label, &info.Seq, &info.Undone, &info.Sequences); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}

// readSnapshot loads the full stored state of the sequence at key.
// Returns nil, nil when it does not exist.
func readSnapshot(ctx context.Context, q querier, key string) (*snapshot, error) {
	var (
		rec   SequenceRecord
		props string
	)
	err := q.QueryRowContext(ctx, `
		SELECT path, rate_num, rate_den, start_frame, end_frame, properties
		FROM sequences
		WHERE key = ?
	`, key).Scan(&rec.Path, &rec.Rate.Num, &rec.Rate.Den, &rec.StartFrame, &rec.EndFrame, &props)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sequence %s: %w", key, err)
	}

	if rec.Properties, err = unmarshalProperties(props); err != nil {
		return nil, err
	}
	if rec.Markers, err = readMarkers(ctx, q, `
		SELECT name, frame, duration, color, comment
		FROM sequence_markers
		WHERE sequence_key = ?
		ORDER BY frame ASC, id ASC
	`, key); err != nil {
		return nil, err
	}

	sections, err := readSections(ctx, q, key)
	if err != nil {
		return nil, err
	}
	return &snapshot{Sequence: rec, Sections: sections}, nil
}

func readSections(ctx context.Context, q querier, parentKey string) ([]SectionRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, sub_sequence, row_index, position, start_frame, end_frame, start_offset, speed_num, speed_den
		FROM sections
		WHERE parent_key = ?
		ORDER BY position ASC, id ASC
	`, parentKey)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}

	sections := []SectionRecord{}
	for rows.Next() {
		var (
			rec   SectionRecord
			speed rational.Ratio
		)
		if err := rows.Scan(&rec.ID, &rec.SubSequence, &rec.Row, &rec.Position,
			&rec.StartFrame, &rec.EndFrame, &rec.StartOffset, &speed.Num, &speed.Den); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan section: %w", err)
		}
		rec.Speed = speed.Norm()
		sections = append(sections, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	// Close before issuing marker queries on the single connection.
	rows.Close()

	for i := range sections {
		if sections[i].Markers, err = readMarkers(ctx, q, `
			SELECT name, frame, duration, color, comment
			FROM section_markers
			WHERE section_id = ?
			ORDER BY frame ASC, id ASC
		`, sections[i].ID); err != nil {
			return nil, err
		}
	}
	return sections, nil
}

func readMarkers(ctx context.Context, q querier, query string, owner any) ([]MarkerRecord, error) {
	rows, err := q.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("query markers: %w", err)
	}
	defer rows.Close()

	markers := []MarkerRecord{}
	for rows.Next() {
		var m MarkerRecord
		if err := rows.Scan(&m.Name, &m.Frame, &m.Duration, &m.Color, &m.Comment); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markers: %w", err)
	}
	return markers, nil
}
