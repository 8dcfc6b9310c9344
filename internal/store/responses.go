package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Response is one entry of the response log.
type Response struct {
	Seq         int64 // assigned by the store; ignored on write
	RequestID   string
	Fingerprint string
	Dataset     string
	Projection  []string
	Selection   []string
	Ranges      []string
	Rows        int   // top-level instances emitted
	Bytes       int64 // bytes accepted by the sink
	Err         string
}

// WriteResponse appends a response record.
// Uses ON CONFLICT(request_id) DO NOTHING for idempotency: a second record for
// the same request is silently ignored.
func (s *Store) WriteResponse(ctx context.Context, r Response) error {
	constraint, err := marshalConstraint(r.Projection, r.Selection, r.Ranges)
	if err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO responses
		(request_id, fingerprint, dataset, constraint_ce, rows_emitted, bytes_written, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO NOTHING
	`,
		r.RequestID,
		r.Fingerprint,
		r.Dataset,
		constraint,
		r.Rows,
		r.Bytes,
		r.Err,
	)
	if err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// ReadResponses returns the whole response log.
// Results are ordered deterministically: ORDER BY seq ASC, request_id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ReadResponses(ctx context.Context) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, request_id, fingerprint, dataset, constraint_ce, rows_emitted, bytes_written, error
		FROM responses
		ORDER BY seq ASC, request_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	return collectResponses(rows)
}

// ResponsesByFingerprint returns the earlier responses to requests with the
// given fingerprint, oldest first.
func (s *Store) ResponsesByFingerprint(ctx context.Context, fingerprint string) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, request_id, fingerprint, dataset, constraint_ce, rows_emitted, bytes_written, error
		FROM responses
		WHERE fingerprint = ?
		ORDER BY seq ASC, request_id COLLATE BINARY ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	return collectResponses(rows)
}

func collectResponses(rows *sql.Rows) ([]Response, error) {
	defer rows.Close()

	out := []Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return out, nil
}

func scanResponse(rows *sql.Rows) (Response, error) {
	var r Response
	var constraint string
	if err := rows.Scan(&r.Seq, &r.RequestID, &r.Fingerprint, &r.Dataset,
		&constraint, &r.Rows, &r.Bytes, &r.Err); err != nil {
		return Response{}, fmt.Errorf("scan response: %w", err)
	}
	rec, err := unmarshalConstraint(constraint)
	if err != nil {
		return Response{}, fmt.Errorf("scan response %s: %w", r.RequestID, err)
	}
	r.Projection, r.Selection, r.Ranges = rec.Projection, rec.Selection, rec.Ranges
	return r, nil
}
