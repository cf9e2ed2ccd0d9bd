package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"caseflow/internal/domain"
	"caseflow/internal/fault"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const applicationColumns = `id,type_id,state,applicant,assignees_json,answers_json,external_json,version,listed,created,modified,state_entered_at,prune_at`

func scanApplication(scan func(dest ...any) error) (domain.Application, error) {
	var (
		a         domain.Application
		assignees sql.NullString
		answers   string
		external  string
		listed    int
		pruneAt   sql.NullString
	)
	err := scan(&a.ID, &a.TypeID, &a.State, &a.Applicant, &assignees, &answers, &external,
		&a.Version, &listed, &a.Created, &a.Modified, &a.StateEnteredAt, &pruneAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	a.Listed = listed != 0
	if pruneAt.Valid {
		a.PruneAt = &pruneAt.String
	}
	if assignees.Valid && assignees.String != "" {
		if err := json.Unmarshal([]byte(assignees.String), &a.Assignees); err != nil {
			return a, fmt.Errorf("decode assignees: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return a, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal([]byte(external), &a.ExternalData); err != nil {
		return a, fmt.Errorf("decode external data: %w", err)
	}
	if a.Answers == nil {
		a.Answers = map[string]any{}
	}
	if a.ExternalData == nil {
		a.ExternalData = map[string]domain.ExternalDataEntry{}
	}
	return a, nil
}

func encodeApplication(a domain.Application) (assignees any, answers, external string, err error) {
	if len(a.Assignees) > 0 {
		b, err := json.Marshal(a.Assignees)
		if err != nil {
			return nil, "", "", fmt.Errorf("encode assignees: %w", err)
		}
		assignees = string(b)
	}
	ansMap := a.Answers
	if ansMap == nil {
		ansMap = map[string]any{}
	}
	b, err := json.Marshal(ansMap)
	if err != nil {
		return nil, "", "", fmt.Errorf("encode answers: %w", err)
	}
	answers = string(b)
	extMap := a.ExternalData
	if extMap == nil {
		extMap = map[string]domain.ExternalDataEntry{}
	}
	b, err = json.Marshal(extMap)
	if err != nil {
		return nil, "", "", fmt.Errorf("encode external data: %w", err)
	}
	external = string(b)
	return assignees, answers, external, nil
}

func (r Repo) InsertApplication(ctx context.Context, tx *sql.Tx, a domain.Application) error {
	assignees, answers, external, err := encodeApplication(a)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO applications(`+applicationColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.TypeID, a.State, a.Applicant, assignees, answers, external,
		a.Version, boolInt(a.Listed), a.Created, a.Modified, a.StateEnteredAt, nullableStr(a.PruneAt))
	return err
}

func (r Repo) GetApplication(ctx context.Context, id string) (domain.Application, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id=?`, id)
	return scanApplication(row.Scan)
}

// UpdateApplicationCAS commits a new application snapshot only if no other
// writer advanced it since expectedVersion; the stored version becomes
// expectedVersion+1. Losing the race returns ConcurrentModification so
// callers refetch rather than resubmit blindly.
func (r Repo) UpdateApplicationCAS(ctx context.Context, tx *sql.Tx, a domain.Application, expectedVersion int64) (domain.Application, error) {
	assignees, answers, external, err := encodeApplication(a)
	if err != nil {
		return a, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE applications
SET state=?, assignees_json=?, answers_json=?, external_json=?, version=?, listed=?, modified=?, state_entered_at=?, prune_at=?
WHERE id=? AND version=?`,
		a.State, assignees, answers, external, expectedVersion+1, boolInt(a.Listed),
		a.Modified, a.StateEnteredAt, nullableStr(a.PruneAt), a.ID, expectedVersion)
	if err != nil {
		return a, err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		row := tx.QueryRowContext(ctx, `SELECT 1 FROM applications WHERE id=?`, a.ID)
		var n int
		if scanErr := row.Scan(&n); scanErr == sql.ErrNoRows {
			return a, ErrNotFound
		}
		return a, fault.ConcurrentModification{ApplicationID: a.ID, ExpectedVersion: expectedVersion}
	}
	a.Version = expectedVersion + 1
	return a, nil
}

// ListByApplicant returns the applicant's applications whose current state
// lists them, newest first.
func (r Repo) ListByApplicant(ctx context.Context, applicant string) ([]domain.Application, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE applicant=? AND listed=1 ORDER BY created DESC`, applicant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

// ListPrunable returns applications whose prune deadline has passed. The
// engine computes the deadlines; the external prune worker consumes this
// listing and performs the actual deletion.
func (r Repo) ListPrunable(ctx context.Context, now string) ([]domain.Application, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE prune_at IS NOT NULL AND prune_at<=? ORDER BY prune_at ASC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

func (r Repo) DeleteApplication(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM applications WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func collectApplications(rows *sql.Rows) ([]domain.Application, error) {
	var out []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListEvents returns events for an application, oldest first.
func (r Repo) ListEvents(ctx context.Context, applicationID string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,ts,type,COALESCE(application_id,''),actor_id,payload_json FROM events WHERE application_id=? ORDER BY id ASC LIMIT ?`, applicationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

// EventsAfter returns up to limit events with id greater than cursor.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,ts,type,COALESCE(application_id,''),actor_id,payload_json FROM events WHERE id>? ORDER BY id ASC LIMIT ?`, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

// LatestEventID returns the newest event id, or 0 when the log is empty.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events`)
	var id int64
	err := row.Scan(&id)
	return id, err
}

func collectEvents(rows *sql.Rows) ([]domain.Event, error) {
	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.ApplicationID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableStr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}
