package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type pgStore struct{ pool *pgxpool.Pool }

func NewPGStore(pool *pgxpool.Pool) Store { return &pgStore{pool: pool} }

func (s *pgStore) conn(ctx context.Context) db.Querier { return db.Conn(ctx, s.pool) }

const eventCols = `id, starts_at, ends_at, summary, COALESCE(description, '')`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	if err := row.Scan(&e.ID, &e.Start, &e.End, &e.Summary, &e.Description); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *pgStore) Create(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO calendar_event (id, starts_at, ends_at, summary, description)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Start, e.End, e.Summary, e.Description)
	return err
}

func (s *pgStore) Update(ctx context.Context, e *Event) error {
	tag, err := s.conn(ctx).Exec(ctx, `
		UPDATE calendar_event SET starts_at=$2, ends_at=$3, summary=$4, description=$5, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.Start, e.End, e.Summary, e.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("calendar event %s not found", e.ID)
	}
	return nil
}

func (s *pgStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM calendar_event WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("calendar event %s not found", id)
	}
	return nil
}

func (s *pgStore) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	e, err := scanEvent(s.conn(ctx).QueryRow(ctx, `SELECT `+eventCols+` FROM calendar_event WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("calendar event %s not found", id)
	}
	return e, err
}

func (s *pgStore) List(ctx context.Context, from, to time.Time) ([]*Event, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT `+eventCols+` FROM calendar_event
		WHERE starts_at < $2 AND ends_at >= $1
		ORDER BY starts_at`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
