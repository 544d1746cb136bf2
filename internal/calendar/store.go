package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open connects a tuned pgx pool and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Store is the Postgres calendar store. It exclusively owns time_blocks
// and appointments; the availability engine mutates them only through Tx.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// FreeBlocks returns the staff member's free blocks with start in
// [from, to), ordered by start ascending. Re-querying yields a fresh view.
func (s *Store) FreeBlocks(ctx context.Context, staffID int, from, to time.Time) ([]TimeBlock, error) {
	q := `SELECT id, staff_id, start_at, end_at, reserved FROM time_blocks
	      WHERE staff_id=$1 AND NOT reserved AND start_at >= $2 AND start_at < $3
	      ORDER BY start_at`
	return s.queryBlocks(ctx, q, staffID, from, to)
}

// BlocksInRange returns every block (free or reserved) fully inside
// [from, to), ordered by start. Booking uses it to resolve the exact
// covering set for a requested span.
func (s *Store) BlocksInRange(ctx context.Context, staffID int, from, to time.Time) ([]TimeBlock, error) {
	q := `SELECT id, staff_id, start_at, end_at, reserved FROM time_blocks
	      WHERE staff_id=$1 AND start_at >= $2 AND end_at <= $3
	      ORDER BY start_at`
	return s.queryBlocks(ctx, q, staffID, from, to)
}

// FreeBlocksOverlapping returns free blocks whose span intersects
// [from, to). External-calendar sync uses it because busy events rarely
// land on block boundaries.
func (s *Store) FreeBlocksOverlapping(ctx context.Context, staffID int, from, to time.Time) ([]TimeBlock, error) {
	q := `SELECT id, staff_id, start_at, end_at, reserved FROM time_blocks
	      WHERE staff_id=$1 AND NOT reserved AND start_at < $3 AND end_at > $2
	      ORDER BY start_at`
	return s.queryBlocks(ctx, q, staffID, from, to)
}

func (s *Store) queryBlocks(ctx context.Context, q string, staffID int, from, to time.Time) ([]TimeBlock, error) {
	rows, err := s.DB.Query(ctx, q, staffID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimeBlock
	for rows.Next() {
		var b TimeBlock
		if err := rows.Scan(&b.ID, &b.StaffID, &b.StartAt, &b.EndAt, &b.Reserved); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AppointmentsInRange lists confirmed appointments for a staff member with
// start in [from, to).
func (s *Store) AppointmentsInRange(ctx context.Context, staffID int, from, to time.Time) ([]Appointment, error) {
	q := `SELECT id, customer_name, phone, staff_id, service_id, start_at, end_at, created_at
	      FROM appointments
	      WHERE staff_id=$1 AND start_at >= $2 AND start_at < $3
	      ORDER BY start_at`
	rows, err := s.DB.Query(ctx, q, staffID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.CustomerName, &a.Phone, &a.StaffID, &a.ServiceID,
			&a.StartAt, &a.EndAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Begin opens a reservation transaction.
func (s *Store) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx pgx.Tx
}

// Reserve flips the blocks free->reserved with a single conditional
// update. Row locks serialize concurrent attempts on the same blocks; the
// loser re-evaluates NOT reserved, flips fewer rows than requested, and
// gets ErrConflict. Unrelated staff/time ranges are untouched.
func (t *pgTx) Reserve(ctx context.Context, blockIDs []int64) error {
	if len(blockIDs) == 0 {
		return ErrConflict
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE time_blocks SET reserved = TRUE WHERE id = ANY($1) AND NOT reserved`,
		blockIDs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(len(blockIDs)) {
		return ErrConflict
	}
	return nil
}

func (t *pgTx) PersistAppointment(ctx context.Context, a Appointment) (Appointment, error) {
	a.ID = uuid.New()
	q := `INSERT INTO appointments
	      (id, customer_name, phone, staff_id, service_id, start_at, end_at, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,now())
	      RETURNING created_at`
	err := t.tx.QueryRow(ctx, q, a.ID, a.CustomerName, a.Phone, a.StaffID, a.ServiceID,
		a.StartAt.UTC(), a.EndAt.UTC()).Scan(&a.CreatedAt)
	if err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
