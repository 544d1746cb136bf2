package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrStaffNotFound   = errors.New("staff not found")
)

// Catalog reads the staff/service registry from Postgres. All methods are
// read-only; seeding happens out of band (cmd/seed).
type Catalog struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Catalog {
	return &Catalog{DB: db}
}

func (c *Catalog) ServiceByCode(ctx context.Context, code string) (Service, error) {
	q := `SELECT id, code, name, duration_min, price_cents FROM services WHERE code=$1`
	var s Service
	err := c.DB.QueryRow(ctx, q, code).Scan(&s.ID, &s.Code, &s.Name, &s.DurationMin, &s.PriceCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return Service{}, ErrServiceNotFound
	}
	if err != nil {
		return Service{}, err
	}
	return s, nil
}

func (c *Catalog) ServiceByID(ctx context.Context, id int) (Service, error) {
	q := `SELECT id, code, name, duration_min, price_cents FROM services WHERE id=$1`
	var s Service
	err := c.DB.QueryRow(ctx, q, id).Scan(&s.ID, &s.Code, &s.Name, &s.DurationMin, &s.PriceCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return Service{}, ErrServiceNotFound
	}
	if err != nil {
		return Service{}, err
	}
	return s, nil
}

func (c *Catalog) ListServices(ctx context.Context) ([]Service, error) {
	q := `SELECT id, code, name, duration_min, price_cents FROM services ORDER BY id`
	rows, err := c.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.DurationMin, &s.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// StaffQualifiedFor returns the staff qualified to perform a service, in
// roster order. Slot search iterates this order, so it is the tie-break.
func (c *Catalog) StaffQualifiedFor(ctx context.Context, serviceID int) ([]Staff, error) {
	q := `SELECT s.id, s.name FROM staff s
	      JOIN staff_services ss ON ss.staff_id = s.id
	      WHERE ss.service_id = $1
	      ORDER BY s.id`
	rows, err := c.DB.Query(ctx, q, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		var st Staff
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (c *Catalog) StaffByID(ctx context.Context, id int) (Staff, error) {
	q := `SELECT id, name FROM staff WHERE id=$1`
	var st Staff
	err := c.DB.QueryRow(ctx, q, id).Scan(&st.ID, &st.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Staff{}, ErrStaffNotFound
	}
	if err != nil {
		return Staff{}, err
	}
	return st, nil
}

// IsQualified reports whether the staff member may perform the service.
func (c *Catalog) IsQualified(ctx context.Context, staffID, serviceID int) (bool, error) {
	q := `SELECT 1 FROM staff_services WHERE staff_id=$1 AND service_id=$2`
	var one int
	err := c.DB.QueryRow(ctx, q, staffID, serviceID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
