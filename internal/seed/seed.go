package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"booking-service/internal/calendar"
	"booking-service/internal/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS staff (
	id SERIAL PRIMARY KEY,
	name TEXT UNIQUE NOT NULL
);
CREATE TABLE IF NOT EXISTS services (
	id SERIAL PRIMARY KEY,
	code TEXT UNIQUE NOT NULL,
	name TEXT UNIQUE NOT NULL,
	duration_min INTEGER NOT NULL CHECK (duration_min > 0),
	price_cents INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS staff_services (
	staff_id INTEGER NOT NULL REFERENCES staff(id),
	service_id INTEGER NOT NULL REFERENCES services(id),
	PRIMARY KEY (staff_id, service_id)
);
CREATE TABLE IF NOT EXISTS time_blocks (
	id BIGSERIAL PRIMARY KEY,
	staff_id INTEGER NOT NULL REFERENCES staff(id),
	start_at TIMESTAMPTZ NOT NULL,
	end_at TIMESTAMPTZ NOT NULL,
	reserved BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (staff_id, start_at)
);
CREATE INDEX IF NOT EXISTS idx_time_blocks_free
	ON time_blocks (staff_id, start_at) WHERE NOT reserved;
CREATE TABLE IF NOT EXISTS appointments (
	id UUID PRIMARY KEY,
	customer_name TEXT NOT NULL,
	phone TEXT NOT NULL,
	staff_id INTEGER NOT NULL REFERENCES staff(id),
	service_id INTEGER NOT NULL REFERENCES services(id),
	start_at TIMESTAMPTZ NOT NULL,
	end_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_appointments_staff_start
	ON appointments (staff_id, start_at);
`

// EnsureSchema creates the tables when missing.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	return err
}

type seedService struct {
	catalog.Service
	allStaff bool
}

// Run seeds the shop roster, service catalog, qualifications and a block
// horizon. It is a no-op when staff already exist.
func Run(ctx context.Context, db *pgxpool.Pool, days, openHour, closeHour int, logger *zap.Logger) error {
	if err := EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	var count int
	if err := db.QueryRow(ctx, `SELECT count(*) FROM staff`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		logger.Info("catalog already seeded, skipping")
		return nil
	}

	staffNames := []string{"Alex", "Brook", "Casey"}
	staffIDs := make([]int, 0, len(staffNames))
	for _, name := range staffNames {
		var id int
		if err := db.QueryRow(ctx, `INSERT INTO staff (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
			return fmt.Errorf("insert staff %s: %w", name, err)
		}
		staffIDs = append(staffIDs, id)
	}

	services := []seedService{
		{Service: catalog.Service{Code: "HAIRCUT", Name: "Haircut", DurationMin: 30, PriceCents: 2500}, allStaff: true},
		{Service: catalog.Service{Code: "BEARD", Name: "Beard Trim", DurationMin: 15, PriceCents: 1500}, allStaff: true},
		{Service: catalog.Service{Code: "SHAVE", Name: "Hot Towel Shave", DurationMin: 25, PriceCents: 2200}, allStaff: true},
		{Service: catalog.Service{Code: "KIDS", Name: "Kids Haircut", DurationMin: 25, PriceCents: 2000}, allStaff: true},
		{Service: catalog.Service{Code: "STYLE", Name: "Wash & Style", DurationMin: 20, PriceCents: 1800}, allStaff: true},
		// Casey doesn't do color.
		{Service: catalog.Service{Code: "COLOR", Name: "Color Touch-up", DurationMin: 45, PriceCents: 5500}, allStaff: false},
	}
	for i := range services {
		s := &services[i]
		if s.DurationMin <= 0 {
			return fmt.Errorf("service %s: duration must be positive", s.Code)
		}
		err := db.QueryRow(ctx,
			`INSERT INTO services (code, name, duration_min, price_cents) VALUES ($1,$2,$3,$4) RETURNING id`,
			s.Code, s.Name, s.DurationMin, s.PriceCents).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("insert service %s: %w", s.Code, err)
		}
		qualified := staffIDs
		if !s.allStaff {
			qualified = staffIDs[:2]
		}
		for _, staffID := range qualified {
			if _, err := db.Exec(ctx,
				`INSERT INTO staff_services (staff_id, service_id) VALUES ($1,$2)`,
				staffID, s.ID); err != nil {
				return fmt.Errorf("qualify staff %d for %s: %w", staffID, s.Code, err)
			}
		}
	}

	intervals := calendar.HorizonBlocks(time.Now().UTC(), days, openHour, closeHour)
	inserted := 0
	for _, iv := range intervals {
		for _, staffID := range staffIDs {
			tag, err := db.Exec(ctx,
				`INSERT INTO time_blocks (staff_id, start_at, end_at) VALUES ($1,$2,$3)
				 ON CONFLICT (staff_id, start_at) DO NOTHING`,
				staffID, iv.Start, iv.End)
			if err != nil {
				return fmt.Errorf("insert block: %w", err)
			}
			// Conflicted rows report zero rows affected; only count the
			// blocks this run actually created.
			inserted += int(tag.RowsAffected())
		}
	}

	logger.Info("seed complete",
		zap.Int("staff", len(staffIDs)),
		zap.Int("services", len(services)),
		zap.Int("blocks", inserted))
	return nil
}
