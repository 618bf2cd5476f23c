package patient

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutridash/nutridash/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, name, city, energy_goal_kcal, energy_unit, protein_goal_g,
	carb_goal_g, fat_goal_g, fiber_goal_g, nutrition_state, created_at, updated_at`

func (r *patientRepoPG) scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.City, &p.EnergyGoalKcal, &p.EnergyUnit, &p.ProteinGoalG,
		&p.CarbGoalG, &p.FatGoalG, &p.FiberGoalG, &p.NutritionState, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	// Name check and insert share one transaction so two concurrent
	// creates cannot both pass the service-level duplicate check.
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		var exists bool
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM patients WHERE name = $1)`, p.Name).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrDuplicateName
		}
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO patients (id, name, city, energy_goal_kcal, energy_unit, protein_goal_g,
				carb_goal_g, fat_goal_g, fiber_goal_g, nutrition_state)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			p.ID, p.Name, p.City, p.EnergyGoalKcal, p.EnergyUnit, p.ProteinGoalG,
			p.CarbGoalG, p.FatGoalG, p.FiberGoalG, p.NutritionState)
		return err
	})
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByName(ctx context.Context, name string) (*Patient, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE name = $1`, name))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET name=$2, city=$3, energy_goal_kcal=$4, energy_unit=$5,
			protein_goal_g=$6, carb_goal_g=$7, fat_goal_g=$8, fiber_goal_g=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.City, p.EnergyGoalKcal, p.EnergyUnit, p.ProteinGoalG,
		p.CarbGoalG, p.FatGoalG, p.FiberGoalG)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) UpdateNutritionState(ctx context.Context, id uuid.UUID, state json.RawMessage) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET nutrition_state=$2, updated_at=NOW() WHERE id = $1`, id, state)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
