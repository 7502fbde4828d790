package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/loft-be/internal/models"
)

const teamColumns = `id, name, description, created_by, created_at, updated_at`

func (s *Store) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name`)
	return collect(rows, err, scanTeam)
}

func (s *Store) GetTeam(ctx context.Context, id uuid.UUID) (models.Team, error) {
	return scanTeam(s.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id))
}

func (s *Store) CreateTeam(ctx context.Context, t models.Team) (models.Team, error) {
	return scanTeam(s.pool.QueryRow(ctx, `
		INSERT INTO teams (name, description, created_by) VALUES ($1, $2, $3)
		RETURNING `+teamColumns, t.Name, t.Description, t.CreatedBy))
}

func (s *Store) UpdateTeam(ctx context.Context, t models.Team) (models.Team, error) {
	return scanTeam(s.pool.QueryRow(ctx, `
		UPDATE teams SET name = $2, description = $3, updated_at = NOW() WHERE id = $1
		RETURNING `+teamColumns, t.ID, t.Name, t.Description))
}

func (s *Store) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id))
}

func scanTeam(row pgx.Row) (models.Team, error) {
	var t models.Team
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Team{}, mapError(err)
	}
	return t, nil
}

const taskColumns = `id, title, description, status, due_date, assigned_to, team_id, loft_id, created_by, created_at, updated_at`

func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`)
	return collect(rows, err, scanTask)
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (models.Task, error) {
	return scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	return scanTask(s.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, status, due_date, assigned_to, team_id, loft_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+taskColumns,
		t.Title, t.Description, t.Status, t.DueDate, t.AssignedTo, t.TeamID, t.LoftID, t.CreatedBy))
}

func (s *Store) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	return scanTask(s.pool.QueryRow(ctx, `
		UPDATE tasks SET
			title = $2, description = $3, status = $4, due_date = $5,
			assigned_to = $6, team_id = $7, loft_id = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+taskColumns,
		t.ID, t.Title, t.Description, t.Status, t.DueDate, t.AssignedTo, t.TeamID, t.LoftID))
}

func (s *Store) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id))
}

func scanTask(row pgx.Row) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.AssignedTo, &t.TeamID, &t.LoftID,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Task{}, mapError(err)
	}
	return t, nil
}
