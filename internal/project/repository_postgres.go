package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wichananm65/portfolio-backend/internal/database"
)

type PostgresRepository struct {
	conn database.Conn
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	projectColumns = `id, title, description, tech_stack, live_url, github_url, image, image_public_id, created_by, created_at, updated_at`

	listProjectsQuery = `
		SELECT ` + projectColumns + `
		FROM projects
		ORDER BY created_at DESC
	`
	getProjectByIDQuery = `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE id = $1
	`
	insertProjectQuery = `
		INSERT INTO projects (id, title, description, tech_stack, live_url, github_url, image, image_public_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	saveProjectQuery = `
		UPDATE projects
		SET title = $2,
			description = $3,
			tech_stack = $4,
			live_url = $5,
			github_url = $6,
			image = $7,
			image_public_id = $8,
			updated_at = $9
		WHERE id = $1
		RETURNING ` + projectColumns
	deleteProjectQuery = `
		DELETE FROM projects
		WHERE id = $1
		RETURNING ` + projectColumns
)

func NewPostgresRepository(conn database.Conn) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Project, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listProjectsQuery)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Project, error) {
	return r.one(ctx, getProjectByIDQuery, id)
}

func (r *PostgresRepository) Create(ctx context.Context, p Project) (Project, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return Project{}, err
	}

	_, err = db.ExecContext(ctx, insertProjectQuery,
		p.ID,
		p.Title,
		p.Description,
		pq.Array(tags(p.TechStack)),
		p.LiveURL,
		p.GithubURL,
		p.Image,
		p.ImagePublicID,
		sql.NullString{String: p.CreatedBy, Valid: p.CreatedBy != ""},
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Save(ctx context.Context, p Project) (Project, error) {
	return r.one(ctx, saveProjectQuery, p.ID,
		p.Title,
		p.Description,
		pq.Array(tags(p.TechStack)),
		p.LiveURL,
		p.GithubURL,
		p.Image,
		p.ImagePublicID,
		p.UpdatedAt,
	)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (Project, error) {
	return r.one(ctx, deleteProjectQuery, id)
}

// one runs a single-row query whose first parameter is the project id.
// Ids that are not UUIDs cannot exist, so they are reported as not found.
func (r *PostgresRepository) one(ctx context.Context, query, id string, rest ...any) (Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Project{}, ErrNotFound
	}

	db, err := r.conn.DB(ctx)
	if err != nil {
		return Project{}, err
	}

	args := append([]any{id}, rest...)
	p, err := scanProject(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("project %s: %w", id, err)
	}
	return p, nil
}

func scanProject(scanner rowScanner) (Project, error) {
	p := Project{}
	var createdBy sql.NullString
	if err := scanner.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		pq.Array(&p.TechStack),
		&p.LiveURL,
		&p.GithubURL,
		&p.Image,
		&p.ImagePublicID,
		&createdBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return Project{}, err
	}
	p.CreatedBy = createdBy.String
	p.TechStack = tags(p.TechStack)
	return p, nil
}

// tags never returns nil so the column and the JSON field stay arrays.
func tags(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
