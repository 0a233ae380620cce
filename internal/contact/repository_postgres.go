package contact

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wichananm65/portfolio-backend/internal/database"
)

type PostgresRepository struct {
	conn database.Conn
}

const (
	listContactsQuery = `
		SELECT id, fields, created_at, updated_at
		FROM contacts
		ORDER BY created_at DESC
	`
	insertContactQuery = `
		INSERT INTO contacts (id, fields, created_at, updated_at)
		VALUES ($1, $2::jsonb, $3, $4)
	`
	deleteContactQuery = `
		DELETE FROM contacts
		WHERE id = $1
		RETURNING id, fields, created_at, updated_at
	`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func NewPostgresRepository(conn database.Conn) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Contact, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listContactsQuery)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, c Contact) (Contact, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return Contact{}, err
	}

	c.Fields = withoutReserved(c.Fields)
	doc, err := json.Marshal(c.Fields)
	if err != nil {
		return Contact{}, fmt.Errorf("encode contact fields: %w", err)
	}
	if _, err := db.ExecContext(ctx, insertContactQuery, c.ID, string(doc), c.CreatedAt, c.UpdatedAt); err != nil {
		return Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (Contact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Contact{}, ErrNotFound
	}

	db, err := r.conn.DB(ctx)
	if err != nil {
		return Contact{}, err
	}

	c, err := scanContact(db.QueryRowContext(ctx, deleteContactQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, fmt.Errorf("delete contact %s: %w", id, err)
	}
	return c, nil
}

func scanContact(row rowScanner) (Contact, error) {
	var (
		c   Contact
		doc []byte
	)
	if err := row.Scan(&c.ID, &doc, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Contact{}, err
	}
	c.Fields = map[string]any{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &c.Fields); err != nil {
			return Contact{}, fmt.Errorf("decode contact %s: %w", c.ID, err)
		}
	}
	return c, nil
}
