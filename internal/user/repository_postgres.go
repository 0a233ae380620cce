package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wichananm65/portfolio-backend/internal/database"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	conn database.Conn
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	userColumns = `id, first_name, last_name, dob, email, password, image, image_public_id, created_at, updated_at`

	listUsersQuery = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at
	`
	getUserByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	getUserByEmailQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	insertUserQuery = `
		INSERT INTO users (id, first_name, last_name, dob, email, password, image, image_public_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	// every column keeps its value unless the matching argument is non-null
	updateUserQuery = `
		UPDATE users
		SET first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			dob = COALESCE($5, dob),
			password = COALESCE($6, password),
			image = COALESCE($7, image),
			image_public_id = COALESCE($8, image_public_id),
			updated_at = $9
		WHERE id = $1
		RETURNING ` + userColumns
)

func NewPostgresRepository(conn database.Conn) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, getUserByEmailQuery, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (User, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return User{}, err
	}

	user, err := scanUser(db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return User{}, err
	}

	_, err = db.ExecContext(ctx, insertUserQuery,
		user.ID,
		user.FirstName,
		user.LastName,
		user.DOB,
		user.Email,
		user.Password,
		user.Image,
		user.ImagePublicID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch, updatedAt time.Time) (User, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return User{}, err
	}

	row := db.QueryRowContext(ctx, updateUserQuery,
		id,
		nullable(patch.FirstName),
		nullable(patch.LastName),
		nullable(patch.Email),
		nullable(patch.DOB),
		nullable(patch.Password),
		nullable(patch.Image),
		nullable(patch.ImagePublicID),
		updatedAt,
	)
	user, err := scanUser(row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return User{}, ErrNotFound
		case isUniqueViolation(err):
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func scanUser(scanner rowScanner) (User, error) {
	user := User{}
	if err := scanner.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.DOB,
		&user.Email,
		&user.Password,
		&user.Image,
		&user.ImagePublicID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	return user, nil
}

func nullable(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
