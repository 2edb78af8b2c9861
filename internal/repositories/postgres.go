package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/friendloop/backend/internal/db"
	"github.com/friendloop/backend/internal/models"
)

const userColumns = `id, name, username, email, password_hash, password_reset_token, password_reset_expires_at, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Name, user.Username, user.Email, user.Password,
		user.PasswordResetToken, user.PasswordResetExpiresAt, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &ConflictError{Constraint: pgErr.ConstraintName}
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findBy(ctx, "id", id)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findBy(ctx, "email", email)
}

// FindByUsername fetches a user by their unique username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findBy(ctx, "username", username)
}

// FindByResetToken fetches the user holding an outstanding reset token.
func (r *PostgresUserRepository) FindByResetToken(ctx context.Context, token string) (models.User, error) {
	return r.findBy(ctx, "password_reset_token", token)
}

func (r *PostgresUserRepository) findBy(ctx context.Context, column, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE `+column+` = $1
    `, value)

	var user models.User
	if err := row.Scan(
		&user.ID, &user.Name, &user.Username, &user.Email, &user.Password,
		&user.PasswordResetToken, &user.PasswordResetExpiresAt, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by %s: %w", column, err)
	}

	return user, nil
}

// Update modifies an existing user record. Password and reset-token fields
// are written together so consuming a reset token is a single atomic update.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET name = $2,
            username = $3,
            email = $4,
            password_hash = $5,
            password_reset_token = $6,
            password_reset_expires_at = $7,
            updated_at = $8
        WHERE id = $1
    `, user.ID, user.Name, user.Username, user.Email, user.Password,
		user.PasswordResetToken, user.PasswordResetExpiresAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

const friendshipColumns = `id, sender_id, receiver_id, accepted, created_at, accepted_at`

// PostgresFriendshipRepository provides PostgreSQL-backed persistence for
// friendship edges.
type PostgresFriendshipRepository struct {
	pool db.Pool
}

// NewPostgresFriendshipRepository constructs a friendship repository backed by PostgreSQL.
func NewPostgresFriendshipRepository(pool db.Pool) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{pool: pool}
}

// Create persists a new pending edge.
func (r *PostgresFriendshipRepository) Create(ctx context.Context, edge models.Friendship) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO friendships (`+friendshipColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, edge.ID, edge.SenderID, edge.ReceiverID, edge.Accepted, edge.CreatedAt, edge.AcceptedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert friendship: %w", err)
	}

	return nil
}

// FindByID fetches an edge by primary key.
func (r *PostgresFriendshipRepository) FindByID(ctx context.Context, id string) (models.Friendship, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByPair fetches the edge with exactly this sender/receiver ordering.
func (r *PostgresFriendshipRepository) FindByPair(ctx context.Context, senderID, receiverID string) (models.Friendship, error) {
	return r.findOne(ctx, `WHERE sender_id = $1 AND receiver_id = $2`, senderID, receiverID)
}

func (r *PostgresFriendshipRepository) findOne(ctx context.Context, where string, args ...any) (models.Friendship, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Friendship{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+friendshipColumns+`
        FROM friendships
        `+where, args...)

	var edge models.Friendship
	if err := row.Scan(&edge.ID, &edge.SenderID, &edge.ReceiverID, &edge.Accepted, &edge.CreatedAt, &edge.AcceptedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Friendship{}, ErrNotFound
		}
		return models.Friendship{}, fmt.Errorf("select friendship: %w", err)
	}

	return edge, nil
}

// ListForUser returns all edges where the user is sender or receiver,
// pending and accepted alike.
func (r *PostgresFriendshipRepository) ListForUser(ctx context.Context, userID string) ([]models.Friendship, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+friendshipColumns+`
        FROM friendships
        WHERE sender_id = $1 OR receiver_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query friendships: %w", err)
	}
	defer rows.Close()

	var edges []models.Friendship
	for rows.Next() {
		var edge models.Friendship
		if err := rows.Scan(&edge.ID, &edge.SenderID, &edge.ReceiverID, &edge.Accepted, &edge.CreatedAt, &edge.AcceptedAt); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}

	return edges, nil
}

// SetAccepted flips an edge to accepted and records when.
func (r *PostgresFriendshipRepository) SetAccepted(ctx context.Context, id string, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE friendships
        SET accepted = true, accepted_at = $2
        WHERE id = $1
    `, id, at)
	if err != nil {
		return fmt.Errorf("update friendship: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes an edge permanently.
func (r *PostgresFriendshipRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM friendships
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ FriendshipRepository = (*PostgresFriendshipRepository)(nil)
