package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmorita/daifugo/internal/tracker"
	"github.com/kmorita/daifugo/internal/wire"
)

// ErrPlayerNotFound is returned when a player lookup yields no results.
var ErrPlayerNotFound = errors.New("player not found")

// Player represents a player account row.
type Player struct {
	ID               int64
	Username         string
	PasswordHash     string
	Points           int
	TournamentPoints int
	LoggedIn         bool
	CreatedAt        time.Time
}

// roomGate is an admission rule for one room port.
type roomGate struct {
	minPoints int
	open      bool
}

// PlayerRepository provides player persistence and implements the
// account-tracking operations the room server needs. Room gates are
// cached in memory and refreshed by ReloadConfig.
type PlayerRepository struct {
	db *pgxpool.Pool

	mu    sync.RWMutex
	gates map[int]roomGate
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool
// and loads the room gate table.
//
// Precondition: db must be a valid, open connection pool.
// Postcondition: Returns a repository with gates cached, or a non-nil error.
func NewPlayerRepository(ctx context.Context, db *pgxpool.Pool) (*PlayerRepository, error) {
	r := &PlayerRepository{db: db, gates: make(map[int]roomGate)}
	if err := r.ReloadConfig(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

var _ tracker.Tracker = (*PlayerRepository)(nil)

// Authenticate checks credentials for entry to the room on the given port.
//
// Postcondition: Returns the categorical outcome. Unknown usernames are
// registered and reported as AccountCreated; the caller aborts the
// connection for every outcome except Authenticated. On Authenticated the
// player's logged_in flag is set atomically, so a concurrent second login
// observes DoubleLogin.
func (r *PlayerRepository) Authenticate(ctx context.Context, name, password string, port int) (tracker.AuthResult, error) {
	p, err := r.getByUsername(ctx, name)
	if errors.Is(err, ErrPlayerNotFound) {
		if createErr := r.create(ctx, name, password); createErr != nil {
			if isDuplicateKeyError(createErr) {
				// Raced with another registration; treat as a failed create.
				return tracker.AccountCreateFailed, nil
			}
			return tracker.AccountCreateFailed, createErr
		}
		return tracker.AccountCreated, nil
	}
	if err != nil {
		return tracker.RoomClosed, err
	}

	if !CheckPassword(password, p.PasswordHash) {
		return tracker.CredentialMismatch, nil
	}

	gate, ok := r.gateFor(port)
	if !ok || !gate.open {
		return tracker.RoomClosed, nil
	}
	if p.Points < gate.minPoints {
		return tracker.InsufficientPoints, nil
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE players SET logged_in = TRUE
		 WHERE id = $1 AND logged_in = FALSE`,
		p.ID,
	)
	if err != nil {
		return tracker.RoomClosed, fmt.Errorf("marking login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tracker.DoubleLogin, nil
	}
	return tracker.Authenticated, nil
}

// UpdatePoints applies a ladder point delta.
//
// Postcondition: The player's points column is adjusted, or
// ErrPlayerNotFound if the identity is unknown.
func (r *PlayerRepository) UpdatePoints(ctx context.Context, id wire.Identity, delta int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET points = points + $2 WHERE username = $1`,
		string(id), delta,
	)
	if err != nil {
		return fmt.Errorf("updating points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// UpdateTournament applies a tournament point delta.
func (r *PlayerRepository) UpdateTournament(ctx context.Context, id wire.Identity, delta int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET tournament_points = tournament_points + $2 WHERE username = $1`,
		string(id), delta,
	)
	if err != nil {
		return fmt.Errorf("updating tournament points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// Points returns the ladder point total.
//
// Postcondition: Returns the total or ErrPlayerNotFound.
func (r *PlayerRepository) Points(ctx context.Context, id wire.Identity) (int, error) {
	var points int
	err := r.db.QueryRow(ctx,
		`SELECT points FROM players WHERE username = $1`,
		string(id),
	).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying points: %w", err)
	}
	return points, nil
}

// TournamentPoints returns the tournament point total.
func (r *PlayerRepository) TournamentPoints(ctx context.Context, id wire.Identity) (int, error) {
	var points int
	err := r.db.QueryRow(ctx,
		`SELECT tournament_points FROM players WHERE username = $1`,
		string(id),
	).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying tournament points: %w", err)
	}
	return points, nil
}

// Logout clears the logged_in flag. Idempotent.
//
// Postcondition: The flag is clear, or ErrPlayerNotFound for an unknown
// identity.
func (r *PlayerRepository) Logout(ctx context.Context, id wire.Identity) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET logged_in = FALSE WHERE username = $1`,
		string(id),
	)
	if err != nil {
		return fmt.Errorf("marking logout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// ReloadConfig re-reads the room_gates table into the in-memory cache.
//
// Postcondition: Subsequent Authenticate calls see the refreshed gates.
// On error the previous cache is kept.
func (r *PlayerRepository) ReloadConfig(ctx context.Context) error {
	rows, err := r.db.Query(ctx, `SELECT port, min_points, open FROM room_gates`)
	if err != nil {
		return fmt.Errorf("querying room gates: %w", err)
	}
	defer rows.Close()

	gates := make(map[int]roomGate)
	for rows.Next() {
		var port, minPoints int
		var open bool
		if err := rows.Scan(&port, &minPoints, &open); err != nil {
			return fmt.Errorf("scanning room gate: %w", err)
		}
		gates[port] = roomGate{minPoints: minPoints, open: open}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading room gates: %w", err)
	}

	r.mu.Lock()
	r.gates = gates
	r.mu.Unlock()
	return nil
}

// GetByUsername retrieves a player row. Used by tests and tooling.
//
// Postcondition: Returns the Player or ErrPlayerNotFound.
func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (Player, error) {
	return r.getByUsername(ctx, username)
}

func (r *PlayerRepository) getByUsername(ctx context.Context, username string) (Player, error) {
	var p Player
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash, points, tournament_points, logged_in, created_at
		 FROM players WHERE username = $1`,
		username,
	).Scan(&p.ID, &p.Username, &p.PasswordHash, &p.Points, &p.TournamentPoints, &p.LoggedIn, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Player{}, ErrPlayerNotFound
	}
	if err != nil {
		return Player{}, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

func (r *PlayerRepository) create(ctx context.Context, username, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO players (username, password_hash) VALUES ($1, $2)`,
		username, hash,
	)
	if err != nil {
		return fmt.Errorf("inserting player: %w", err)
	}
	return nil
}

func (r *PlayerRepository) gateFor(port int) (roomGate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gates[port]
	return g, ok
}
