// Package sqlitestore persists swap orders in a SQLite database.
//
// Orders are stored as JSON snapshots keyed by ID, with the canonical
// secret hash maintained as a separate unique column so that the
// hash-to-order lookup and its uniqueness are enforced by the database.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/lockhaven/swapcore/errors"
	"github.com/lockhaven/swapcore/x/swap"

	_ "modernc.org/sqlite"
)

// Store is a swap.OrderStore backed by a SQLite database in WAL mode. It
// is safe for concurrent use.
type Store struct {
	db *sql.DB
}

var _ swap.OrderStore = (*Store)(nil)

// Open opens (or creates) the database at given path and initializes the
// schema.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id          TEXT PRIMARY KEY,
		secret_hash TEXT NOT NULL UNIQUE,
		status      INTEGER NOT NULL,
		body        TEXT NOT NULL,
		created_at  INTEGER NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the order with given ID.
func (s *Store) Get(ctx context.Context, orderID string) (*swap.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT body FROM orders WHERE id = ?`, orderID)
	return scanOrder(row, orderID)
}

// GetBySecretHash returns the order with given canonical secret hash.
func (s *Store) GetBySecretHash(ctx context.Context, secretHash []byte) (*swap.Order, error) {
	key := hex.EncodeToString(secretHash)
	row := s.db.QueryRowContext(ctx,
		`SELECT body FROM orders WHERE secret_hash = ?`, key)
	return scanOrder(row, key)
}

// Put inserts or overwrites an order. The secret hash column is unique, a
// second order with the same hash is rejected.
func (s *Store) Put(ctx context.Context, o *swap.Order) error {
	if o.ID == "" {
		return errors.Wrap(errors.ErrEmpty, "order id")
	}
	body, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "serialize order")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	return retryOnContention(func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO orders (id, secret_hash, status, body, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				status = excluded.status,
				body = excluded.body,
				updated_at = excluded.updated_at`,
			o.ID, hex.EncodeToString(o.SecretHash), int(o.Status), string(body), int64(o.CreatedAt), now,
		)
		if err != nil && isUniqueViolation(err) {
			return errors.Wrap(errors.ErrDuplicate, "an order with this secret hash exists")
		}
		return err
	})
}

// ListByStatus returns all orders with given status, ordered by ID. This
// is what an operator process uses to find orders that still need driving
// after a restart.
func (s *Store) ListByStatus(ctx context.Context, status swap.Status) ([]*swap.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM orders WHERE status = ? ORDER BY id`, int(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*swap.Order
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var o swap.Order
		if err := json.Unmarshal([]byte(body), &o); err != nil {
			return nil, errors.Wrap(err, "deserialize order")
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

func scanOrder(row *sql.Row, ref string) (*swap.Order, error) {
	var body string
	switch err := row.Scan(&body); {
	case err == sql.ErrNoRows:
		return nil, errors.Wrapf(errors.ErrNotFound, "order %q", ref)
	case err != nil:
		return nil, err
	}
	var o swap.Order
	if err := json.Unmarshal([]byte(body), &o); err != nil {
		return nil, errors.Wrap(err, "deserialize order")
	}
	return &o, nil
}
