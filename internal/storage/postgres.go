package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/billstock/billstock-api/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS stock_items (
	key          TEXT PRIMARY KEY,
	bill         JSONB NOT NULL,
	imported_at  TIMESTAMPTZ NOT NULL,
	imported_by  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sales (
	id            UUID PRIMARY KEY,
	buyer         TEXT NOT NULL,
	note          TEXT NOT NULL DEFAULT '',
	items         JSONB NOT NULL,
	amount_total  TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
	id             UUID PRIMARY KEY,
	email          TEXT NOT NULL UNIQUE,
	full_name      TEXT NOT NULL,
	role           TEXT NOT NULL,
	password_hash  TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the persistence tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("storage: ensure schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// PostgresStock is the pgxpool-backed stock inventory.
type PostgresStock struct {
	pool *pgxpool.Pool
}

// NewPostgresStock wires a pgxpool-backed stock store.
func NewPostgresStock(pool *pgxpool.Pool) *PostgresStock {
	return &PostgresStock{pool: pool}
}

// Put stages an item. A second item with the same key is rejected.
func (s *PostgresStock) Put(ctx context.Context, item models.StockItem) error {
	bill, err := json.Marshal(item.Bill)
	if err != nil {
		return fmt.Errorf("storage: encode bill: %w", err)
	}

	const query = `
		INSERT INTO stock_items (key, bill, imported_at, imported_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query, item.Bill.Key, bill, item.ImportedAt, item.ImportedBy)
	if err != nil {
		return fmt.Errorf("storage: insert stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateKey
	}
	return nil
}

// Get returns the staged item for the given key.
func (s *PostgresStock) Get(ctx context.Context, key string) (models.StockItem, error) {
	const query = `
		SELECT bill, imported_at, imported_by
		FROM stock_items
		WHERE key = $1
	`

	var bill []byte
	var item models.StockItem
	err := s.pool.QueryRow(ctx, query, key).Scan(&bill, &item.ImportedAt, &item.ImportedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.StockItem{}, ErrNotFound
		}
		return models.StockItem{}, fmt.Errorf("storage: query stock item: %w", err)
	}
	if err := json.Unmarshal(bill, &item.Bill); err != nil {
		return models.StockItem{}, fmt.Errorf("storage: decode bill: %w", err)
	}
	return item, nil
}

// List returns all staged items ordered by import time, then key.
func (s *PostgresStock) List(ctx context.Context) ([]models.StockItem, error) {
	const query = `
		SELECT bill, imported_at, imported_by
		FROM stock_items
		ORDER BY imported_at ASC, key ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage: list stock: %w", err)
	}
	defer rows.Close()

	var items []models.StockItem
	for rows.Next() {
		var bill []byte
		var item models.StockItem
		if err := rows.Scan(&bill, &item.ImportedAt, &item.ImportedBy); err != nil {
			return nil, fmt.Errorf("storage: scan stock item: %w", err)
		}
		if err := json.Unmarshal(bill, &item.Bill); err != nil {
			return nil, fmt.Errorf("storage: decode bill: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate stock: %w", err)
	}
	return items, nil
}

// Remove deletes the staged item for the given key.
func (s *PostgresStock) Remove(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM stock_items WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("storage: delete stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresSales is the pgxpool-backed sale history ledger.
type PostgresSales struct {
	pool *pgxpool.Pool
}

// NewPostgresSales wires a pgxpool-backed sales ledger.
func NewPostgresSales(pool *pgxpool.Pool) *PostgresSales {
	return &PostgresSales{pool: pool}
}

// Append records a completed sale. Entries are never updated or removed.
func (s *PostgresSales) Append(ctx context.Context, sale models.Sale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return fmt.Errorf("storage: encode sale items: %w", err)
	}

	const query = `
		INSERT INTO sales (id, buyer, note, items, amount_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.pool.Exec(ctx, query, sale.ID, sale.Buyer, sale.Note, items, sale.AmountTotal.String(), sale.CreatedAt); err != nil {
		return fmt.Errorf("storage: insert sale: %w", err)
	}
	return nil
}

// List returns the full history, oldest first.
func (s *PostgresSales) List(ctx context.Context) ([]models.Sale, error) {
	const query = `
		SELECT id, buyer, note, items, amount_total, created_at
		FROM sales
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage: list sales: %w", err)
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var sale models.Sale
		var items []byte
		var amount string
		if err := rows.Scan(&sale.ID, &sale.Buyer, &sale.Note, &items, &amount, &sale.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan sale: %w", err)
		}
		if err := json.Unmarshal(items, &sale.Items); err != nil {
			return nil, fmt.Errorf("storage: decode sale items: %w", err)
		}
		total, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("storage: decode sale amount: %w", err)
		}
		sale.AmountTotal = total
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate sales: %w", err)
	}
	return sales, nil
}

// PostgresMembers is the pgxpool-backed member store.
type PostgresMembers struct {
	pool *pgxpool.Pool
}

// NewPostgresMembers wires a pgxpool-backed member store.
func NewPostgresMembers(pool *pgxpool.Pool) *PostgresMembers {
	return &PostgresMembers{pool: pool}
}

const memberColumns = `id, email, full_name, role, password_hash, created_at`

func scanMember(row pgx.Row) (models.Member, error) {
	var m models.Member
	err := row.Scan(&m.ID, &m.Email, &m.FullName, &m.Role, &m.PasswordHash, &m.CreatedAt)
	return m, err
}

// Create adds a member. E-mail addresses are unique.
func (s *PostgresMembers) Create(ctx context.Context, member models.Member) error {
	const query = `
		INSERT INTO members (id, email, full_name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query, member.ID, member.Email, member.FullName, member.Role, member.PasswordHash, member.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("storage: insert member: %w", err)
	}
	return nil
}

// GetByID fetches a member by id.
func (s *PostgresMembers) GetByID(ctx context.Context, id string) (models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	member, err := scanMember(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Member{}, ErrNotFound
		}
		return models.Member{}, fmt.Errorf("storage: query member by id: %w", err)
	}
	return member, nil
}

// GetByEmail fetches a member by e-mail.
func (s *PostgresMembers) GetByEmail(ctx context.Context, email string) (models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE email = $1`
	member, err := scanMember(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Member{}, ErrNotFound
		}
		return models.Member{}, fmt.Errorf("storage: query member by email: %w", err)
	}
	return member, nil
}

// List returns all members ordered by creation time, then e-mail.
func (s *PostgresMembers) List(ctx context.Context) ([]models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY created_at ASC, email ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage: list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate members: %w", err)
	}
	return members, nil
}

// Update replaces an existing member record.
func (s *PostgresMembers) Update(ctx context.Context, member models.Member) error {
	const query = `
		UPDATE members
		SET full_name = $2, role = $3, password_hash = $4
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, member.ID, member.FullName, member.Role, member.PasswordHash)
	if err != nil {
		return fmt.Errorf("storage: update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a member by id.
func (s *PostgresMembers) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
