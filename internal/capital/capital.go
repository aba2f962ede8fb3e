// Package capital records equipment and supply purchases made for the shop.
package capital

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no capital item has the requested id.
var ErrNotFound = errors.New("capital item not found")

// Category groups capital purchases.
type Category string

const (
	CategoryPrinter  Category = "Printer"
	CategoryFilament Category = "Filament"
	CategoryParts    Category = "Parts"
	CategoryOther    Category = "Other"
)

// Item is one purchase. Price is the total paid for Quantity units.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name" validate:"required,max=120"`
	Price        float64   `json:"price" validate:"gt=0"`
	Quantity     int       `json:"quantity" validate:"gte=1"`
	Category     Category  `json:"category" validate:"oneof=Printer Filament Parts Other"`
	Platform     string    `json:"platform"`
	Store        string    `json:"store"`
	PurchaseDate string    `json:"purchase_date"`
	DateReceived string    `json:"date_received,omitempty"`
	OrderedBy    string    `json:"ordered_by"`
	PaidBy       string    `json:"paid_by"`
	ReceiptLink  string    `json:"receipt_link,omitempty" validate:"omitempty,url"`
	Remarks      string    `json:"remarks,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewItem returns an item with the defaults used for new purchases.
func NewItem() Item {
	return Item{Quantity: 1, Category: CategoryOther}
}

// Store reads and writes capital items in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore returns a Store using db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (it *Item) normalize() {
	it.Name = strings.TrimSpace(it.Name)
	if it.Quantity < 1 {
		it.Quantity = 1
	}
	if it.Category == "" {
		it.Category = CategoryOther
	}
	if it.PurchaseDate == "" {
		it.PurchaseDate = it.CreatedAt.Format(time.DateOnly)
	}
}

// Create inserts it with a new id.
func (s *Store) Create(ctx context.Context, it Item) (Item, error) {
	it.ID = uuid.NewString()
	it.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	it.normalize()

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO capital_items (
			id, name, price, quantity, category, platform, store, purchase_date,
			date_received, ordered_by, paid_by, receipt_link, remarks, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID, it.Name, it.Price, it.Quantity, it.Category, it.Platform, it.Store, it.PurchaseDate,
		it.DateReceived, it.OrderedBy, it.PaidBy, it.ReceiptLink, it.Remarks, it.CreatedAt.UnixMilli()); err != nil {
		return Item{}, fmt.Errorf("insert capital item: %w", err)
	}
	return it, nil
}

const itemColumns = `id, name, price, quantity, category, platform, store, purchase_date,
	date_received, ordered_by, paid_by, receipt_link, remarks, created_at`

func scanItem(row interface{ Scan(...any) error }) (Item, error) {
	var (
		it        Item
		createdAt int64
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Price, &it.Quantity, &it.Category, &it.Platform, &it.Store, &it.PurchaseDate,
		&it.DateReceived, &it.OrderedBy, &it.PaidBy, &it.ReceiptLink, &it.Remarks, &createdAt); err != nil {
		return Item{}, err
	}
	it.CreatedAt = time.UnixMilli(createdAt).UTC()
	return it, nil
}

// Get returns the item with id.
func (s *Store) Get(ctx context.Context, id string) (Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM capital_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("query capital item: %w", err)
	}
	return it, nil
}

// List returns up to limit items, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM capital_items ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query capital items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan capital item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate capital items: %w", err)
	}
	return items, nil
}

// Update replaces the stored fields of the item with id. The creation time
// is kept.
func (s *Store) Update(ctx context.Context, id string, it Item) (Item, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	it.ID = current.ID
	it.CreatedAt = current.CreatedAt
	it.normalize()

	if _, err := s.db.ExecContext(ctx, `
		UPDATE capital_items
		SET
			name = ?, price = ?, quantity = ?, category = ?, platform = ?, store = ?,
			purchase_date = ?, date_received = ?, ordered_by = ?, paid_by = ?,
			receipt_link = ?, remarks = ?
		WHERE id = ?
	`, it.Name, it.Price, it.Quantity, it.Category, it.Platform, it.Store,
		it.PurchaseDate, it.DateReceived, it.OrderedBy, it.PaidBy,
		it.ReceiptLink, it.Remarks, id); err != nil {
		return Item{}, fmt.Errorf("update capital item: %w", err)
	}
	return it, nil
}

// Delete removes the item with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM capital_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete capital item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete capital item: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
