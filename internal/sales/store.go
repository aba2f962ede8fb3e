package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/printprice/internal/pricing"
)

// ErrNotFound is returned when a product or sale id does not exist.
var ErrNotFound = errors.New("not found")

// Product is a stocked item sold at a VAT-inclusive price.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=120"`
	SKU       string    `json:"sku"`
	Category  string    `json:"category"`
	Price     float64   `json:"price" validate:"gte=0"`
	Cost      float64   `json:"cost" validate:"gte=0"`
	TaxRate   float64   `json:"tax_rate" validate:"gte=0,lte=100"`
	Stock     int       `json:"stock" validate:"gte=0"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductFromJob turns a priced job into an inventory product with no stock.
func ProductFromJob(name string, r pricing.Result, taxRate float64) Product {
	if strings.TrimSpace(name) == "" {
		name = "Untitled Print"
	}
	return Product{
		Name:     name,
		Category: "Print",
		Price:    r.Unit.FinalPrice,
		Cost:     r.Unit.ProductionCost,
		TaxRate:  taxRate,
	}
}

// Sale is a completed checkout.
type Sale struct {
	ID            string    `json:"id"`
	PaymentMethod string    `json:"payment_method"`
	Shipping      float64   `json:"shipping"`
	Items         []Line    `json:"items"`
	Totals        Totals    `json:"totals"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store reads and writes products and sales in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore returns a Store using db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// CreateProduct inserts p with a new id.
func (s *Store) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p.ID = uuid.NewString()
	p.Name = strings.TrimSpace(p.Name)
	p.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, sku, category, price, cost, tax_rate, stock, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.SKU, p.Category, p.Price, p.Cost, p.TaxRate, p.Stock, p.CreatedAt.UnixMilli()); err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

const productColumns = `id, name, COALESCE(sku, ''), COALESCE(category, ''), price, cost, tax_rate, stock, created_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var (
		p         Product
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.Price, &p.Cost, &p.TaxRate, &p.Stock, &createdAt); err != nil {
		return Product{}, err
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return p, nil
}

// GetProduct returns the product with id.
func (s *Store) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

// ListProducts returns all products newest first.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// UpdateProduct replaces the editable fields of the product with id.
func (s *Store) UpdateProduct(ctx context.Context, id string, p Product) (Product, error) {
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p.ID = id
	p.Name = strings.TrimSpace(p.Name)
	p.CreatedAt = current.CreatedAt

	if _, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, sku = ?, category = ?, price = ?, cost = ?, tax_rate = ?, stock = ?
		WHERE id = ?
	`, p.Name, p.SKU, p.Category, p.Price, p.Cost, p.TaxRate, p.Stock, id); err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// DeleteProduct removes the product with id. Past sales keep their lines.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectRow(result)
}

// Checkout records the cart as a sale and decrements product stock in one
// transaction. Nothing is written when any product lacks stock.
func (s *Store) Checkout(ctx context.Context, cart Cart, paymentMethod string, shipping float64) (Sale, error) {
	if len(cart.Lines) == 0 {
		return Sale{}, ErrEmptyCart
	}

	sale := Sale{
		ID:            uuid.NewString(),
		PaymentMethod: paymentMethod,
		Shipping:      shipping,
		Items:         append([]Line(nil), cart.Lines...),
		Totals:        Summarize(cart.Lines, shipping),
		CreatedAt:     s.now().UTC().Truncate(time.Millisecond),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Sale{}, fmt.Errorf("begin checkout transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, l := range sale.Items {
		if l.Kind != KindProduct {
			continue
		}
		if err := decrementStock(ctx, tx, l); err != nil {
			return Sale{}, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sales (id, payment_method, shipping, total_revenue, total_cost, total_profit, total_tax, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sale.ID, sale.PaymentMethod, sale.Shipping, sale.Totals.Revenue, sale.Totals.Cost, sale.Totals.Profit, sale.Totals.Tax, sale.CreatedAt.UnixMilli()); err != nil {
		return Sale{}, fmt.Errorf("insert sale: %w", err)
	}

	for _, l := range sale.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, kind, ref_id, name, quantity, unit_price, unit_cost, tax_rate, labor_cost, energy_cost)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sale.ID, l.Kind, l.RefID, l.Name, l.Quantity, l.UnitPrice, l.UnitCost, l.TaxRate, l.LaborCost, l.EnergyCost); err != nil {
			return Sale{}, fmt.Errorf("insert sale item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Sale{}, fmt.Errorf("commit checkout transaction: %w", err)
	}
	return sale, nil
}

func decrementStock(ctx context.Context, tx *sql.Tx, l Line) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?
	`, l.Quantity, l.RefID, l.Quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var stock int
	err = tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, l.RefID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %s: %w", l.RefID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query stock: %w", err)
	}
	return fmt.Errorf("%s: %w (%d in stock)", l.Name, ErrInsufficientStock, stock)
}

const saleColumns = `id, payment_method, shipping, total_revenue, total_cost, total_profit, total_tax, created_at`

func scanSale(row interface{ Scan(...any) error }) (Sale, error) {
	var (
		sale      Sale
		createdAt int64
	)
	if err := row.Scan(&sale.ID, &sale.PaymentMethod, &sale.Shipping, &sale.Totals.Revenue, &sale.Totals.Cost, &sale.Totals.Profit, &sale.Totals.Tax, &createdAt); err != nil {
		return Sale{}, err
	}
	sale.CreatedAt = time.UnixMilli(createdAt).UTC()
	sale.Items = make([]Line, 0)
	return sale, nil
}

// ListSales returns up to limit sales with their lines, newest first. A limit
// <= 0 returns all sales.
func (s *Store) ListSales(ctx context.Context, limit int) ([]Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	sales := make([]Sale, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close sales: %w", err)
	}

	if err := s.loadItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// GetSale returns the sale with id and its lines.
func (s *Store) GetSale(ctx context.Context, id string) (Sale, error) {
	sale, err := scanSale(s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Sale{}, ErrNotFound
	}
	if err != nil {
		return Sale{}, fmt.Errorf("query sale: %w", err)
	}
	sales := []Sale{sale}
	if err := s.loadItems(ctx, sales); err != nil {
		return Sale{}, err
	}
	return sales[0], nil
}

// loadItems fills the lines of sales, reading only the items that belong to
// them.
func (s *Store) loadItems(ctx context.Context, sales []Sale) error {
	if len(sales) == 0 {
		return nil
	}
	index := make(map[string]int, len(sales))
	args := make([]any, 0, len(sales))
	for i, sale := range sales {
		index[sale.ID] = i
		args = append(args, sale.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sales)), ",")

	rows, err := s.db.QueryContext(ctx, `
		SELECT sale_id, kind, ref_id, name, quantity, unit_price, unit_cost, tax_rate, labor_cost, energy_cost
		FROM sale_items
		WHERE sale_id IN (`+placeholders+`)
		ORDER BY id
	`, args...)
	if err != nil {
		return fmt.Errorf("query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			saleID string
			l      Line
		)
		if err := rows.Scan(&saleID, &l.Kind, &l.RefID, &l.Name, &l.Quantity, &l.UnitPrice, &l.UnitCost, &l.TaxRate, &l.LaborCost, &l.EnergyCost); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		i := index[saleID]
		sales[i].Items = append(sales[i].Items, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate sale items: %w", err)
	}
	return nil
}

// SalePatch corrects a recorded sale. Nil fields are left unchanged.
type SalePatch struct {
	PaymentMethod *string    `json:"payment_method" validate:"omitempty,oneof=cash gcash card other"`
	Revenue       *float64   `json:"total_revenue" validate:"omitempty,gte=0"`
	CreatedAt     *time.Time `json:"created_at"`
}

// UpdateSale applies p to the sale with id. A new revenue recomputes the
// profit against the recorded cost; lines and stock are not touched.
func (s *Store) UpdateSale(ctx context.Context, id string, p SalePatch) (Sale, error) {
	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if p.PaymentMethod != nil {
		sale.PaymentMethod = *p.PaymentMethod
	}
	if p.Revenue != nil {
		sale.Totals.Revenue = *p.Revenue
		sale.Totals.Profit = sale.Totals.Revenue - sale.Totals.Cost
	}
	if p.CreatedAt != nil {
		sale.CreatedAt = p.CreatedAt.UTC().Truncate(time.Millisecond)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sales
		SET payment_method = ?, total_revenue = ?, total_profit = ?, created_at = ?
		WHERE id = ?
	`, sale.PaymentMethod, sale.Totals.Revenue, sale.Totals.Profit, sale.CreatedAt.UnixMilli(), id)
	if err != nil {
		return Sale{}, fmt.Errorf("update sale: %w", err)
	}
	if err := expectRow(result); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// DeleteSale removes the sale with id and its lines. Stock is not restored.
func (s *Store) DeleteSale(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete sale transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = ?`, id); err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if err := expectRow(result); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete sale transaction: %w", err)
	}
	return nil
}

func expectRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
