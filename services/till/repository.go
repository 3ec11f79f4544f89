package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PlainGuy-Z/Point-of-Sale-sub000/pos"
)

// Repository define a interface para o armazenamento do caixa
type Repository interface {
	// Products retorna o catálogo completo
	Products(ctx context.Context) ([]pos.Product, error)

	// Product busca um produto pelo ID com o estoque corrente
	Product(ctx context.Context, productID string) (*pos.Product, error)

	// OrderHistory retorna o histórico de pedidos finalizados
	OrderHistory(ctx context.Context) ([]pos.Order, error)

	// CommitSettlement grava o pedido e aplica as baixas de estoque em uma
	// única transação (implementa pos.SettlementStore)
	CommitSettlement(ctx context.Context, order *pos.Order, decrements []pos.StockDecrement) error
}

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository cria uma nova instância de PostgresRepository
func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{db: db}
}

// Products retorna o catálogo completo
func (r *PostgresRepository) Products(ctx context.Context) ([]pos.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, category, price, cost, stock, min_stock,
		       is_promo, promo_price, promo_label, promo_start, promo_end
		FROM products
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []pos.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// Product busca um produto pelo ID
func (r *PostgresRepository) Product(ctx context.Context, productID string) (*pos.Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, category, price, cost, stock, min_stock,
		       is_promo, promo_price, promo_label, promo_start, promo_end
		FROM products WHERE id = $1
	`, productID)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pos.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// OrderHistory retorna todos os pedidos finalizados com suas linhas
func (r *PostgresRepository) OrderHistory(ctx context.Context) ([]pos.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, created_at, subtotal, cost, tax, total, profit,
		       method, tendered, change, customer_id
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []pos.Order
	index := make(map[string]int)
	for rows.Next() {
		var order pos.Order
		var customerID *string
		err := rows.Scan(&order.ID, &order.CreatedAt, &order.Subtotal, &order.Cost,
			&order.Tax, &order.Total, &order.Profit, &order.Method,
			&order.Tendered, &order.Change, &customerID)
		if err != nil {
			return nil, err
		}
		if customerID != nil {
			order.CustomerID = *customerID
		}
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := r.db.Query(ctx, `
		SELECT order_id, product_id, manual, name, quantity, unit_price, unit_cost,
		       promo_original_price, promo_snapshot_price, promo_label, note, modifiers
		FROM order_lines
		ORDER BY order_id, position
	`)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var orderID string
		var line pos.CartLine
		var promoOriginal, promoPrice *int64
		var promoLabel, note *string
		err := lineRows.Scan(&orderID, &line.ProductID, &line.Manual, &line.Name,
			&line.Quantity, &line.UnitPrice, &line.UnitCost,
			&promoOriginal, &promoPrice, &promoLabel, &note, &line.Modifiers)
		if err != nil {
			return nil, err
		}
		if note != nil {
			line.Note = *note
		}
		if promoOriginal != nil && promoPrice != nil {
			line.Promo = &pos.PromoSnapshot{
				OriginalPrice: *promoOriginal,
				PromoPrice:    *promoPrice,
			}
			if promoLabel != nil {
				line.Promo.Label = *promoLabel
			}
		}
		if at, ok := index[orderID]; ok {
			orders[at].Lines = append(orders[at].Lines, line)
		}
	}
	return orders, lineRows.Err()
}

// CommitSettlement aplica o pedido e as baixas de estoque como uma unidade
// atômica usando Lock Pessimista
//
// Cada produto afetado é travado com SELECT FOR UPDATE e o estoque é
// reconferido dentro da transação; qualquer falha desfaz tudo.
func (r *PostgresRepository) CommitSettlement(ctx context.Context, order *pos.Order, decrements []pos.StockDecrement) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin settlement transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, d := range decrements {
		var stock int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, d.ProductID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return pos.ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock product %s: %w", d.ProductID, err)
		}
		if stock < d.Quantity {
			return &pos.StockExceededError{ProductID: d.ProductID, Stock: stock, Requested: d.Quantity}
		}
		_, err = tx.Exec(ctx, `UPDATE products SET stock = stock - $1 WHERE id = $2`, d.Quantity, d.ProductID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for %s: %w", d.ProductID, err)
		}
	}

	var customerID *string
	if order.CustomerID != "" {
		customerID = &order.CustomerID
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, created_at, subtotal, cost, tax, total, profit, method, tendered, change, customer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, order.ID, order.CreatedAt, order.Subtotal, order.Cost, order.Tax, order.Total,
		order.Profit, string(order.Method), order.Tendered, order.Change, customerID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		var promoOriginal, promoPrice *int64
		var promoLabel *string
		if line.Promo != nil {
			promoOriginal = &line.Promo.OriginalPrice
			promoPrice = &line.Promo.PromoPrice
			promoLabel = &line.Promo.Label
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines (order_id, position, product_id, manual, name, quantity,
			                         unit_price, unit_cost, promo_original_price,
			                         promo_snapshot_price, promo_label, note, modifiers)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, order.ID, i, line.ProductID, line.Manual, line.Name, line.Quantity,
			line.UnitPrice, line.UnitCost, promoOriginal, promoPrice, promoLabel,
			nullIfEmpty(line.Note), line.Modifiers)
		if err != nil {
			return fmt.Errorf("failed to insert order line %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// scanProduct materializa um Product a partir de uma linha do banco.
func scanProduct(row pgx.Row) (*pos.Product, error) {
	var p pos.Product
	var promoPrice *int64
	var promoLabel *string
	var promoStart, promoEnd *time.Time
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Cost, &p.Stock,
		&p.MinStock, &p.IsPromo, &promoPrice, &promoLabel, &promoStart, &promoEnd)
	if err != nil {
		return nil, err
	}
	if promoPrice != nil {
		p.PromoPrice = *promoPrice
	}
	if promoLabel != nil {
		p.PromoLabel = *promoLabel
	}
	if promoStart != nil {
		p.PromoStart = *promoStart
	}
	if promoEnd != nil {
		p.PromoEnd = *promoEnd
	}
	return &p, nil
}
