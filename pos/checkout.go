package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StockDecrement representa a intenção de baixa de estoque de uma liquidação
type StockDecrement struct {
	ProductID string
	Quantity  int
}

// SettlementStore é o colaborador de inventário da liquidação
//
// CommitSettlement deve aplicar a gravação do pedido e as baixas de estoque
// como UMA unidade atômica: ou tudo é aplicado, ou nada é observável.
type SettlementStore interface {
	CommitSettlement(ctx context.Context, order *Order, decrements []StockDecrement) error
}

// Settlement contém a lógica de liquidação do checkout
type Settlement struct {
	store SettlementStore
	now   func() time.Time
}

// NewSettlement cria uma nova instância de Settlement
func NewSettlement(store SettlementStore) *Settlement {
	return &Settlement{store: store, now: time.Now}
}

// Settle finaliza o carrinho em um pedido imutável
//
// Cálculo: subtotal e custo somados sobre as linhas; imposto sobre o
// subtotal; lucro = subtotal - custo (imposto é repasse e não entra no
// lucro). Pagamento em dinheiro exige tendered >= total. O carrinho só
// transita para settled depois que o store confirma o commit atômico; em
// qualquer falha o carrinho permanece em building, sem mutação parcial.
func (s *Settlement) Settle(ctx context.Context, cart *Cart, method PaymentMethod, taxRatePercent float64, tendered Money, customerID string) (*Order, error) {
	if cart.Len() == 0 {
		return nil, ErrEmptyCart
	}
	if err := cart.ensureOpen(); err != nil {
		return nil, err
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}

	totals := cart.Totals(taxRatePercent)

	var change Money
	switch method {
	case PaymentCash:
		if tendered < totals.Total {
			return nil, &InsufficientPaymentError{Total: totals.Total, Tendered: tendered}
		}
		change = tendered - totals.Total
	default:
		// Cartão e QRIS capturam o valor exato; troco não se aplica.
		tendered = totals.Total
		change = 0
	}

	order := &Order{
		ID:         uuid.New().String(),
		CreatedAt:  s.now(),
		Lines:      cart.Lines(),
		Subtotal:   totals.Subtotal,
		Cost:       totals.Cost,
		Tax:        totals.Tax,
		Total:      totals.Total,
		Profit:     totals.Profit,
		Method:     method,
		Tendered:   tendered,
		Change:     change,
		CustomerID: customerID,
	}

	if err := s.store.CommitSettlement(ctx, order, Decrements(order.Lines)); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	cart.markSettled()
	return order, nil
}

// Decrements agrega as baixas de estoque por produto de catálogo
//
// Linhas manuais não movimentam estoque. A ordem de saída segue a primeira
// ocorrência de cada produto nas linhas, para travamento determinístico
// no store.
func Decrements(lines []CartLine) []StockDecrement {
	index := make(map[string]int)
	out := make([]StockDecrement, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		if line.Manual {
			continue
		}
		if at, ok := index[line.ProductID]; ok {
			out[at].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, StockDecrement{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return out
}
