package pos

import (
	"errors"
	"fmt"
)

// Erros recuperáveis do motor; a camada de UI é responsável por
// traduzi-los em mensagens para o operador.
var (
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrProductNotFound      = errors.New("product not found")
	ErrEmptyCart            = errors.New("cart has no lines")
	ErrLineNotFound         = errors.New("cart line not found")
	ErrCartClosed           = errors.New("cart already settled or abandoned")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidManualLine    = errors.New("manual line requires a name and a positive price")
)

// StockExceededError indica que uma mutação do carrinho ultrapassaria o
// estoque atual do produto
type StockExceededError struct {
	ProductID string
	Stock     int
	Requested int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("stock exceeded for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Stock)
}

// InsufficientPaymentError indica pagamento em dinheiro menor que o total do pedido
type InsufficientPaymentError struct {
	Total    Money
	Tendered Money
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: tendered %d, total %d", e.Tendered, e.Total)
}
