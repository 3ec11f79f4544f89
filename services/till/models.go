package main

import "github.com/PlainGuy-Z/Point-of-Sale-sub000/pos"

// AddItemRequest representa a adição de um produto do catálogo ao carrinho
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// ManualLineRequest representa uma linha avulsa digitada pelo operador
type ManualLineRequest struct {
	Name        string `json:"name" binding:"required"`
	UnitPrice   int64  `json:"unit_price" binding:"required,gt=0"`
	Description string `json:"description"`
}

// QuantityRequest representa uma quantidade absoluta para uma linha
type QuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// AdjustRequest representa um ajuste relativo de quantidade
type AdjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// UpdateLineRequest representa uma edição parcial de uma linha
type UpdateLineRequest struct {
	Quantity  *int      `json:"quantity"`
	Note      *string   `json:"note"`
	Modifiers *[]string `json:"modifiers"`
}

// CheckoutRequest representa a liquidação do carrinho corrente
type CheckoutRequest struct {
	Method     string `json:"method" binding:"required"`
	Tendered   int64  `json:"tendered"`
	CustomerID string `json:"customer_id"`
}

// CartResponse representa o carrinho corrente com prévia de totais
type CartResponse struct {
	State  pos.CartState  `json:"state"`
	Lines  []pos.CartLine `json:"lines"`
	Totals pos.Totals     `json:"totals"`
}
