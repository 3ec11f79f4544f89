package pos

import (
	"fmt"
	"time"
)

// Money representa um valor monetário em unidades inteiras da moeda (sem centavos).
type Money = int64

// PaymentMethod representa os métodos de pagamento aceitos pelo caixa
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentQRIS PaymentMethod = "qris"
)

// ParsePaymentMethod converte uma string em PaymentMethod validado
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCash, PaymentCard, PaymentQRIS:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
}

// Valid verifica se o método de pagamento é um dos valores conhecidos
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentQRIS:
		return true
	}
	return false
}

// Product representa um produto do catálogo
//
// O estoque é mutado apenas pelo colaborador de inventário; o motor de
// caixa trata Product como leitura e revalida Stock a cada mutação do carrinho.
type Product struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Category   string `json:"category" db:"category"`
	Price      Money  `json:"price" db:"price"`
	Cost       Money  `json:"cost" db:"cost"`
	Stock      int    `json:"stock" db:"stock"`
	MinStock   int    `json:"min_stock" db:"min_stock"`
	IsPromo    bool   `json:"is_promo" db:"is_promo"`
	PromoPrice Money  `json:"promo_price,omitempty" db:"promo_price"`
	PromoLabel string `json:"promo_label,omitempty" db:"promo_label"`
	// Janela opcional da promoção; zero significa sem limite.
	PromoStart time.Time `json:"promo_start,omitempty" db:"promo_start"`
	PromoEnd   time.Time `json:"promo_end,omitempty" db:"promo_end"`

	// Campos de exibição derivados do ranking de vendas (preenchidos por SortCatalog).
	RecentSalesCount int    `json:"recent_sales_count,omitempty" db:"-"`
	BestSellerRank   int    `json:"best_seller_rank,omitempty" db:"-"`
	BestSellerPeriod string `json:"best_seller_period,omitempty" db:"-"`
}

// PromoActive verifica se o produto está em promoção no instante dado
func (p *Product) PromoActive(at time.Time) bool {
	if !p.IsPromo || p.PromoPrice <= 0 || p.PromoPrice >= p.Price {
		return false
	}
	if !p.PromoStart.IsZero() && at.Before(p.PromoStart) {
		return false
	}
	if !p.PromoEnd.IsZero() && at.After(p.PromoEnd) {
		return false
	}
	return true
}

// DiscountPercent retorna o percentual de desconto da promoção (0 se não houver)
func (p *Product) DiscountPercent() float64 {
	if !p.IsPromo || p.PromoPrice <= 0 || p.Price <= 0 {
		return 0
	}
	return float64(p.Price-p.PromoPrice) / float64(p.Price)
}

// LowStock indica estoque baixo porém não esgotado
func (p *Product) LowStock() bool {
	return p.Stock > 0 && p.Stock <= p.MinStock
}

// PromoSnapshot congela os valores promocionais no momento em que a linha
// foi criada; mudanças posteriores na promoção do produto não alteram a linha.
type PromoSnapshot struct {
	OriginalPrice Money  `json:"original_price" db:"promo_original_price"`
	PromoPrice    Money  `json:"promo_price" db:"promo_price"`
	Label         string `json:"label" db:"promo_label"`
}

// CartLine representa uma linha do pedido em construção
type CartLine struct {
	ProductID string         `json:"product_id" db:"product_id"`
	Manual    bool           `json:"manual" db:"manual"`
	Name      string         `json:"name" db:"name"`
	Quantity  int            `json:"quantity" db:"quantity"`
	UnitPrice Money          `json:"unit_price" db:"unit_price"`
	UnitCost  Money          `json:"unit_cost" db:"unit_cost"`
	Promo     *PromoSnapshot `json:"promo,omitempty" db:"-"`
	Note      string         `json:"note,omitempty" db:"note"`
	Modifiers []string       `json:"modifiers,omitempty" db:"modifiers"`
}

// Subtotal retorna o total da linha (preço unitário x quantidade)
func (l *CartLine) Subtotal() Money {
	return l.UnitPrice * Money(l.Quantity)
}

// LineCost retorna o custo total da linha
func (l *CartLine) LineCost() Money {
	return l.UnitCost * Money(l.Quantity)
}

// clone devolve uma cópia profunda da linha para snapshots imutáveis.
func (l CartLine) clone() CartLine {
	if l.Promo != nil {
		promo := *l.Promo
		l.Promo = &promo
	}
	if l.Modifiers != nil {
		mods := make([]string, len(l.Modifiers))
		copy(mods, l.Modifiers)
		l.Modifiers = mods
	}
	return l
}

// Order representa um pedido finalizado no sistema
//
// Criado exatamente uma vez pela liquidação do checkout e nunca mutado depois.
type Order struct {
	ID         string        `json:"id" db:"id"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	Lines      []CartLine    `json:"lines" db:"-"`
	Subtotal   Money         `json:"subtotal" db:"subtotal"`
	Cost       Money         `json:"cost" db:"cost"`
	Tax        Money         `json:"tax" db:"tax"`
	Total      Money         `json:"total" db:"total"`
	Profit     Money         `json:"profit" db:"profit"`
	Method     PaymentMethod `json:"method" db:"method"`
	Tendered   Money         `json:"tendered" db:"tendered"`
	Change     Money         `json:"change" db:"change"`
	CustomerID string        `json:"customer_id,omitempty" db:"customer_id"`
}

// RankedProduct representa uma posição do ranking de mais vendidos
//
// Derivado e efêmero: recalculado sob demanda a partir do histórico de pedidos.
type RankedProduct struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	WindowDays   int    `json:"window_days"`
	QuantitySold int    `json:"quantity_sold"`
	Revenue      Money  `json:"revenue"`
	Rank         int    `json:"rank"`
}
