package pos

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// CartState representa os possíveis estados do carrinho
type CartState string

const (
	CartStateEmpty     CartState = "empty"
	CartStateBuilding  CartState = "building"
	CartStateSettled   CartState = "settled"
	CartStateAbandoned CartState = "abandoned"
)

// manualCostFactor estima o custo de linhas manuais, que não têm custo real.
const manualCostFactor = 0.7

// ProductLookup resolve o estado ATUAL de um produto do catálogo
//
// Toda mutação do carrinho revalida o estoque contra o valor corrente em vez
// de confiar num valor observado antes; por isso o lookup é passado a cada
// operação e nunca guardado no carrinho.
type ProductLookup interface {
	Lookup(productID string) (Product, bool)
}

// ProductLookupFunc adapta uma função em ProductLookup
type ProductLookupFunc func(productID string) (Product, bool)

func (f ProductLookupFunc) Lookup(productID string) (Product, bool) {
	return f(productID)
}

// LinePatch representa uma edição parcial de uma linha do carrinho
type LinePatch struct {
	Quantity  *int
	Note      *string
	Modifiers *[]string
}

// Cart representa o pedido em construção de uma sessão de caixa
//
// Máquina de estados: empty -> building -> settled | abandoned. O carrinho
// pertence a exatamente uma sessão; após liquidar ou abandonar, a sessão
// descarta a instância e começa um carrinho vazio novo.
type Cart struct {
	lines []CartLine
	state CartState
	now   func() time.Time
}

// NewCart cria um carrinho vazio
func NewCart() *Cart {
	return &Cart{state: CartStateEmpty, now: time.Now}
}

// State retorna o estado atual do carrinho
func (c *Cart) State() CartState {
	return c.state
}

// Len retorna o número de linhas do carrinho
func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines retorna uma cópia das linhas do carrinho
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	for i, line := range c.lines {
		out[i] = line.clone()
	}
	return out
}

// AddCatalogProduct adiciona uma unidade de um produto do catálogo
//
// Se o produto está sem estoque a chamada é um no-op. Uma linha existente sem
// nota e sem modificadores para o mesmo produto é incrementada; caso
// contrário uma linha nova com quantidade 1 é criada, congelando preço
// promocional e custo no momento da criação.
func (c *Cart) AddCatalogProduct(catalog ProductLookup, productID string) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	product, ok := catalog.Lookup(productID)
	if !ok {
		return ErrProductNotFound
	}
	if product.Stock <= 0 {
		return nil
	}
	if c.reservedQuantity(productID, -1)+1 > product.Stock {
		return &StockExceededError{
			ProductID: productID,
			Stock:     product.Stock,
			Requested: c.reservedQuantity(productID, -1) + 1,
		}
	}

	for i := range c.lines {
		line := &c.lines[i]
		if !line.Manual && line.ProductID == productID && line.Note == "" && len(line.Modifiers) == 0 {
			line.Quantity++
			c.state = CartStateBuilding
			return nil
		}
	}

	newLine := CartLine{
		ProductID: productID,
		Name:      product.Name,
		Quantity:  1,
		UnitPrice: product.Price,
		UnitCost:  product.Cost,
	}
	if product.PromoActive(c.now()) {
		newLine.UnitPrice = product.PromoPrice
		newLine.Promo = &PromoSnapshot{
			OriginalPrice: product.Price,
			PromoPrice:    product.PromoPrice,
			Label:         product.PromoLabel,
		}
	}
	c.lines = append(c.lines, newLine)
	c.state = CartStateBuilding
	return nil
}

// AddManualLine adiciona uma linha avulsa sem vínculo com o catálogo
//
// O custo unitário é estimado como 70% do preço informado, já que linhas
// manuais não têm custo real cadastrado. Checagens de estoque nunca se
// aplicam a linhas manuais.
func (c *Cart) AddManualLine(name string, unitPrice Money, description string) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	title := capitalize(name)
	if title == "" || unitPrice <= 0 {
		return ErrInvalidManualLine
	}
	note := title
	if desc := strings.TrimSpace(description); desc != "" {
		note = title + " - " + desc
	}
	c.lines = append(c.lines, CartLine{
		ProductID: "manual-" + uuid.New().String(),
		Manual:    true,
		Name:      title,
		Quantity:  1,
		UnitPrice: unitPrice,
		UnitCost:  Money(math.Round(float64(unitPrice) * manualCostFactor)),
		Note:      note,
	})
	c.state = CartStateBuilding
	return nil
}

// SetQuantity define a quantidade absoluta de uma linha
//
// Linhas de catálogo são revalidadas contra o estoque ATUAL do produto,
// considerando o total reservado por todas as linhas do mesmo produto.
// Em caso de erro o carrinho permanece intacto.
func (c *Cart) SetQuantity(catalog ProductLookup, index, quantity int) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.lines) {
		return ErrLineNotFound
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	line := &c.lines[index]
	if !line.Manual {
		product, ok := catalog.Lookup(line.ProductID)
		if !ok {
			return ErrProductNotFound
		}
		if c.reservedQuantity(line.ProductID, index)+quantity > product.Stock {
			return &StockExceededError{
				ProductID: line.ProductID,
				Stock:     product.Stock,
				Requested: c.reservedQuantity(line.ProductID, index) + quantity,
			}
		}
	}
	line.Quantity = quantity
	return nil
}

// AdjustQuantity soma delta à quantidade de uma linha, com as mesmas regras
// de SetQuantity
func (c *Cart) AdjustQuantity(catalog ProductLookup, index, delta int) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.lines) {
		return ErrLineNotFound
	}
	return c.SetQuantity(catalog, index, c.lines[index].Quantity+delta)
}

// RemoveLine remove uma linha incondicionalmente
func (c *Cart) RemoveLine(index int) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.lines) {
		return ErrLineNotFound
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	if len(c.lines) == 0 {
		c.state = CartStateEmpty
	}
	return nil
}

// UpdateLine aplica uma edição parcial a uma linha existente
//
// Edições de quantidade são validadas exatamente como em SetQuantity; a
// edição inteira é aplicada por completo ou rejeitada por completo.
func (c *Cart) UpdateLine(catalog ProductLookup, index int, patch LinePatch) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.lines) {
		return ErrLineNotFound
	}
	line := &c.lines[index]

	if patch.Quantity != nil {
		quantity := *patch.Quantity
		if quantity < 1 {
			return ErrInvalidQuantity
		}
		if !line.Manual {
			product, ok := catalog.Lookup(line.ProductID)
			if !ok {
				return ErrProductNotFound
			}
			if c.reservedQuantity(line.ProductID, index)+quantity > product.Stock {
				return &StockExceededError{
					ProductID: line.ProductID,
					Stock:     product.Stock,
					Requested: c.reservedQuantity(line.ProductID, index) + quantity,
				}
			}
		}
		line.Quantity = quantity
	}
	if patch.Note != nil {
		line.Note = *patch.Note
	}
	if patch.Modifiers != nil {
		mods := make([]string, len(*patch.Modifiers))
		copy(mods, *patch.Modifiers)
		line.Modifiers = mods
	}
	return nil
}

// Abandon descarta o carrinho sem liquidação
func (c *Cart) Abandon() error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	c.state = CartStateAbandoned
	return nil
}

// Totals calcula os totais correntes do carrinho sem liquidá-lo
func (c *Cart) Totals(taxRatePercent float64) Totals {
	var subtotal, cost Money
	for i := range c.lines {
		subtotal += c.lines[i].Subtotal()
		cost += c.lines[i].LineCost()
	}
	tax := Money(math.Round(float64(subtotal) * taxRatePercent / 100))
	return Totals{
		Subtotal: subtotal,
		Cost:     cost,
		Tax:      tax,
		Total:    subtotal + tax,
		Profit:   subtotal - cost,
	}
}

// Totals agrega os componentes de preço de um carrinho ou pedido
type Totals struct {
	Subtotal Money `json:"subtotal"`
	Cost     Money `json:"cost"`
	Tax      Money `json:"tax"`
	Total    Money `json:"total"`
	Profit   Money `json:"profit"`
}

// markSettled é chamado pela liquidação após o commit do pedido.
func (c *Cart) markSettled() {
	c.state = CartStateSettled
}

func (c *Cart) ensureOpen() error {
	if c.state == CartStateSettled || c.state == CartStateAbandoned {
		return ErrCartClosed
	}
	return nil
}

// reservedQuantity soma as quantidades de todas as linhas de catálogo do
// produto, ignorando a linha excludeIndex quando >= 0.
func (c *Cart) reservedQuantity(productID string, excludeIndex int) int {
	total := 0
	for i := range c.lines {
		if i == excludeIndex || c.lines[i].Manual || c.lines[i].ProductID != productID {
			continue
		}
		total += c.lines[i].Quantity
	}
	return total
}

// capitalize coloca a primeira letra em maiúscula, preservando o restante.
func capitalize(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
