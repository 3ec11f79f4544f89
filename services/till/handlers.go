package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/PlainGuy-Z/Point-of-Sale-sub000/pos"
)

// TillHandler contém os handlers HTTP do caixa
type TillHandler struct {
	repo       Repository
	session    *Session
	settlement *pos.Settlement
	tracer     trace.Tracer

	taxRatePercent  float64
	defaultWindow   int
	bestSellerLimit int

	ordersSettledCounter    metric.Int64Counter
	settlementFailedCounter metric.Int64Counter
	itemsAddedCounter       metric.Int64Counter
}

// NewTillHandler cria uma nova instância de TillHandler
func NewTillHandler(
	repo Repository,
	session *Session,
	settlement *pos.Settlement,
	tracer trace.Tracer,
	meter metric.Meter,
	taxRatePercent float64,
	defaultWindow int,
	bestSellerLimit int,
) *TillHandler {
	h := &TillHandler{
		repo:            repo,
		session:         session,
		settlement:      settlement,
		tracer:          tracer,
		taxRatePercent:  taxRatePercent,
		defaultWindow:   defaultWindow,
		bestSellerLimit: bestSellerLimit,
	}
	h.ordersSettledCounter, _ = meter.Int64Counter("pos_orders_settled_total")
	h.settlementFailedCounter, _ = meter.Int64Counter("pos_settlement_failures_total")
	h.itemsAddedCounter, _ = meter.Int64Counter("pos_cart_items_added_total")
	return h
}

// lookup adapta o repositório em pos.ProductLookup usando o contexto da
// requisição, garantindo que o estoque lido é sempre o corrente.
func (h *TillHandler) lookup(ctx context.Context) pos.ProductLookup {
	return pos.ProductLookupFunc(func(productID string) (pos.Product, bool) {
		p, err := h.repo.Product(ctx, productID)
		if err != nil || p == nil {
			return pos.Product{}, false
		}
		return *p, true
	})
}

// Catalog retorna o catálogo filtrado e ordenado para exibição
func (h *TillHandler) Catalog(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "catalog")
	defer span.End()

	search := c.Query("search")
	category := c.DefaultQuery("category", pos.CategoryAll)
	windowDays := queryInt(c, "window_days", h.defaultWindow)

	products, err := h.repo.Products(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	history, err := h.repo.OrderHistory(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ranking := pos.Rank(history, windowDays, pos.RankOptions{Limit: h.bestSellerLimit, MinQty: 1})
	sorted := pos.SortCatalog(products, ranking, search, category)

	span.SetAttributes(
		attribute.Int("window_days", windowDays),
		attribute.Int("products", len(sorted)),
	)
	c.JSON(http.StatusOK, gin.H{"products": sorted, "window_days": windowDays})
}

// BestSellers retorna o ranking de mais vendidos da janela pedida
func (h *TillHandler) BestSellers(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "best_sellers")
	defer span.End()

	windowDays := queryInt(c, "window_days", h.defaultWindow)
	if windowDays <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window_days must be positive"})
		return
	}
	limit := queryInt(c, "limit", h.bestSellerLimit)
	minQty := queryInt(c, "min_qty", 0)

	history, err := h.repo.OrderHistory(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ranking := pos.Rank(history, windowDays, pos.RankOptions{Limit: limit, MinQty: minQty})
	span.SetAttributes(attribute.Int("window_days", windowDays), attribute.Int("ranked", len(ranking)))
	c.JSON(http.StatusOK, gin.H{"ranking": ranking, "window_days": windowDays})
}

// Cart retorna o carrinho corrente com prévia de totais
func (h *TillHandler) Cart(c *gin.Context) {
	var resp CartResponse
	_ = h.session.Do(func(cart *pos.Cart) error {
		resp = CartResponse{
			State:  cart.State(),
			Lines:  cart.Lines(),
			Totals: cart.Totals(h.taxRatePercent),
		}
		return nil
	})
	c.JSON(http.StatusOK, resp)
}

// AddItem adiciona uma unidade de um produto do catálogo ao carrinho
func (h *TillHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.session.Do(func(cart *pos.Cart) error {
		return cart.AddCatalogProduct(h.lookup(c.Request.Context()), req.ProductID)
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	h.itemsAddedCounter.Add(c.Request.Context(), 1)
	h.respondCart(c)
}

// AddManual adiciona uma linha avulsa sem vínculo com o catálogo
func (h *TillHandler) AddManual(c *gin.Context) {
	var req ManualLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.session.Do(func(cart *pos.Cart) error {
		return cart.AddManualLine(req.Name, req.UnitPrice, req.Description)
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	h.itemsAddedCounter.Add(c.Request.Context(), 1)
	h.respondCart(c)
}

// UpdateItem aplica uma edição parcial a uma linha do carrinho
func (h *TillHandler) UpdateItem(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}
	var req UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.session.Do(func(cart *pos.Cart) error {
		return cart.UpdateLine(h.lookup(c.Request.Context()), index, pos.LinePatch{
			Quantity:  req.Quantity,
			Note:      req.Note,
			Modifiers: req.Modifiers,
		})
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	h.respondCart(c)
}

// SetQuantity define a quantidade absoluta de uma linha
func (h *TillHandler) SetQuantity(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.session.Do(func(cart *pos.Cart) error {
		return cart.SetQuantity(h.lookup(c.Request.Context()), index, req.Quantity)
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	h.respondCart(c)
}

// AdjustQuantity soma um delta à quantidade de uma linha
func (h *TillHandler) AdjustQuantity(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.session.Do(func(cart *pos.Cart) error {
		return cart.AdjustQuantity(h.lookup(c.Request.Context()), index, req.Delta)
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	h.respondCart(c)
}

// RemoveItem remove uma linha do carrinho
func (h *TillHandler) RemoveItem(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}

	err := h.session.Do(func(cart *pos.Cart) error {
		return cart.RemoveLine(index)
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	h.respondCart(c)
}

// AbandonCart descarta o carrinho corrente e começa um novo
func (h *TillHandler) AbandonCart(c *gin.Context) {
	h.session.Abandon()
	c.JSON(http.StatusOK, gin.H{"result": "abandoned"})
}

// Checkout liquida o carrinho corrente em um pedido imutável
func (h *TillHandler) Checkout(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "checkout")
	defer span.End()

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	method, err := pos.ParsePaymentMethod(req.Method)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.String("method", string(method)))

	order, err := h.session.Settle(func(cart *pos.Cart) (*pos.Order, error) {
		return h.settlement.Settle(ctx, cart, method, h.taxRatePercent, req.Tendered, req.CustomerID)
	})
	if err != nil {
		span.RecordError(err)
		h.settlementFailedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("method", string(method))))
		log.Printf("❌ Settlement failed: %v", err)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.Int64("total", order.Total),
	)
	h.ordersSettledCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("method", string(method))))
	log.Printf("✅ Order settled: %s | total=%d change=%d", order.ID, order.Total, order.Change)
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// HealthCheck verifica a saúde do serviço
func (h *TillHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "till-service",
	})
}

func (h *TillHandler) respondCart(c *gin.Context) {
	var resp CartResponse
	_ = h.session.Do(func(cart *pos.Cart) error {
		resp = CartResponse{
			State:  cart.State(),
			Lines:  cart.Lines(),
			Totals: cart.Totals(h.taxRatePercent),
		}
		return nil
	})
	c.JSON(http.StatusOK, resp)
}

// lineIndex extrai o índice de linha do path; responde 400 quando inválido.
func lineIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return 0, false
	}
	return index, true
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// statusForError mapeia os erros tipados do motor para códigos HTTP.
func statusForError(err error) int {
	var stockErr *pos.StockExceededError
	var payErr *pos.InsufficientPaymentError
	switch {
	case errors.As(err, &stockErr):
		return http.StatusConflict
	case errors.As(err, &payErr):
		return http.StatusPaymentRequired
	case errors.Is(err, pos.ErrProductNotFound), errors.Is(err, pos.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, pos.ErrInvalidQuantity),
		errors.Is(err, pos.ErrInvalidPaymentMethod),
		errors.Is(err, pos.ErrInvalidManualLine),
		errors.Is(err, pos.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, pos.ErrCartClosed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
