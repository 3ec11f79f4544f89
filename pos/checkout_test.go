package pos

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockSettlementStore simula o colaborador atômico de inventário
type MockSettlementStore struct {
	mock.Mock
}

func (m *MockSettlementStore) CommitSettlement(ctx context.Context, order *Order, decrements []StockDecrement) error {
	args := m.Called(ctx, order, decrements)
	return args.Error(0)
}

func buildingCart(t *testing.T) *Cart {
	t.Helper()
	catalog := newMutableCatalog(plainProduct())
	cart := NewCart()
	for i := 0; i < 3; i++ {
		assert.NoError(t, cart.AddCatalogProduct(catalog, "p-1"))
	}
	return cart
}

func TestSettleCashSuccess(t *testing.T) {
	// Arrange: subtotal=105000, cost=36000, tax rate 0%
	cart := buildingCart(t)
	store := new(MockSettlementStore)
	store.On("CommitSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	settlement := NewSettlement(store)

	// Act
	order, err := settlement.Settle(context.Background(), cart, PaymentCash, 0, 200000, "")

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, order)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, Money(105000), order.Subtotal)
	assert.Equal(t, Money(36000), order.Cost)
	assert.Equal(t, Money(0), order.Tax)
	assert.Equal(t, Money(105000), order.Total)
	assert.Equal(t, Money(69000), order.Profit)
	assert.Equal(t, Money(200000), order.Tendered)
	assert.Equal(t, Money(95000), order.Change)
	assert.Equal(t, PaymentCash, order.Method)
	assert.Equal(t, CartStateSettled, cart.State())
	store.AssertExpectations(t)
}

func TestSettleInsufficientCash(t *testing.T) {
	// Arrange
	cart := buildingCart(t)
	store := new(MockSettlementStore)
	settlement := NewSettlement(store)

	// Act
	order, err := settlement.Settle(context.Background(), cart, PaymentCash, 0, 50000, "")

	// Assert: no order, no store call, cart still building
	var payErr *InsufficientPaymentError
	assert.ErrorAs(t, err, &payErr)
	assert.Equal(t, Money(105000), payErr.Total)
	assert.Equal(t, Money(50000), payErr.Tendered)
	assert.Nil(t, order)
	assert.Equal(t, CartStateBuilding, cart.State())
	store.AssertNotCalled(t, "CommitSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleEmptyCart(t *testing.T) {
	// Arrange
	store := new(MockSettlementStore)
	settlement := NewSettlement(store)

	// Act
	order, err := settlement.Settle(context.Background(), NewCart(), PaymentCash, 0, 100000, "")

	// Assert
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, order)
}

func TestSettleInvalidMethod(t *testing.T) {
	// Arrange
	cart := buildingCart(t)
	store := new(MockSettlementStore)
	settlement := NewSettlement(store)

	// Act
	order, err := settlement.Settle(context.Background(), cart, PaymentMethod("cheque"), 0, 0, "")

	// Assert
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	assert.Nil(t, order)
	assert.Equal(t, CartStateBuilding, cart.State())
}

func TestSettleTaxComputation(t *testing.T) {
	// Arrange
	cart := buildingCart(t)
	store := new(MockSettlementStore)
	store.On("CommitSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	settlement := NewSettlement(store)

	// Act: 11% tax over 105000
	order, err := settlement.Settle(context.Background(), cart, PaymentCard, 11, 0, "cust-7")

	// Assert: tax is a pass-through, excluded from profit
	assert.NoError(t, err)
	assert.Equal(t, Money(11550), order.Tax)
	assert.Equal(t, Money(116550), order.Total)
	assert.Equal(t, Money(69000), order.Profit)
	assert.Equal(t, "cust-7", order.CustomerID)
}

func TestSettleNonCashIgnoresTendered(t *testing.T) {
	// Arrange
	cart := buildingCart(t)
	store := new(MockSettlementStore)
	store.On("CommitSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	settlement := NewSettlement(store)

	// Act: tendered below total is irrelevant for QRIS
	order, err := settlement.Settle(context.Background(), cart, PaymentQRIS, 0, 1, "")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, Money(105000), order.Tendered)
	assert.Equal(t, Money(0), order.Change)
}

func TestSettleStoreFailureLeavesCartBuilding(t *testing.T) {
	// Arrange
	cart := buildingCart(t)
	store := new(MockSettlementStore)
	storeErr := errors.New("stock changed underneath us")
	store.On("CommitSettlement", mock.Anything, mock.Anything, mock.Anything).Return(storeErr)
	settlement := NewSettlement(store)

	// Act
	order, err := settlement.Settle(context.Background(), cart, PaymentCash, 0, 200000, "")

	// Assert: the atomic unit failed, so nothing is observable
	assert.ErrorIs(t, err, storeErr)
	assert.Nil(t, order)
	assert.Equal(t, CartStateBuilding, cart.State())
	assert.Len(t, cart.Lines(), 1)
}

func TestSettleCannotRunTwice(t *testing.T) {
	// Arrange
	cart := buildingCart(t)
	store := new(MockSettlementStore)
	store.On("CommitSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	settlement := NewSettlement(store)

	// Act
	_, err := settlement.Settle(context.Background(), cart, PaymentCash, 0, 200000, "")
	assert.NoError(t, err)
	order, err := settlement.Settle(context.Background(), cart, PaymentCash, 0, 200000, "")

	// Assert
	assert.ErrorIs(t, err, ErrCartClosed)
	assert.Nil(t, order)
	store.AssertNumberOfCalls(t, "CommitSettlement", 1)
}

func TestSettleDecrementsAggregatePerProduct(t *testing.T) {
	// Arrange: catalog lines for two products plus a manual line
	catalog := newMutableCatalog(plainProduct(), promoProduct())
	cart := NewCart()
	assert.NoError(t, cart.AddCatalogProduct(catalog, "p-1"))
	note := "no chili"
	assert.NoError(t, cart.UpdateLine(catalog, 0, LinePatch{Note: &note}))
	assert.NoError(t, cart.AddCatalogProduct(catalog, "p-1"))
	assert.NoError(t, cart.AddCatalogProduct(catalog, "p-promo"))
	assert.NoError(t, cart.AddManualLine("Ongkir", 10000, ""))

	var captured []StockDecrement
	store := new(MockSettlementStore)
	store.On("CommitSettlement", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).([]StockDecrement)
		}).
		Return(nil)
	settlement := NewSettlement(store)

	// Act
	_, err := settlement.Settle(context.Background(), cart, PaymentCard, 0, 0, "")

	// Assert: p-1 aggregated across its two lines, manual line absent
	assert.NoError(t, err)
	assert.Equal(t, []StockDecrement{
		{ProductID: "p-1", Quantity: 2},
		{ProductID: "p-promo", Quantity: 1},
	}, captured)
}

func TestSettleOrderSnapshotsPromoData(t *testing.T) {
	// Arrange
	catalog := newMutableCatalog(promoProduct())
	cart := NewCart()
	assert.NoError(t, cart.AddCatalogProduct(catalog, "p-promo"))
	store := new(MockSettlementStore)
	store.On("CommitSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	settlement := NewSettlement(store)

	// Act
	order, err := settlement.Settle(context.Background(), cart, PaymentCash, 0, 10000, "")

	// Assert
	assert.NoError(t, err)
	if assert.Len(t, order.Lines, 1) && assert.NotNil(t, order.Lines[0].Promo) {
		assert.Equal(t, Money(10000), order.Lines[0].Promo.OriginalPrice)
		assert.Equal(t, Money(7000), order.Lines[0].UnitPrice)
	}
	assert.Equal(t, Money(7000), order.Subtotal)
	assert.Equal(t, Money(3000), order.Change)
}
