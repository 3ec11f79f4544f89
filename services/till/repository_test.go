package main

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/PlainGuy-Z/Point-of-Sale-sub000/pos"
)

// MockRepository para testes que não precisam de banco real
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Products(ctx context.Context) ([]pos.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]pos.Product), args.Error(1)
}

func (m *MockRepository) Product(ctx context.Context, productID string) (*pos.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Product), args.Error(1)
}

func (m *MockRepository) OrderHistory(ctx context.Context) ([]pos.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]pos.Order), args.Error(1)
}

func (m *MockRepository) CommitSettlement(ctx context.Context, order *pos.Order, decrements []pos.StockDecrement) error {
	args := m.Called(ctx, order, decrements)
	return args.Error(0)
}

func TestNewPostgresRepository(t *testing.T) {
	// Arrange
	var db *pgxpool.Pool // Mock pool

	// Act
	repo := NewPostgresRepository(db)

	// Assert
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgresRepository{}, repo)
}

func TestRepositoryImplementsSettlementStore(t *testing.T) {
	// The repository is the engine's atomic inventory collaborator.
	var _ pos.SettlementStore = NewPostgresRepository(nil)
	var _ pos.SettlementStore = new(MockRepository)
}

func TestMockRepository_Products(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	ctx := context.Background()
	expected := []pos.Product{{ID: "p-1", Name: "Nasi Goreng", Price: 25000, Stock: 5}}

	mockRepo.On("Products", ctx).Return(expected, nil)

	// Act
	products, err := mockRepo.Products(ctx)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, expected, products)
	mockRepo.AssertExpectations(t)
}

func TestMockRepository_Product(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	ctx := context.Background()
	expected := &pos.Product{ID: "p-1", Name: "Nasi Goreng", Price: 25000, Stock: 5}

	mockRepo.On("Product", ctx, "p-1").Return(expected, nil)
	mockRepo.On("Product", ctx, "ghost").Return(nil, pos.ErrProductNotFound)

	// Act / Assert
	product, err := mockRepo.Product(ctx, "p-1")
	assert.NoError(t, err)
	assert.Equal(t, expected, product)

	missing, err := mockRepo.Product(ctx, "ghost")
	assert.ErrorIs(t, err, pos.ErrProductNotFound)
	assert.Nil(t, missing)
	mockRepo.AssertExpectations(t)
}

func TestMockRepository_CommitSettlement(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	ctx := context.Background()
	order := &pos.Order{ID: "order-1", CreatedAt: time.Now(), Total: 105000, Method: pos.PaymentCash}
	decrements := []pos.StockDecrement{{ProductID: "p-1", Quantity: 3}}

	mockRepo.On("CommitSettlement", ctx, order, decrements).Return(nil)

	// Act
	err := mockRepo.CommitSettlement(ctx, order, decrements)

	// Assert
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestSettlementThroughRepositoryPort(t *testing.T) {
	// Arrange: the engine settles against the repository port
	mockRepo := new(MockRepository)
	mockRepo.On("Product", mock.Anything, "p-1").
		Return(&pos.Product{ID: "p-1", Name: "Nasi Goreng", Price: 25000, Cost: 10000, Stock: 5}, nil)
	mockRepo.On("CommitSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	lookup := pos.ProductLookupFunc(func(id string) (pos.Product, bool) {
		p, err := mockRepo.Product(context.Background(), id)
		if err != nil {
			return pos.Product{}, false
		}
		return *p, true
	})

	cart := pos.NewCart()
	assert.NoError(t, cart.AddCatalogProduct(lookup, "p-1"))

	// Act
	settlement := pos.NewSettlement(mockRepo)
	order, err := settlement.Settle(context.Background(), cart, pos.PaymentCash, 11, 50000, "")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, pos.Money(25000), order.Subtotal)
	assert.Equal(t, pos.Money(2750), order.Tax)
	assert.Equal(t, pos.Money(27750), order.Total)
	assert.Equal(t, pos.Money(22250), order.Change)
	assert.Equal(t, pos.CartStateSettled, cart.State())
	mockRepo.AssertExpectations(t)
}
