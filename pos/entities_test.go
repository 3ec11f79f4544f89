package pos

import (
	"errors"
	"testing"
	"time"
)

func TestParsePaymentMethod(t *testing.T) {
	// Arrange
	valid := []string{"cash", "card", "qris"}

	// Act / Assert
	for _, s := range valid {
		m, err := ParsePaymentMethod(s)
		if err != nil {
			t.Errorf("Expected %q to parse, got error %v", s, err)
		}
		if string(m) != s {
			t.Errorf("Expected method %q, got %q", s, m)
		}
		if !m.Valid() {
			t.Errorf("Expected %q to be valid", m)
		}
	}

	if _, err := ParsePaymentMethod("cheque"); !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Errorf("Expected ErrInvalidPaymentMethod, got %v", err)
	}
	if PaymentMethod("cheque").Valid() {
		t.Error("Expected unknown method to be invalid")
	}
}

func TestProductPromoActive(t *testing.T) {
	// Arrange
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.Local)
	product := Product{
		ID:         "p-1",
		Name:       "Kopi Susu",
		Price:      20000,
		PromoPrice: 15000,
		IsPromo:    true,
	}

	// Act / Assert
	if !product.PromoActive(now) {
		t.Error("Expected unbounded promo to be active")
	}

	product.PromoStart = now.Add(time.Hour)
	if product.PromoActive(now) {
		t.Error("Expected promo before its start to be inactive")
	}

	product.PromoStart = now.Add(-2 * time.Hour)
	product.PromoEnd = now.Add(-time.Hour)
	if product.PromoActive(now) {
		t.Error("Expected expired promo to be inactive")
	}

	product.PromoEnd = now.Add(time.Hour)
	if !product.PromoActive(now) {
		t.Error("Expected promo inside its window to be active")
	}

	product.IsPromo = false
	if product.PromoActive(now) {
		t.Error("Expected disabled promo to be inactive")
	}

	product.IsPromo = true
	product.PromoPrice = product.Price
	if product.PromoActive(now) {
		t.Error("Expected promo price equal to price to be inactive")
	}
}

func TestProductDiscountPercent(t *testing.T) {
	// Arrange
	product := Product{Price: 20000, PromoPrice: 15000, IsPromo: true}

	// Act
	discount := product.DiscountPercent()

	// Assert
	if discount != 0.25 {
		t.Errorf("Expected discount 0.25, got %f", discount)
	}

	product.IsPromo = false
	if product.DiscountPercent() != 0 {
		t.Error("Expected no discount without promo")
	}
}

func TestProductLowStock(t *testing.T) {
	tests := []struct {
		name     string
		stock    int
		minStock int
		want     bool
	}{
		{"below minimum", 2, 5, true},
		{"at minimum", 5, 5, true},
		{"above minimum", 6, 5, false},
		{"out of stock is not low stock", 0, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{Stock: tt.stock, MinStock: tt.minStock}
			if got := p.LowStock(); got != tt.want {
				t.Errorf("Expected LowStock %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCartLineSubtotal(t *testing.T) {
	// Arrange
	line := CartLine{Quantity: 3, UnitPrice: 35000, UnitCost: 12000}

	// Act / Assert
	if line.Subtotal() != 105000 {
		t.Errorf("Expected subtotal 105000, got %d", line.Subtotal())
	}
	if line.LineCost() != 36000 {
		t.Errorf("Expected line cost 36000, got %d", line.LineCost())
	}
}
