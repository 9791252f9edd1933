package product

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xenking/orderdesk/internal/domain"
	"github.com/xenking/orderdesk/internal/domain/order"
)

// ValidateName rejects blank names and names longer than MaxNameLength.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &domain.ValidationError{
			Field:  "name",
			Reason: "must be filled in before creating the product",
		}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return &domain.ValidationError{
			Field:  "name",
			Reason: "must not be longer than 50 characters",
		}
	}
	return nil
}

// ValidatePrice rejects missing, non-finite, zero and negative prices.
func ValidatePrice(price *float64) error {
	switch {
	case price == nil:
		return &domain.ValidationError{Field: "price", Reason: "is required"}
	case math.IsNaN(*price) || math.IsInf(*price, 0):
		return &domain.ValidationError{Field: "price", Reason: "must be a finite number"}
	case *price <= 0:
		return &domain.ValidationError{Field: "price", Reason: "must be greater than zero"}
	}
	return nil
}

// ValidateProductInUse returns an *InUseError naming the first order that
// links productID.
func ValidateProductInUse(productID int64, orders []order.Order) error {
	if holder, ok := order.Holder(orders, productID, 0); ok {
		return &InUseError{ProductID: productID, OrderID: holder.ID}
	}
	return nil
}
