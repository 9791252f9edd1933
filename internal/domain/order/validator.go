package order

import (
	"strings"

	"github.com/xenking/orderdesk/internal/domain"
)

// ValidateCustomerName rejects empty or whitespace-only customer names.
func ValidateCustomerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &domain.ValidationError{
			Field:  "customer name",
			Reason: "must be filled in before opening the order",
		}
	}
	return nil
}

// ValidateProductsBeforeClosing rejects closing an order without products.
func ValidateProductsBeforeClosing(products []OrderProduct) error {
	if len(products) == 0 {
		return &domain.ValidationError{
			Field:  "products",
			Reason: "add at least one product before closing the order",
		}
	}
	return nil
}
