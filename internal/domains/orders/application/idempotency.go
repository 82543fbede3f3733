package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	ordertypes "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application/types"
)

type normalizedPlaceOrderInput struct {
	CustomerID string               `json:"customerId"`
	LocationID string               `json:"locationId"`
	Notes      string               `json:"notes"`
	Items      []normalizedLineItem `json:"items"`
}

type normalizedLineItem struct {
	MenuItemID          string   `json:"menuItemId"`
	Name                string   `json:"name"`
	Size                string   `json:"size"`
	Toppings            []string `json:"toppings"`
	Quantity            int      `json:"quantity"`
	UnitPrice           string   `json:"unitPrice"`
	SpecialInstructions string   `json:"specialInstructions"`
}

// FingerprintPlaceOrder builds a deterministic hash of the checkout payload (excluding the idempotency key).
func FingerprintPlaceOrder(input ordertypes.PlaceOrderInput) (string, error) {
	normalized := normalizedPlaceOrderInput{
		CustomerID: input.Customer.ID,
		LocationID: input.LocationID,
		Notes:      input.Notes,
		Items:      make([]normalizedLineItem, 0, len(input.Items)),
	}
	for _, item := range input.Items {
		normalized.Items = append(normalized.Items, normalizedLineItem{
			MenuItemID:          item.MenuItemID,
			Name:                item.Name,
			Size:                string(item.Size),
			Toppings:            item.Toppings,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice.String(),
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
