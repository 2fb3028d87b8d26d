package orders

// Address matches the backend's customer/delivery address shape.
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

type CustomerPayload struct {
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone,omitempty"`
	Address   *Address `json:"address,omitempty"`
}

type CustomerAddress struct {
	Address
	IsDefault bool `json:"isDefault"`
}

// Customer is the backend's customer record. The client only ever holds
// the snapshot returned when the guest customer was created.
type Customer struct {
	ID        string            `json:"_id"`
	Email     string            `json:"email"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Phone     string            `json:"phone"`
	Addresses []CustomerAddress `json:"addresses"`
	IsGuest   bool              `json:"isGuest"`
	Address   *Address          `json:"address"`
}

// OrderItem references a purchasable line by variant id; for products
// without variants the product id stands in.
type OrderItem struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderPayload struct {
	CustomerID           string      `json:"customerId"`
	Items                []OrderItem `json:"items"`
	DeliveryAddress      *Address    `json:"deliveryAddress,omitempty"`
	DeliveryInstructions string      `json:"deliveryInstructions,omitempty"`
	DiscountCode         string      `json:"discountCode,omitempty"`
}

// DiscountValidation is the backend's verdict on a discount code,
// obtained immediately before order placement.
type DiscountValidation struct {
	DiscountCode     string  `json:"discountCode"`
	DiscountAmount   float64 `json:"discountAmount"`
	EligibleSubtotal float64 `json:"eligibleSubtotal"`
}

// Discount is an entry from the active-discounts listing.
type Discount struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}
