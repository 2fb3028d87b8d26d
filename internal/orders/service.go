package orders

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/Litwebs/Levants-client/internal/api"
)

// State is the session-scoped order/customer state. Only the outcome of
// the most recent request is retained; callers avoid double-submitting
// by gating on Loading.
type State struct {
	Customer    *Customer
	Loading     bool
	Error       string
	CheckoutURL string
}

// Service sequences guest-customer creation, discount validation and
// order creation against the backend. Remote failures are stored as a
// human-readable message and signalled by a nil/empty return; nothing
// is ever thrown at the caller.
type Service struct {
	mu     sync.Mutex
	api    *api.Client
	logger *log.Logger
	state  State
}

func NewService(apiClient *api.Client, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{api: apiClient, logger: logger}
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) Loading() bool { return s.State().Loading }
func (s *Service) Err() string   { return s.State().Error }

func (s *Service) Customer() *Customer { return s.State().Customer }

func (s *Service) CheckoutURL() string { return s.State().CheckoutURL }

// Reset clears customer, error and checkout URL back to the initial
// state, for a fresh checkout session.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
}

// CreateGuestCustomer creates a guest customer record. Returns nil on
// failure with the message available via Err.
func (s *Service) CreateGuestCustomer(ctx context.Context, payload CustomerPayload) *Customer {
	s.begin()

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Customer Customer `json:"customer"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := s.api.Post(ctx, "/customers/guest", payload, &env); err != nil {
		s.fail(messageOr(err, "Failed to create customer"))
		return nil
	}
	if !env.Success {
		s.fail(or(env.Message, "Failed to create customer"))
		return nil
	}

	customer := env.Data.Customer
	s.mu.Lock()
	s.state.Loading = false
	s.state.Error = ""
	s.state.Customer = &customer
	s.mu.Unlock()
	return &customer
}

// ValidateDiscount asks the backend whether a code applies to the given
// items. Returns nil when the code is invalid or the call fails. The
// cart is never touched.
func (s *Service) ValidateDiscount(ctx context.Context, customerID, code string, items []OrderItem) *DiscountValidation {
	s.begin()

	body := struct {
		CustomerID   string      `json:"customerId"`
		DiscountCode string      `json:"discountCode"`
		Items        []OrderItem `json:"items"`
	}{CustomerID: customerID, DiscountCode: code, Items: items}

	// The validate endpoint has been seen both with and without the
	// usual envelope; accept either.
	var env struct {
		Success *bool              `json:"success"`
		Data    DiscountValidation `json:"data"`
		Message string             `json:"message"`
		DiscountValidation
	}
	if err := s.api.Post(ctx, "/discounts/validate", body, &env); err != nil {
		s.fail(messageOr(err, "Invalid discount code"))
		return nil
	}
	if env.Success != nil && !*env.Success {
		s.fail(or(env.Message, "Invalid discount code"))
		return nil
	}

	result := env.Data
	if result.DiscountCode == "" {
		result = env.DiscountValidation
	}
	if result.DiscountCode == "" {
		s.fail(or(env.Message, "Invalid discount code"))
		return nil
	}

	s.finish()
	return &result
}

// CreateOrder places the order and returns the hosted-checkout redirect
// URL, or "" on failure.
func (s *Service) CreateOrder(ctx context.Context, payload CreateOrderPayload) string {
	s.begin()

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			OrderID     string `json:"orderId"`
			CheckoutURL string `json:"checkoutUrl"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := s.api.Post(ctx, "/orders", payload, &env); err != nil {
		s.fail(messageOr(err, "Failed to create order"))
		return ""
	}
	if !env.Success || env.Data.CheckoutURL == "" {
		s.fail(or(env.Message, "Failed to create order"))
		return ""
	}

	s.mu.Lock()
	s.state.Loading = false
	s.state.Error = ""
	s.state.CheckoutURL = env.Data.CheckoutURL
	s.mu.Unlock()
	return env.Data.CheckoutURL
}

// ListActiveDiscounts fetches the currently running promotions. It does
// not participate in the request state machine.
func (s *Service) ListActiveDiscounts(ctx context.Context) ([]Discount, error) {
	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Items []Discount `json:"items"`
		} `json:"data"`
	}
	if err := s.api.Get(ctx, "/discounts/active", nil, &env); err != nil {
		return nil, err
	}
	return env.Data.Items, nil
}

func (s *Service) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = true
	s.state.Error = ""
}

func (s *Service) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	s.state.Error = ""
}

func (s *Service) fail(msg string) {
	s.logger.Printf("order request failed: %s", msg)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	s.state.Error = msg
}

func or(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func messageOr(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
