package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Litwebs/Levants-client/internal/cart"
	"github.com/Litwebs/Levants-client/internal/orders"
)

type Step int

const (
	StepDetails Step = iota + 1
	StepDelivery
	StepPayment
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "Details"
	case StepDelivery:
		return "Delivery"
	case StepPayment:
		return "Payment"
	default:
		return "Unknown"
	}
}

// FormData is everything collected across the three steps. Step 1 needs
// name and email, step 2 the delivery address.
type FormData struct {
	FirstName string `validate:"notblank"`
	LastName  string `validate:"notblank"`
	Email     string `validate:"notblank,shopemail"`
	Phone     string
	Address1  string `validate:"notblank"`
	Address2  string
	City      string `validate:"notblank"`
	Postcode  string `validate:"notblank"`

	DeliveryInstructions string
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Flow drives the three-step checkout: Details(1) → Delivery(2) →
// Payment(3). Forward transitions are guarded by field validation and,
// from step 2, by guest-customer creation and discount validation.
type Flow struct {
	mu       sync.Mutex
	cart     *cart.Store
	orders   *orders.Service
	validate *validator.Validate
	logger   *log.Logger

	step      Step
	form      FormData
	discount  string
	validated *orders.DiscountValidation
}

func NewFlow(cartStore *cart.Store, ordersSvc *orders.Service, logger *log.Logger) *Flow {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	v := validator.New()
	// required would accept all-whitespace input
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("shopemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return &Flow{
		cart:     cartStore,
		orders:   ordersSvc,
		validate: v,
		logger:   logger,
		step:     StepDetails,
	}
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) Form() FormData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

func (f *Flow) SetForm(form FormData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form = form
}

// SetDiscountCode records the discount field's current text. Any edit
// away from the validated code invalidates the cached validation; the
// comparison happens at validation time, case-insensitively.
func (f *Flow) SetDiscountCode(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discount = code
}

// ValidatedDiscount returns the cached validation, but only while the
// discount input still matches the validated code.
func (f *Flow) ValidatedDiscount() *orders.DiscountValidation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trustedDiscountLocked()
}

func (f *Flow) trustedDiscountLocked() *orders.DiscountValidation {
	if f.validated == nil {
		return nil
	}
	if !strings.EqualFold(f.validated.DiscountCode, strings.TrimSpace(f.discount)) {
		return nil
	}
	v := *f.validated
	return &v
}

// ValidateStep runs the client-side guards for the given step. The
// returned error carries the first user-facing message.
func (f *Flow) ValidateStep(step Step) error {
	form := f.Form()
	switch step {
	case StepDetails:
		err := f.validate.StructPartial(form, "FirstName", "LastName", "Email")
		return firstFieldError(err)
	case StepDelivery:
		err := f.validate.StructPartial(form, "Address1", "City", "Postcode")
		return firstFieldError(err)
	default:
		return nil
	}
}

func firstFieldError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.StructField() {
	case "FirstName":
		return errors.New("Please enter your first name.")
	case "LastName":
		return errors.New("Please enter your last name.")
	case "Email":
		if fe.Tag() == "shopemail" {
			return errors.New("Please enter a valid email address.")
		}
		return errors.New("Please enter your email address.")
	case "Address1":
		return errors.New("Please enter your address.")
	case "City":
		return errors.New("Please enter your city.")
	case "Postcode":
		return errors.New("Please enter your postcode.")
	default:
		return errors.New("Please check your details.")
	}
}

// Next advances one step. Step 1→2 is a pure validation gate; step 2→3
// additionally creates the guest customer (reused if one exists for the
// session) and validates any entered discount code.
func (f *Flow) Next(ctx context.Context) error {
	if f.orders.Loading() {
		return errors.New("a request is already in progress")
	}

	step := f.Step()
	if err := f.ValidateStep(step); err != nil {
		return err
	}

	switch step {
	case StepDetails:
		f.setStep(StepDelivery)
		return nil
	case StepDelivery:
		customer, err := f.ensureCustomer(ctx)
		if err != nil {
			return err
		}
		if err := f.ensureDiscountValidated(ctx, customer.ID); err != nil {
			return err
		}
		f.setStep(StepPayment)
		return nil
	default:
		return errors.New("already at the payment step")
	}
}

// Reset returns the flow to the first step and forgets the discount
// input and its cached validation, for a fresh checkout session.
// Contact and address details are kept for convenience.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepDetails
	f.discount = ""
	f.validated = nil
}

// Back moves one step backwards. It never re-triggers remote calls.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step > StepDetails {
		f.step--
	}
}

// PlaceOrder re-ensures the customer and discount validation, creates
// the order and returns the hosted-checkout redirect URL.
func (f *Flow) PlaceOrder(ctx context.Context) (string, error) {
	if f.Step() != StepPayment {
		return "", errors.New("not at the payment step")
	}

	customer, err := f.ensureCustomer(ctx)
	if err != nil {
		return "", err
	}
	if err := f.ensureDiscountValidated(ctx, customer.ID); err != nil {
		return "", err
	}

	form := f.Form()
	payload := orders.CreateOrderPayload{
		CustomerID:           customer.ID,
		Items:                f.orderItems(),
		DeliveryAddress:      f.deliveryAddress(form),
		DeliveryInstructions: strings.TrimSpace(form.DeliveryInstructions),
		DiscountCode:         f.discountCodeForOrder(),
	}

	url := f.orders.CreateOrder(ctx, payload)
	if url == "" {
		return "", errors.New(orDefault(f.orders.Err(), "Failed to create order. Please try again."))
	}
	return url, nil
}

func (f *Flow) ensureCustomer(ctx context.Context) (*orders.Customer, error) {
	if c := f.orders.Customer(); c != nil {
		return c, nil
	}

	form := f.Form()
	created := f.orders.CreateGuestCustomer(ctx, orders.CustomerPayload{
		Email:     strings.TrimSpace(form.Email),
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Phone:     strings.TrimSpace(form.Phone),
		Address:   f.deliveryAddress(form),
	})
	if created == nil {
		return nil, errors.New(orDefault(f.orders.Err(), "Failed to process your details. Please try again."))
	}
	return created, nil
}

func (f *Flow) ensureDiscountValidated(ctx context.Context, customerID string) error {
	f.mu.Lock()
	code := strings.TrimSpace(f.discount)
	if code == "" {
		f.validated = nil
		f.mu.Unlock()
		return nil
	}
	if trusted := f.trustedDiscountLocked(); trusted != nil {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	res := f.orders.ValidateDiscount(ctx, customerID, code, f.orderItems())
	if res == nil {
		return errors.New("Invalid discount code")
	}

	f.mu.Lock()
	f.validated = res
	f.mu.Unlock()
	return nil
}

func (f *Flow) orderItems() []orders.OrderItem {
	items := f.cart.Items()
	out := make([]orders.OrderItem, 0, len(items))
	for _, it := range items {
		ref := it.Product.ID
		if it.Variant != nil {
			ref = it.Variant.ID
		}
		out = append(out, orders.OrderItem{VariantID: ref, Quantity: it.Quantity})
	}
	return out
}

func (f *Flow) deliveryAddress(form FormData) *orders.Address {
	if strings.TrimSpace(form.Address1) == "" {
		return nil
	}
	return &orders.Address{
		Line1:    strings.TrimSpace(form.Address1),
		Line2:    strings.TrimSpace(form.Address2),
		City:     strings.TrimSpace(form.City),
		Postcode: strings.TrimSpace(form.Postcode),
		Country:  "UK",
	}
}

func (f *Flow) discountCodeForOrder() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v := f.trustedDiscountLocked(); v != nil {
		return v.DiscountCode
	}
	return strings.TrimSpace(f.discount)
}

func (f *Flow) setStep(step Step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = step
}

func orDefault(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// Totals is the authoritative checkout total calculation: the validated
// discount comes off the subtotal, and the delivery fee is computed on
// the undiscounted subtotal.
type Totals struct {
	Subtotal           decimal.Decimal
	Discount           decimal.Decimal
	DiscountedSubtotal decimal.Decimal
	DeliveryFee        decimal.Decimal
	Total              decimal.Decimal
}

func (f *Flow) Totals() Totals {
	subtotal := f.cart.Subtotal()
	fee := f.cart.DeliveryFee()

	discount := decimal.Zero
	if v := f.ValidatedDiscount(); v != nil {
		discount = decimal.NewFromFloat(v.DiscountAmount)
	}

	discounted := subtotal.Sub(discount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}

	return Totals{
		Subtotal:           subtotal,
		Discount:           discount,
		DiscountedSubtotal: discounted,
		DeliveryFee:        fee,
		Total:              discounted.Add(fee),
	}
}
