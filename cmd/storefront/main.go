package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Litwebs/Levants-client/internal/api"
	"github.com/Litwebs/Levants-client/internal/cart"
	"github.com/Litwebs/Levants-client/internal/catalog"
	"github.com/Litwebs/Levants-client/internal/checkout"
	"github.com/Litwebs/Levants-client/internal/config"
	"github.com/Litwebs/Levants-client/internal/delivery"
	"github.com/Litwebs/Levants-client/internal/orders"
)

type app struct {
	logger   *log.Logger
	api      *api.Client
	catalog  *catalog.Store
	cart     *cart.Store
	orders   *orders.Service
	flow     *checkout.Flow
	delivery *delivery.Client
	in       *bufio.Scanner
	eof      bool
}

func main() {
	cfg := config.Load()
	logger := log.New(os.Stderr, "storefront ", log.LstdFlags)

	httpClient := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	apiClient := api.NewClient(cfg.APIBaseURL, httpClient, logger)

	var storage cart.Storage
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		storage = cart.NewRedisStorage(rdb, cfg.SessionID)
	} else {
		storage = cart.NewFileStorage(cfg.CartStoragePath)
	}

	cartStore := cart.NewStore(storage, logger)
	ordersSvc := orders.NewService(apiClient, logger)

	a := &app{
		logger:   logger,
		api:      apiClient,
		catalog:  catalog.NewStore(catalog.NewClient(apiClient), logger),
		cart:     cartStore,
		orders:   ordersSvc,
		flow:     checkout.NewFlow(cartStore, ordersSvc, logger),
		delivery: delivery.NewClient(apiClient),
		in:       bufio.NewScanner(os.Stdin),
	}

	fmt.Println("Levants Dairy storefront. Type 'help' for commands.")
	a.run()
}

func (a *app) run() {
	ctx := context.Background()
	for {
		fmt.Print("> ")
		if !a.in.Scan() {
			return
		}
		fields := strings.Fields(a.in.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			printHelp()
		case "products":
			a.listProducts(ctx, args)
		case "product":
			a.showProduct(ctx, args)
		case "add":
			a.addToCart(ctx, args)
		case "cart":
			a.printCart()
		case "remove":
			a.removeFromCart(args)
		case "qty":
			a.updateQuantity(args)
		case "clear":
			a.cart.Clear()
			fmt.Println("Cart cleared.")
		case "open":
			a.cart.Open()
			a.printCart()
		case "close":
			a.cart.Close()
		case "discounts":
			a.listDiscounts(ctx)
		case "postcode":
			a.checkPostcode(ctx, args)
		case "checkout":
			a.runCheckout(ctx)
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q; type 'help'\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  products [page]              list products
  product <id>                 show product detail
  add <id> [variantId] [qty]   add to cart
  cart                         show cart
  remove <id> [variantId]      remove a line
  qty <id> <n> [variantId]     set a line quantity
  open / close                 show or hide the cart drawer
  clear                        empty the cart
  discounts                    list active discount codes
  postcode <pc>                check delivery area
  checkout                     start checkout
  quit`)
}

func (a *app) listProducts(ctx context.Context, args []string) {
	q := catalog.Query{PageSize: 20}
	if len(args) > 0 {
		if page, err := strconv.Atoi(args[0]); err == nil {
			q.Page = page
		}
	}
	if err := a.catalog.FetchProducts(ctx, q); err != nil {
		fmt.Println("Failed to fetch products:", err)
		return
	}
	for _, p := range a.catalog.Products() {
		fmt.Printf("  %-24s %-20s £%.2f–£%.2f\n", p.ID, p.Name, p.Pricing.Min, p.Pricing.Max)
	}
	if meta, ok := a.catalog.Meta(); ok {
		fmt.Printf("  page %d of %d (%d products)\n", meta.Page, meta.TotalPages, meta.Total)
	}
}

func (a *app) showProduct(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: product <id>")
		return
	}
	p, err := a.catalog.FetchProduct(ctx, args[0])
	if err != nil {
		fmt.Println("Product not found:", err)
		return
	}
	fmt.Printf("%s (%s)\n%s\n", p.Name, p.Category, p.Description)
	if url := catalog.ResolveImageURL(a.api, p.ThumbnailImage); url != "" {
		fmt.Println("image:", url)
	}
	for _, v := range p.Variants {
		status := "in stock"
		if !v.InStock() {
			status = "out of stock"
		} else if v.LowStock {
			status = "low stock"
		}
		fmt.Printf("  %-24s %-16s £%.2f  %s\n", v.ID, v.Name, v.Price, status)
	}
}

func (a *app) addToCart(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: add <id> [variantId] [qty]")
		return
	}
	p, err := a.catalog.FetchProduct(ctx, args[0])
	if err != nil {
		fmt.Println("Product not found:", err)
		return
	}

	var variant *catalog.Variant
	qty := 1
	rest := args[1:]
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[len(rest)-1]); err == nil {
			qty = n
			rest = rest[:len(rest)-1]
		}
	}
	if len(rest) > 0 {
		for i := range p.Variants {
			if p.Variants[i].ID == rest[0] {
				variant = &p.Variants[i]
				break
			}
		}
		if variant == nil {
			fmt.Printf("no variant %q on %s\n", rest[0], p.ID)
			return
		}
	}

	a.cart.AddItem(p, variant, qty)
	fmt.Printf("Added. Cart has %d item(s).\n", a.cart.ItemCount())
}

func (a *app) printCart() {
	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Println("Your cart is empty.")
		return
	}
	for _, it := range items {
		name := it.Product.Name
		if it.Variant != nil {
			name += " / " + it.Variant.Name
		}
		fmt.Printf("  %-40s x%d  %s\n", name, it.Quantity, money(it.LineTotal()))
		if url := catalog.ResolveImageURL(a.api, it.Thumbnail()); url != "" {
			fmt.Printf("    %s\n", url)
		}
	}
	fmt.Printf("  subtotal %s\n", money(a.cart.Subtotal()))
	fee := a.cart.DeliveryFee()
	if fee.IsZero() {
		fmt.Println("  delivery FREE")
	} else {
		fmt.Printf("  delivery %s (add %s more for free delivery)\n", money(fee), money(a.cart.FreeDeliveryGap()))
	}
	fmt.Printf("  total    %s\n", money(a.cart.Total()))
}

func (a *app) removeFromCart(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: remove <id> [variantId]")
		return
	}
	variantID := ""
	if len(args) > 1 {
		variantID = args[1]
	}
	a.cart.RemoveItem(args[0], variantID)
	fmt.Printf("Cart has %d item(s).\n", a.cart.ItemCount())
}

func (a *app) updateQuantity(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: qty <id> <n> [variantId]")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Println("usage: qty <id> <n> [variantId]")
		return
	}
	variantID := ""
	if len(args) > 2 {
		variantID = args[2]
	}
	a.cart.UpdateQuantity(args[0], variantID, n)
	fmt.Printf("Cart has %d item(s).\n", a.cart.ItemCount())
}

func (a *app) listDiscounts(ctx context.Context) {
	discounts, err := a.orders.ListActiveDiscounts(ctx)
	if err != nil {
		fmt.Println("Failed to fetch discounts:", err)
		return
	}
	if len(discounts) == 0 {
		fmt.Println("No active discounts.")
		return
	}
	for _, d := range discounts {
		fmt.Printf("  %-16s %s\n", d.Code, d.Description)
	}
}

func (a *app) checkPostcode(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: postcode <pc>")
		return
	}
	res, err := a.delivery.CheckPostcode(ctx, strings.Join(args, " "))
	if err != nil {
		fmt.Println("Delivery check failed:", err)
		return
	}
	if res.Deliverable {
		fmt.Println("We deliver to that postcode.")
	} else {
		fmt.Println(orDefault(res.Message, "Sorry, that postcode is outside our delivery area."))
	}
}

func (a *app) runCheckout(ctx context.Context) {
	if a.cart.ItemCount() == 0 {
		fmt.Println("Your cart is empty.")
		return
	}

	for a.flow.Step() == checkout.StepDetails {
		form := a.flow.Form()
		form.FirstName = a.prompt("First name", form.FirstName)
		form.LastName = a.prompt("Last name", form.LastName)
		form.Email = a.prompt("Email", form.Email)
		form.Phone = a.prompt("Phone (optional)", form.Phone)
		if a.eof {
			a.abortCheckout()
			return
		}
		a.flow.SetForm(form)
		if err := a.flow.Next(ctx); err != nil {
			fmt.Println(err)
		}
	}

	for a.flow.Step() == checkout.StepDelivery {
		form := a.flow.Form()
		form.Address1 = a.prompt("Address line 1", form.Address1)
		form.Address2 = a.prompt("Address line 2 (optional)", form.Address2)
		form.City = a.prompt("City", form.City)
		form.Postcode = a.prompt("Postcode", form.Postcode)
		form.DeliveryInstructions = a.prompt("Delivery instructions (optional)", form.DeliveryInstructions)
		if a.eof {
			a.abortCheckout()
			return
		}
		a.flow.SetForm(form)

		if res, err := a.delivery.CheckPostcode(ctx, form.Postcode); err == nil && !res.Deliverable {
			fmt.Println(orDefault(res.Message, "Sorry, that postcode is outside our delivery area."))
			continue
		}

		a.flow.SetDiscountCode(a.prompt("Discount code (optional)", ""))
		if a.eof {
			a.abortCheckout()
			return
		}
		if err := a.flow.Next(ctx); err != nil {
			fmt.Println(err)
		}
	}

	totals := a.flow.Totals()
	fmt.Printf("Subtotal %s\n", money(totals.Subtotal))
	if totals.Discount.IsPositive() {
		fmt.Printf("Discount -%s\n", money(totals.Discount))
	}
	fmt.Printf("Delivery %s\nTotal    %s\n", money(totals.DeliveryFee), money(totals.Total))

	confirm := a.prompt("Place order? (y/n)", "")
	if a.eof {
		a.abortCheckout()
		return
	}
	if !strings.EqualFold(confirm, "y") {
		fmt.Println("Checkout cancelled.")
		a.flow.Reset()
		return
	}

	url, err := a.flow.PlaceOrder(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}

	// Clear before handing off: the payment page is external and the
	// user may never come back to this process. The flow resets so the
	// next checkout starts from step 1 with no stale discount.
	a.cart.Clear()
	a.orders.Reset()
	a.flow.Reset()
	fmt.Println("Order created. Complete payment at:")
	fmt.Println(" ", url)
}

func (a *app) abortCheckout() {
	fmt.Println("\nCheckout aborted.")
	a.flow.Reset()
}

// prompt reads one line, keeping the current value on blank input.
// When input is exhausted it sets a.eof and returns the current value.
func (a *app) prompt(label, current string) string {
	if a.eof {
		return current
	}
	if current != "" {
		fmt.Printf("%s [%s]: ", label, current)
	} else {
		fmt.Printf("%s: ", label)
	}
	if !a.in.Scan() {
		a.eof = true
		return current
	}
	text := strings.TrimSpace(a.in.Text())
	if text == "" {
		return current
	}
	return text
}

func money(d decimal.Decimal) string {
	return "£" + d.StringFixed(2)
}

func orDefault(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
