package main

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Litwebs/Levants-client/internal/api"
	"github.com/Litwebs/Levants-client/internal/cart"
	"github.com/Litwebs/Levants-client/internal/catalog"
	"github.com/Litwebs/Levants-client/internal/checkout"
	"github.com/Litwebs/Levants-client/internal/delivery"
	"github.com/Litwebs/Levants-client/internal/orders"
)

func newTestApp(t *testing.T, input string) *app {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	t.Cleanup(srv.Close)

	apiClient := api.NewClient(srv.URL, srv.Client(), nil)
	cartStore := cart.NewStore(cart.NewMemoryStorage(), nil)
	ordersSvc := orders.NewService(apiClient, nil)
	return &app{
		api:      apiClient,
		cart:     cartStore,
		orders:   ordersSvc,
		flow:     checkout.NewFlow(cartStore, ordersSvc, nil),
		delivery: delivery.NewClient(apiClient),
		in:       bufio.NewScanner(strings.NewReader(input)),
	}
}

func TestPromptReportsExhaustedInput(t *testing.T) {
	a := newTestApp(t, "")

	got := a.prompt("First name", "Jo")

	assert.Equal(t, "Jo", got)
	assert.True(t, a.eof)
}

func TestPromptKeepsCurrentOnBlankLine(t *testing.T) {
	a := newTestApp(t, "\n")

	got := a.prompt("First name", "Jo")

	assert.Equal(t, "Jo", got)
	assert.False(t, a.eof)
}

func TestRunCheckoutStopsWhenInputExhausted(t *testing.T) {
	a := newTestApp(t, "")
	a.cart.AddItem(catalog.Product{ID: "farm-fresh-milk", Pricing: catalog.Pricing{Min: 2.49}}, nil, 1)

	done := make(chan struct{})
	go func() {
		a.runCheckout(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("checkout loop kept running after input was exhausted")
	}
	assert.Equal(t, checkout.StepDetails, a.flow.Step())
}
