package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// catalogResponse espelha a resposta de GET /api/catalog do serviço
type catalogResponse struct {
	Products []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Stock int    `json:"stock"`
	} `json:"products"`
}

// Gera carga no serviço de caixa: navega o catálogo, adiciona itens e
// liquida o pedido, medindo a latência de cada checkout completo.
func main() {
	baseURL := getEnv("TILL_URL", "http://localhost:8080")
	iterations := getEnvInt("ITERATIONS", 50)
	itemsPerOrder := getEnvInt("ITEMS_PER_ORDER", 3)

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)

	log.Printf("🚀 Benchmarking till at %s (%d orders, %d items each)", baseURL, iterations, itemsPerOrder)

	var latencies []time.Duration
	failures := 0
	for i := 0; i < iterations; i++ {
		elapsed, err := runCheckout(client, itemsPerOrder)
		if err != nil {
			failures++
			log.Printf("❌ Checkout %d failed: %v", i+1, err)
			// Descarta o carrinho para não contaminar a próxima iteração.
			_, _ = client.R().Delete("/api/cart")
			continue
		}
		latencies = append(latencies, elapsed)
	}

	if len(latencies) == 0 {
		log.Fatal("No successful checkouts")
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	fmt.Printf("\nCheckouts: %d ok, %d failed\n", len(latencies), failures)
	fmt.Printf("p50: %v\n", latencies[len(latencies)/2])
	fmt.Printf("p95: %v\n", latencies[len(latencies)*95/100])
	fmt.Printf("max: %v\n", latencies[len(latencies)-1])
}

// runCheckout executa um fluxo completo: catálogo -> carrinho -> liquidação.
func runCheckout(client *resty.Client, itemsPerOrder int) (time.Duration, error) {
	start := time.Now()

	var catalog catalogResponse
	resp, err := client.R().SetResult(&catalog).Get("/api/catalog")
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, fmt.Errorf("catalog returned %s", resp.Status())
	}

	added := 0
	for _, p := range catalog.Products {
		if added == itemsPerOrder {
			break
		}
		if p.Stock == 0 {
			continue
		}
		resp, err := client.R().
			SetBody(map[string]string{"product_id": p.ID}).
			Post("/api/cart/items")
		if err != nil {
			return 0, err
		}
		if resp.IsError() {
			return 0, fmt.Errorf("add item %s returned %s", p.ID, resp.Status())
		}
		added++
	}
	if added == 0 {
		return 0, fmt.Errorf("no products in stock")
	}

	resp, err = client.R().
		SetBody(map[string]any{"method": "cash", "tendered": 100000000}).
		Post("/api/checkout")
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, fmt.Errorf("checkout returned %s", resp.Status())
	}

	return time.Since(start), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
