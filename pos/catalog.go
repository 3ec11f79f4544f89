package pos

import (
	"fmt"
	"sort"
	"strings"
)

// CategoryAll desativa o filtro de categoria do catálogo.
const CategoryAll = "All"

// SortCatalog filtra e ordena o catálogo para exibição no caixa
//
// Filtro: nome contendo search (sem diferenciar maiúsculas) e categoria
// igual ao filtro, ou CategoryAll. Ordem (precedência de cima para baixo):
//
//  1. produtos sem estoque sempre por último;
//  2. promoções antes de não-promoções, maior desconto primeiro;
//  3. mais vendidos antes dos demais, menor rank primeiro;
//  4. estoque baixo antes de estoque adequado;
//  5. nome em ordem alfabética (sem diferenciar maiúsculas).
//
// A ordenação é estável e idempotente: reordenar uma lista já ordenada
// reproduz a mesma saída. A fatia de entrada não é mutada; as cópias
// retornadas recebem os campos de exibição do ranking.
func SortCatalog(products []Product, ranking []RankedProduct, search, category string) []Product {
	byProduct := make(map[string]RankedProduct, len(ranking))
	for _, r := range ranking {
		byProduct[r.ProductID] = r
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		if r, ok := byProduct[p.ID]; ok {
			p.RecentSalesCount = r.QuantitySold
			p.BestSellerRank = r.Rank
			p.BestSellerPeriod = fmt.Sprintf("%dd", r.WindowDays)
		} else {
			p.RecentSalesCount = 0
			p.BestSellerRank = 0
			p.BestSellerPeriod = ""
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return catalogLess(&out[i], &out[j])
	})
	return out
}

// catalogLess implementa a ordem total estrita do catálogo.
func catalogLess(a, b *Product) bool {
	aOut, bOut := a.Stock == 0, b.Stock == 0
	if aOut != bOut {
		return !aOut
	}

	aPromo := a.IsPromo && a.PromoPrice > 0
	bPromo := b.IsPromo && b.PromoPrice > 0
	if aPromo != bPromo {
		return aPromo
	}
	if aPromo && bPromo {
		if da, db := a.DiscountPercent(), b.DiscountPercent(); da != db {
			return da > db
		}
	}

	aBest := a.BestSellerRank > 0
	bBest := b.BestSellerRank > 0
	if aBest != bBest {
		return aBest
	}
	if aBest && bBest && a.BestSellerRank != b.BestSellerRank {
		return a.BestSellerRank < b.BestSellerRank
	}

	aLow, bLow := a.LowStock(), b.LowStock()
	if aLow != bLow {
		return aLow
	}

	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}
