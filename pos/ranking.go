package pos

import (
	"sort"
	"strings"
	"time"
)

// RankOptions parametriza o ranking de mais vendidos
//
// Now é o instante de referência da janela; o valor zero usa time.Now().
// Passar Now explicitamente mantém a função determinística em testes.
type RankOptions struct {
	Limit  int
	MinQty int
	Now    time.Time
}

// Rank calcula o ranking de mais vendidos numa janela móvel de windowDays dias
//
// A janela termina "hoje": windowDays=1 considera apenas pedidos do dia
// corrente (fuso do instante de referência). A função é pura: entradas
// idênticas produzem saídas idênticas, sem memoização interna.
func Rank(history []Order, windowDays int, opts RankOptions) []RankedProduct {
	if windowDays <= 0 {
		return nil
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := startOfToday.AddDate(0, 0, -(windowDays - 1))

	totals := make(map[string]*RankedProduct)
	for i := range history {
		order := &history[i]
		if order.CreatedAt.Before(cutoff) {
			continue
		}
		for j := range order.Lines {
			line := &order.Lines[j]
			// Linhas manuais têm IDs sintéticos e não pertencem ao catálogo.
			if line.Manual {
				continue
			}
			entry, ok := totals[line.ProductID]
			if !ok {
				entry = &RankedProduct{
					ProductID:  line.ProductID,
					Name:       line.Name,
					WindowDays: windowDays,
				}
				totals[line.ProductID] = entry
			}
			entry.QuantitySold += line.Quantity
			entry.Revenue += line.Subtotal()
		}
	}

	ranked := make([]RankedProduct, 0, len(totals))
	for _, entry := range totals {
		if opts.MinQty > 0 && entry.QuantitySold < opts.MinQty {
			continue
		}
		ranked = append(ranked, *entry)
	}

	// Ordem total determinística: quantidade desc, receita desc, nome asc.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].QuantitySold != ranked[j].QuantitySold {
			return ranked[i].QuantitySold > ranked[j].QuantitySold
		}
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return strings.ToLower(ranked[i].Name) < strings.ToLower(ranked[j].Name)
	})

	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
