package main

import (
	"sync"

	"github.com/PlainGuy-Z/Point-of-Sale-sub000/pos"
)

// Session é a dona explícita do carrinho em andamento do caixa
//
// Um caixa tem exatamente uma sessão ativa; o mutex apenas serializa as
// requisições HTTP da mesma sessão, não há concorrência multi-caixa.
type Session struct {
	mu   sync.Mutex
	cart *pos.Cart
}

// NewSession cria uma sessão com um carrinho vazio
func NewSession() *Session {
	return &Session{cart: pos.NewCart()}
}

// Do executa fn com acesso exclusivo ao carrinho corrente
func (s *Session) Do(fn func(cart *pos.Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cart)
}

// Settle executa a liquidação com acesso exclusivo e, em caso de sucesso,
// substitui o carrinho liquidado por um carrinho vazio novo
func (s *Session) Settle(fn func(cart *pos.Cart) (*pos.Order, error)) (*pos.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, err := fn(s.cart)
	if err != nil {
		return nil, err
	}
	s.cart = pos.NewCart()
	return order, nil
}

// Abandon descarta o carrinho corrente e começa um novo
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart.Len() > 0 || s.cart.State() == pos.CartStateBuilding {
		_ = s.cart.Abandon()
	}
	s.cart = pos.NewCart()
}
