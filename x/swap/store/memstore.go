// Package store provides order persistence backends for the swap engine.
//
// MemStore keeps everything in process memory and is the right choice for
// tests and single process deployments that replay their event log on
// start. The sqlitestore subpackage persists across restarts.
package store

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/google/btree"
	"github.com/lockhaven/swapcore/errors"
	"github.com/lockhaven/swapcore/x/swap"
)

const btreeDegree = 2

// orderItem adapts an order to the btree item interface. Orders are kept
// ordered by ID so that listing is deterministic.
type orderItem struct {
	order *swap.Order
}

func (i orderItem) Less(other btree.Item) bool {
	return i.order.ID < other.(orderItem).order.ID
}

// MemStore is an in-memory swap.OrderStore implementation. It is safe for
// concurrent use. All orders handed out are deep copies, the store owned
// state can only change through Put.
type MemStore struct {
	mu     sync.RWMutex
	orders *btree.BTree
	// byHash maps a hex encoded canonical secret hash to the order ID.
	byHash map[string]string
}

var _ swap.OrderStore = (*MemStore)(nil)

// NewMemStore returns an empty in-memory order store.
func NewMemStore() *MemStore {
	return &MemStore{
		orders: btree.New(btreeDegree),
		byHash: make(map[string]string),
	}
}

// Get returns a copy of the order with given ID.
func (s *MemStore) Get(ctx context.Context, orderID string) (*swap.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(orderID)
}

func (s *MemStore) get(orderID string) (*swap.Order, error) {
	it := s.orders.Get(orderItem{order: &swap.Order{ID: orderID}})
	if it == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "order %q", orderID)
	}
	return it.(orderItem).order.Copy(), nil
}

// GetBySecretHash returns a copy of the order with given canonical secret
// hash.
func (s *MemStore) GetBySecretHash(ctx context.Context, secretHash []byte) (*swap.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orderID, ok := s.byHash[hex.EncodeToString(secretHash)]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "no order with this secret hash")
	}
	return s.get(orderID)
}

// Put inserts or overwrites an order. The secret hash index is updated
// together with the order, under the same lock.
func (s *MemStore) Put(ctx context.Context, o *swap.Order) error {
	if o.ID == "" {
		return errors.Wrap(errors.ErrEmpty, "order id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := hex.EncodeToString(o.SecretHash)
	if ownerID, ok := s.byHash[key]; ok && ownerID != o.ID {
		return errors.Wrapf(errors.ErrDuplicate, "secret hash belongs to order %q", ownerID)
	}
	s.orders.ReplaceOrInsert(orderItem{order: o.Copy()})
	s.byHash[key] = o.ID
	return nil
}

// List returns copies of all stored orders, ordered by ID.
func (s *MemStore) List(ctx context.Context) ([]*swap.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]*swap.Order, 0, s.orders.Len())
	s.orders.Ascend(func(it btree.Item) bool {
		orders = append(orders, it.(orderItem).order.Copy())
		return true
	})
	return orders, nil
}
