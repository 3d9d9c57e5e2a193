package application

import (
	"context"
	"sync"

	"yuxian/internal/service/order/domain"
	"yuxian/internal/service/order/port"
)

// fakeStore 是一个进程内的台账实现，配合 fakeTxManager 模拟
// 数据库事务的两个关键性质：串行化互斥和失败回滚。
type fakeStore struct {
	mu sync.Mutex

	products map[int64]*domain.Product
	orders   map[int64]*domain.Order
	grants   map[int64]*domain.CouponGrant
	feedback []*domain.RefundFeedback

	nextOrderID    int64
	nextFeedbackID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[int64]*domain.Product),
		orders:   make(map[int64]*domain.Order),
		grants:   make(map[int64]*domain.CouponGrant),
	}
}

func (s *fakeStore) putProduct(p *domain.Product) {
	cp := *p
	s.products[p.ID] = &cp
}

func (s *fakeStore) putGrant(g *domain.CouponGrant) {
	cp := *g
	s.grants[g.ID] = &cp
}

func (s *fakeStore) putOrder(o *domain.Order) {
	if o.ID == 0 {
		s.nextOrderID++
		o.ID = s.nextOrderID
	}
	s.orders[o.ID] = cloneOrder(o)
}

func (s *fakeStore) stockOf(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

func (s *fakeStore) orderByID(id int64) *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrder(s.orders[id])
}

func (s *fakeStore) grantByID(id int64) *domain.CouponGrant {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.grants[id]
	return &cp
}

func cloneOrder(o *domain.Order) *domain.Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
	if o.CouponGrantID != nil {
		id := *o.CouponGrantID
		cp.CouponGrantID = &id
	}
	return &cp
}

type storeSnapshot struct {
	products map[int64]*domain.Product
	orders   map[int64]*domain.Order
	grants   map[int64]*domain.CouponGrant
	feedback []*domain.RefundFeedback

	nextOrderID    int64
	nextFeedbackID int64
}

func (s *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		products:       make(map[int64]*domain.Product, len(s.products)),
		orders:         make(map[int64]*domain.Order, len(s.orders)),
		grants:         make(map[int64]*domain.CouponGrant, len(s.grants)),
		feedback:       append([]*domain.RefundFeedback(nil), s.feedback...),
		nextOrderID:    s.nextOrderID,
		nextFeedbackID: s.nextFeedbackID,
	}
	for id, p := range s.products {
		cp := *p
		snap.products[id] = &cp
	}
	for id, o := range s.orders {
		snap.orders[id] = cloneOrder(o)
	}
	for id, g := range s.grants {
		cp := *g
		snap.grants[id] = &cp
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.products = snap.products
	s.orders = snap.orders
	s.grants = snap.grants
	s.feedback = snap.feedback
	s.nextOrderID = snap.nextOrderID
	s.nextFeedbackID = snap.nextFeedbackID
}

// fakeTxManager 用互斥锁串行化事务，fn 失败时恢复事务前快照。
type fakeTxManager struct {
	store *fakeStore
}

func (m *fakeTxManager) Transact(ctx context.Context, fn func(r port.Repos) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	err := fn(port.Repos{
		Orders:    &fakeOrderRepo{store: m.store},
		Feedback:  &fakeFeedbackRepo{store: m.store},
		Inventory: &fakeInventory{store: m.store},
		Coupons:   &fakeCoupons{store: m.store},
	})
	if err != nil {
		m.store.restore(snap)
	}
	return err
}

type fakeOrderRepo struct {
	store *fakeStore
}

func (r *fakeOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	r.store.putOrder(order)
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	o, ok := r.store.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) ListByUsername(ctx context.Context, username string) ([]*domain.Order, error) {
	var result []*domain.Order
	for _, o := range r.store.orders {
		if o.Username == username {
			result = append(result, cloneOrder(o))
		}
	}
	return result, nil
}

func (r *fakeOrderRepo) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	var result []*domain.Order
	for _, o := range r.store.orders {
		if o.Status == status {
			result = append(result, cloneOrder(o))
		}
	}
	return result, nil
}

type fakeInventory struct {
	store *fakeStore
}

func (i *fakeInventory) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	p, ok := i.store.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (i *fakeInventory) Reserve(ctx context.Context, productID int64, quantity int) error {
	p, ok := i.store.products[productID]
	if !ok || p.Stock < quantity {
		return domain.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (i *fakeInventory) Release(ctx context.Context, productID int64, quantity int) error {
	if p, ok := i.store.products[productID]; ok {
		p.Stock += quantity
	}
	return nil
}

type fakeCoupons struct {
	store *fakeStore
}

func (c *fakeCoupons) LoadGrant(ctx context.Context, grantID int64) (*domain.CouponGrant, error) {
	g, ok := c.store.grants[grantID]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	cp := *g
	return &cp, nil
}

func (c *fakeCoupons) MarkUsed(ctx context.Context, grantID int64) error {
	g, ok := c.store.grants[grantID]
	if !ok || g.Status != domain.GrantUnused {
		return domain.ErrCouponAlreadyUsed
	}
	g.Status = domain.GrantUsed
	return nil
}

type fakeFeedbackRepo struct {
	store *fakeStore
}

func (r *fakeFeedbackRepo) Append(ctx context.Context, fb *domain.RefundFeedback) error {
	r.store.nextFeedbackID++
	cp := *fb
	cp.ID = r.store.nextFeedbackID
	r.store.feedback = append(r.store.feedback, &cp)
	return nil
}

func (r *fakeFeedbackRepo) ListByOrderID(ctx context.Context, orderID int64) ([]*domain.RefundFeedback, error) {
	var result []*domain.RefundFeedback
	for _, fb := range r.store.feedback {
		if fb.OrderID == orderID {
			cp := *fb
			result = append(result, &cp)
		}
	}
	return result, nil
}

// fakeNotifier 记录收到的支付通知，可注入错误模拟下游不可用。
type fakeNotifier struct {
	mu     sync.Mutex
	events []*domain.OrderPaidEvent
	err    error
}

func (n *fakeNotifier) OrderPaid(ctx context.Context, event *domain.OrderPaidEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}
