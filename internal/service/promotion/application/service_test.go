package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"yuxian/internal/service/promotion/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeStore 进程内台账，配合 fakeTxManager 模拟事务的互斥与回滚。
type fakeStore struct {
	mu sync.Mutex

	coupons map[int64]*domain.Coupon
	grants  map[int64]*domain.Grant
	points  map[string]int

	nextGrantID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		coupons: make(map[int64]*domain.Coupon),
		grants:  make(map[int64]*domain.Grant),
		points:  make(map[string]int),
	}
}

func cloneGrant(g *domain.Grant) *domain.Grant {
	cp := *g
	if g.CouponID != nil {
		id := *g.CouponID
		cp.CouponID = &id
	}
	return &cp
}

type storeSnapshot struct {
	coupons     map[int64]*domain.Coupon
	grants      map[int64]*domain.Grant
	points      map[string]int
	nextGrantID int64
}

func (s *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		coupons:     make(map[int64]*domain.Coupon, len(s.coupons)),
		grants:      make(map[int64]*domain.Grant, len(s.grants)),
		points:      make(map[string]int, len(s.points)),
		nextGrantID: s.nextGrantID,
	}
	for id, c := range s.coupons {
		cp := *c
		snap.coupons[id] = &cp
	}
	for id, g := range s.grants {
		snap.grants[id] = cloneGrant(g)
	}
	for u, p := range s.points {
		snap.points[u] = p
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.coupons = snap.coupons
	s.grants = snap.grants
	s.points = snap.points
	s.nextGrantID = snap.nextGrantID
}

type fakeTxManager struct {
	store *fakeStore
}

func (m *fakeTxManager) Transact(ctx context.Context, fn func(r domain.Repos) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	err := fn(domain.Repos{
		Coupons: &fakeCouponRepo{store: m.store},
		Grants:  &fakeGrantRepo{store: m.store},
		Users:   &fakeUserRepo{store: m.store},
	})
	if err != nil {
		m.store.restore(snap)
	}
	return err
}

type fakeCouponRepo struct {
	store *fakeStore
}

func (r *fakeCouponRepo) FindByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	c, ok := r.store.coupons[id]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCouponRepo) ListActive(ctx context.Context) ([]*domain.Coupon, error) {
	var result []*domain.Coupon
	for _, c := range r.store.coupons {
		if c.Status == domain.CouponActive {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *fakeCouponRepo) IncrementReceived(ctx context.Context, id int64) error {
	c, ok := r.store.coupons[id]
	if !ok || c.ReceivedCount >= c.TotalCount {
		return domain.ErrCouponSoldOut
	}
	c.ReceivedCount++
	return nil
}

type fakeGrantRepo struct {
	store *fakeStore
}

func (r *fakeGrantRepo) Create(ctx context.Context, grant *domain.Grant) error {
	if grant.CouponID != nil {
		for _, g := range r.store.grants {
			if g.Username == grant.Username && g.CouponID != nil && *g.CouponID == *grant.CouponID {
				return domain.ErrCouponAlreadyReceived
			}
		}
	}
	r.store.nextGrantID++
	grant.ID = r.store.nextGrantID
	r.store.grants[grant.ID] = cloneGrant(grant)
	return nil
}

func (r *fakeGrantRepo) ListByUsername(ctx context.Context, username string) ([]*domain.Grant, error) {
	var result []*domain.Grant
	for _, g := range r.store.grants {
		if g.Username == username {
			result = append(result, cloneGrant(g))
		}
	}
	return result, nil
}

func (r *fakeGrantRepo) HasReceived(ctx context.Context, username string, couponID int64) (bool, error) {
	for _, g := range r.store.grants {
		if g.Username == username && g.CouponID != nil && *g.CouponID == couponID {
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	store *fakeStore
}

func (r *fakeUserRepo) DeductPoints(ctx context.Context, username string, cost int) (int, error) {
	balance, ok := r.store.points[username]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	if balance < cost {
		return 0, domain.ErrInsufficientPoints
	}
	r.store.points[username] = balance - cost
	return balance - cost, nil
}

func newTestService(store *fakeStore) *PromotionService {
	return NewPromotionService(&fakeTxManager{store: store}, noop.NewTracerProvider().Tracer("test"))
}

func seedCoupon(store *fakeStore, id int64, total, received int, status domain.CouponStatus) {
	store.coupons[id] = &domain.Coupon{
		ID: id, Name: "新客立减", Amount: dec("30.00"), MinSpend: dec("100.00"),
		TotalCount: total, ReceivedCount: received,
		ValidUntil: time.Now().AddDate(0, 1, 0), Status: status,
	}
}

func TestMarketList(t *testing.T) {
	store := newFakeStore()
	seedCoupon(store, 1, 100, 25, domain.CouponActive)
	seedCoupon(store, 2, 50, 0, domain.CouponOff)
	service := newTestService(store)

	views, err := service.MarketList(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, views, 1, "下架活动不出现在市场页")
	assert.Equal(t, int64(1), views[0].ID)
	assert.Equal(t, "30.00", views[0].Amount)
	assert.InDelta(t, 0.25, views[0].Percent, 1e-9)
	assert.False(t, views[0].HasReceived)

	_, err = service.Receive(context.Background(), 1, "alice")
	require.NoError(t, err)

	views, err = service.MarketList(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, views[0].HasReceived)
}

func TestReceive(t *testing.T) {
	store := newFakeStore()
	seedCoupon(store, 1, 100, 0, domain.CouponActive)
	service := newTestService(store)

	view, err := service.Receive(context.Background(), 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, "30.00", view.Amount)
	assert.Equal(t, string(domain.GrantUnused), view.Status)
	require.NotNil(t, view.CouponID)
	assert.Equal(t, int64(1), *view.CouponID)
	assert.Equal(t, 1, store.coupons[1].ReceivedCount)

	// 重复领取
	_, err = service.Receive(context.Background(), 1, "alice")
	assert.ErrorIs(t, err, domain.ErrCouponAlreadyReceived)
	assert.Equal(t, 1, store.coupons[1].ReceivedCount, "失败的领取不占名额")

	// 不存在/下架
	_, err = service.Receive(context.Background(), 404, "alice")
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)

	seedCoupon(store, 2, 100, 0, domain.CouponOff)
	_, err = service.Receive(context.Background(), 2, "alice")
	assert.ErrorIs(t, err, domain.ErrCouponInactive)
}

func TestReceiveSoldOut(t *testing.T) {
	store := newFakeStore()
	seedCoupon(store, 1, 3, 3, domain.CouponActive)
	service := newTestService(store)

	_, err := service.Receive(context.Background(), 1, "alice")
	assert.ErrorIs(t, err, domain.ErrCouponSoldOut)
}

func TestReceiveConcurrentLastSlot(t *testing.T) {
	store := newFakeStore()
	seedCoupon(store, 1, 1, 0, domain.CouponActive)
	service := newTestService(store)

	users := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, u := range users {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			_, errs[i] = service.Receive(context.Background(), 1, u)
		}(i, u)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrCouponSoldOut)
		}
	}
	assert.Equal(t, 1, succeeded, "最后一个名额只允许一个用户抢到")
	assert.Equal(t, 1, store.coupons[1].ReceivedCount)
	assert.Len(t, store.grants, 1)
}

func TestMyCoupons(t *testing.T) {
	store := newFakeStore()
	seedCoupon(store, 1, 100, 0, domain.CouponActive)
	service := newTestService(store)

	_, err := service.Receive(context.Background(), 1, "alice")
	require.NoError(t, err)
	_, err = service.Receive(context.Background(), 1, "bob")
	require.NoError(t, err)

	views, err := service.MyCoupons(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "新客立减", views[0].Name)
}

func TestExchange(t *testing.T) {
	store := newFakeStore()
	store.points["alice"] = 500
	service := newTestService(store)

	resp, err := service.Exchange(context.Background(), &ExchangeRequest{
		Username: "alice", Name: "积分兑换券", Amount: "20.00", Cost: 200,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 300, resp.Points)

	views, err := service.MyCoupons(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].CouponID, "兑换券没有活动模板")
	assert.Equal(t, "20.00", views[0].Amount)
	// 兑换券门槛为面额十倍
	assert.Equal(t, "200.00", views[0].MinSpend)
}

func TestExchangeGuards(t *testing.T) {
	store := newFakeStore()
	store.points["alice"] = 100
	service := newTestService(store)

	_, err := service.Exchange(context.Background(), &ExchangeRequest{
		Username: "alice", Name: "券", Amount: "20.00", Cost: 200,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)
	assert.Equal(t, 100, store.points["alice"], "扣减失败不动余额")

	_, err = service.Exchange(context.Background(), &ExchangeRequest{
		Username: "ghost", Name: "券", Amount: "20.00", Cost: 10,
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	for _, bad := range []string{"", "abc", "-5", "0"} {
		_, err = service.Exchange(context.Background(), &ExchangeRequest{
			Username: "alice", Name: "券", Amount: bad, Cost: 10,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, "amount=%q", bad)
	}
}
