package inventory_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-inventaris/internal/events"
	"github.com/noah-isme/toko-inventaris/internal/inventory"
	"github.com/noah-isme/toko-inventaris/internal/pricing"
)

type stockCall struct {
	code  string
	stock int
}

type stubRepo struct {
	mu       sync.Mutex
	products map[string]inventory.Product
	order    []string
	saved    []inventory.Product
	deleted  []string
	updates  []stockCall
	lookups  []string
	fail     error
}

func newStubRepo(products ...inventory.Product) *stubRepo {
	r := &stubRepo{products: map[string]inventory.Product{}}
	for _, p := range products {
		r.products[p.Code] = p
		r.order = append(r.order, p.Code)
	}
	return r
}

func (r *stubRepo) Save(_ context.Context, p inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.saved = append(r.saved, p)
	if _, ok := r.products[p.Code]; !ok {
		r.order = append(r.order, p.Code)
	}
	r.products[p.Code] = p
	return nil
}

func (r *stubRepo) FindByCode(_ context.Context, code string) (inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, code)
	if r.fail != nil {
		return inventory.Product{}, r.fail
	}
	p, ok := r.products[code]
	if !ok {
		return inventory.Product{}, inventory.ErrProductNotFound
	}
	return p, nil
}

func (r *stubRepo) FindByName(_ context.Context, name string) ([]inventory.Product, error) {
	return r.filter(func(p inventory.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), strings.ToLower(name))
	}), nil
}

func (r *stubRepo) FindByCategory(_ context.Context, category string) ([]inventory.Product, error) {
	return r.filter(func(p inventory.Product) bool { return strings.EqualFold(p.Category, category) }), nil
}

func (r *stubRepo) FindAll(context.Context) ([]inventory.Product, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	return r.filter(func(inventory.Product) bool { return true }), nil
}

func (r *stubRepo) FindLowStock(context.Context) ([]inventory.Product, error) {
	return r.filter(inventory.Product.IsLowStock), nil
}

func (r *stubRepo) FindOutOfStock(context.Context) ([]inventory.Product, error) {
	return r.filter(inventory.Product.IsOutOfStock), nil
}

func (r *stubRepo) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, code)
	delete(r.products, code)
	return nil
}

func (r *stubRepo) UpdateStock(_ context.Context, code string, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, stockCall{code: code, stock: stock})
	p := r.products[code]
	p.Stock = stock
	r.products[code] = p
	return nil
}

func (r *stubRepo) filter(keep func(inventory.Product) bool) []inventory.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Product
	for _, code := range r.order {
		p, ok := r.products[code]
		if ok && keep(p) {
			out = append(out, p)
		}
	}
	return out
}

type captureEmitter struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (c *captureEmitter) Emit(_ context.Context, topic, aggregateID string, _ any) (events.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	return events.Event{Topic: topic, AggregateID: aggregateID}, c.err
}

type countingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *countingLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return fn(ctx)
}

func newService(repo *stubRepo) (*inventory.Service, *captureEmitter) {
	emitter := &captureEmitter{}
	return inventory.NewService(inventory.ServiceConfig{Repository: repo, Events: emitter}), emitter
}

func laptop() inventory.Product {
	return inventory.NewProduct("PROD001", "Laptop Gaming", "Elektronik", 15_000_000, 10, 5)
}

func TestAddProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a valid new product", func(t *testing.T) {
		repo := newStubRepo()
		svc, emitter := newService(repo)
		require.NoError(t, svc.AddProduct(ctx, laptop()))
		require.Equal(t, []string{"PROD001"}, repo.lookups)
		require.Len(t, repo.saved, 1)
		require.Equal(t, []string{events.TopicProductCreated}, emitter.topics)
	})

	t.Run("rejects an existing code", func(t *testing.T) {
		repo := newStubRepo(laptop())
		svc, emitter := newService(repo)
		err := svc.AddProduct(ctx, laptop())
		require.ErrorIs(t, err, inventory.ErrProductExists)
		require.Empty(t, repo.saved)
		require.Empty(t, emitter.topics)
	})

	t.Run("rejects invalid products without touching the repository", func(t *testing.T) {
		invalid := []inventory.Product{
			inventory.NewProduct("", "Laptop Gaming", "Elektronik", 15_000_000, 10, 5),
			inventory.NewProduct("PROD010", "AB", "Elektronik", 15_000_000, 10, 5),
			inventory.NewProduct("PROD011", "Laptop", "Elektronik", 0, 10, 5),
			inventory.NewProduct("PROD012", "Laptop", "Elektronik", 100, -1, 5),
			inventory.NewProduct("PROD013", "Laptop", "Elektronik", 100, 1, -5),
		}
		repo := newStubRepo()
		svc, _ := newService(repo)
		for _, p := range invalid {
			require.ErrorIs(t, svc.AddProduct(ctx, p), inventory.ErrInvalidProduct, p.Code)
		}
		require.Empty(t, repo.saved)
		require.Empty(t, repo.lookups)
	})

	t.Run("surfaces repository failures", func(t *testing.T) {
		repo := newStubRepo()
		repo.fail = errors.New("connection reset")
		svc, _ := newService(repo)
		require.ErrorContains(t, svc.AddProduct(ctx, laptop()), "connection reset")
	})
}

func TestRemoveProduct(t *testing.T) {
	ctx := context.Background()

	repo := newStubRepo()
	svc, _ := newService(repo)
	require.ErrorIs(t, svc.RemoveProduct(ctx, ""), inventory.ErrInvalidCode)
	require.ErrorIs(t, svc.RemoveProduct(ctx, "   "), inventory.ErrInvalidCode)
	require.ErrorIs(t, svc.RemoveProduct(ctx, "PROD999"), inventory.ErrProductNotFound)
	require.Empty(t, repo.deleted)

	stocked := newStubRepo(laptop())
	svc, _ = newService(stocked)
	require.ErrorIs(t, svc.RemoveProduct(ctx, "PROD001"), inventory.ErrStockRemaining)
	require.Empty(t, stocked.deleted)

	empty := inventory.NewProduct("PROD025", "Test", "Elektronik", 10_000, 5, 3)
	empty.Stock = 0
	cleared := newStubRepo(empty)
	svc, emitter := newService(cleared)
	require.NoError(t, svc.RemoveProduct(ctx, "PROD025"))
	require.Equal(t, []string{"PROD025"}, cleared.deleted)
	require.Equal(t, []string{events.TopicProductDeleted}, emitter.topics)
}

func TestFindOperationsDelegate(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo(
		laptop(),
		inventory.NewProduct("PROD002", "Mouse Wireless", "elektronik", 250_000, 3, 5),
		inventory.NewProduct("PROD003", "Kopi Arabika", "Makanan", 50_000, 0, 2),
	)
	svc, _ := newService(repo)

	_, err := svc.FindByCode(ctx, "PROD999")
	require.ErrorIs(t, err, inventory.ErrProductNotFound)

	byName, err := svc.FindByName(ctx, "laptop")
	require.NoError(t, err)
	require.Len(t, byName, 1)

	none, err := svc.FindByName(ctx, "TidakAda")
	require.NoError(t, err)
	require.Empty(t, none)

	byCategory, err := svc.FindByCategory(ctx, "ELEKTRONIK")
	require.NoError(t, err)
	require.Len(t, byCategory, 2)

	sport, err := svc.FindByCategory(ctx, "Olahraga")
	require.NoError(t, err)
	require.Empty(t, sport)

	low, err := svc.LowStockProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"PROD002", "PROD003"}, codes(low))

	out, err := svc.OutOfStockProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"PROD003"}, codes(out))
}

func TestUpdateStock(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo(laptop())
	svc, emitter := newService(repo)

	_, err := svc.UpdateStock(ctx, "PROD001", -5)
	require.ErrorIs(t, err, inventory.ErrInvalidStock)
	_, err = svc.UpdateStock(ctx, "PROD999", 20)
	require.ErrorIs(t, err, inventory.ErrProductNotFound)
	require.Empty(t, repo.updates)

	updated, err := svc.UpdateStock(ctx, "PROD001", 20)
	require.NoError(t, err)
	require.Equal(t, 20, updated.Stock)
	require.Equal(t, []stockCall{{"PROD001", 20}}, repo.updates)
	require.Equal(t, []string{events.TopicStockUpdated}, emitter.topics)

	inactive := inventory.NewProduct("PROD028", "Test", "Elektronik", 10_000, 5, 3)
	inactive.Active = false
	repo = newStubRepo(inactive)
	svc, _ = newService(repo)
	_, err = svc.UpdateStock(ctx, "PROD028", 20)
	require.ErrorIs(t, err, inventory.ErrProductInactive)
	require.Empty(t, repo.updates)
}

func TestStockIn(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo(inventory.NewProduct("PROD027", "Test", "Elektronik", 10_000, 5, 3))
	svc, _ := newService(repo)

	_, err := svc.StockIn(ctx, "PROD027", 0)
	require.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	_, err = svc.StockIn(ctx, "PROD999", 5)
	require.ErrorIs(t, err, inventory.ErrProductNotFound)

	p, err := svc.StockIn(ctx, "PROD027", 10)
	require.NoError(t, err)
	require.Equal(t, 15, p.Stock)
	require.Equal(t, []stockCall{{"PROD027", 15}}, repo.updates)

	inactive := inventory.NewProduct("PROD026", "Test", "Elektronik", 10_000, 5, 3)
	inactive.Active = false
	repo = newStubRepo(inactive)
	svc, _ = newService(repo)
	_, err = svc.StockIn(ctx, "PROD026", 10)
	require.ErrorIs(t, err, inventory.ErrProductInactive)
	require.Empty(t, repo.updates)
}

func TestStockOut(t *testing.T) {
	ctx := context.Background()

	t.Run("removes available stock", func(t *testing.T) {
		repo := newStubRepo(laptop())
		svc, _ := newService(repo)
		p, err := svc.StockOut(ctx, "PROD001", 5)
		require.NoError(t, err)
		require.Equal(t, 5, p.Stock)
		require.Equal(t, []stockCall{{"PROD001", 5}}, repo.updates)
	})

	t.Run("rejects more than on hand", func(t *testing.T) {
		repo := newStubRepo(laptop())
		svc, _ := newService(repo)
		_, err := svc.StockOut(ctx, "PROD001", 15)
		require.ErrorIs(t, err, inventory.ErrInsufficientStock)
		require.Empty(t, repo.updates)
	})

	t.Run("rejects zero and unknown products", func(t *testing.T) {
		repo := newStubRepo(laptop())
		svc, _ := newService(repo)
		_, err := svc.StockOut(ctx, "PROD001", 0)
		require.ErrorIs(t, err, inventory.ErrInvalidQuantity)
		_, err = svc.StockOut(ctx, "PROD999", 5)
		require.ErrorIs(t, err, inventory.ErrProductNotFound)
		require.Empty(t, repo.updates)
	})

	t.Run("allows taking the last unit", func(t *testing.T) {
		repo := newStubRepo(inventory.NewProduct("PROD030", "Test", "Elektronik", 10_000, 10, 3))
		svc, emitter := newService(repo)
		p, err := svc.StockOut(ctx, "PROD030", 10)
		require.NoError(t, err)
		require.Zero(t, p.Stock)
		require.Equal(t, []stockCall{{"PROD030", 0}}, repo.updates)
		require.Equal(t, []string{events.TopicStockUpdated, events.TopicStockDepleted}, emitter.topics)
	})
}

func TestStockEventsFireOnTransitions(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo(inventory.NewProduct("PROD040", "Teh Hijau", "Minuman", 10_000, 10, 5))
	svc, emitter := newService(repo)

	_, err := svc.StockOut(ctx, "PROD040", 4)
	require.NoError(t, err)
	require.Equal(t, []string{events.TopicStockUpdated}, emitter.topics)

	_, err = svc.StockOut(ctx, "PROD040", 1)
	require.NoError(t, err)
	require.Equal(t, events.TopicStockLow, emitter.topics[len(emitter.topics)-1])

	_, err = svc.StockOut(ctx, "PROD040", 1)
	require.NoError(t, err)
	require.Equal(t, events.TopicStockUpdated, emitter.topics[len(emitter.topics)-1])

	_, err = svc.StockOut(ctx, "PROD040", 4)
	require.NoError(t, err)
	require.Equal(t, events.TopicStockDepleted, emitter.topics[len(emitter.topics)-1])
}

func TestEmitFailureDoesNotFailMutation(t *testing.T) {
	repo := newStubRepo(laptop())
	emitter := &captureEmitter{err: errors.New("bus down")}
	svc := inventory.NewService(inventory.ServiceConfig{Repository: repo, Events: emitter})
	p, err := svc.StockIn(context.Background(), "PROD001", 1)
	require.NoError(t, err)
	require.Equal(t, 11, p.Stock)
}

func TestStockMutationsTakeProductLock(t *testing.T) {
	ctx := context.Background()
	locker := &countingLocker{}
	repo := newStubRepo(laptop())
	svc := inventory.NewService(inventory.ServiceConfig{Repository: repo, Locker: locker})

	_, err := svc.StockIn(ctx, "PROD001", 1)
	require.NoError(t, err)
	_, err = svc.StockOut(ctx, "prod001", 1)
	require.ErrorIs(t, err, inventory.ErrProductNotFound)
	require.Equal(t, []string{"inventory:product:PROD001", "inventory:product:PROD001"}, locker.keys)
}

func TestTotals(t *testing.T) {
	ctx := context.Background()

	inactive := inventory.NewProduct("PROD003", "Keyboard", "Elektronik", 300_000, 3, 1)
	inactive.Active = false
	repo := newStubRepo(
		inventory.NewProduct("PROD001", "Laptop", "Elektronik", 10_000_000, 2, 1),
		inventory.NewProduct("PROD002", "Mouse", "Elektronik", 500_000, 5, 2),
		inactive,
	)
	svc, _ := newService(repo)

	value, err := svc.TotalInventoryValue(ctx)
	require.NoError(t, err)
	require.InDelta(t, 10_000_000*2+500_000*5, value, 0.001)

	stock, err := svc.TotalStock(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, stock)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, inventory.Summary{
		Products:       3,
		ActiveProducts: 2,
		TotalStock:     7,
		TotalValue:     22_500_000,
		LowStock:       0,
		OutOfStock:     0,
	}, summary)

	svc, _ = newService(newStubRepo())
	value, err = svc.TotalInventoryValue(ctx)
	require.NoError(t, err)
	require.Zero(t, value)
	stock, err = svc.TotalStock(ctx)
	require.NoError(t, err)
	require.Zero(t, stock)
}

func TestTotalStockSkipsInactive(t *testing.T) {
	second := inventory.NewProduct("PROD035", "Produk 2", "Fashion", 20_000, 5, 2)
	second.Active = false
	svc, _ := newService(newStubRepo(
		inventory.NewProduct("PROD034", "Produk 1", "Elektronik", 10_000, 10, 3),
		second,
		inventory.NewProduct("PROD036", "Produk 3", "Makanan", 5_000, 20, 5),
	))
	total, err := svc.TotalStock(context.Background())
	require.NoError(t, err)
	require.Equal(t, 30, total)
}

func TestTotalsSurfaceRepositoryErrors(t *testing.T) {
	repo := newStubRepo()
	repo.fail = errors.New("timeout")
	svc, _ := newService(repo)
	_, err := svc.TotalStock(context.Background())
	require.ErrorContains(t, err, "timeout")
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	inactive := inventory.NewProduct("PROD050", "Lama", "Fashion", 1_000, 1, 1)
	inactive.Active = false
	repo := newStubRepo(inventory.NewProduct("PROD049", "Sepatu Lari", "Fashion", 1_000, 200, 5), inactive)
	svc := inventory.NewService(inventory.ServiceConfig{Repository: repo, TaxBps: 1100})

	summary, err := svc.Quote(ctx, "PROD049", 10, "regular")
	require.NoError(t, err)
	require.Equal(t, pricing.TierModerate, summary.Tier)
	require.InDelta(t, 9435, summary.Total, 1e-9)

	_, err = svc.Quote(ctx, "PROD050", 1, "NEW")
	require.ErrorIs(t, err, inventory.ErrProductInactive)
	_, err = svc.Quote(ctx, "PROD049", 0, "NEW")
	require.ErrorIs(t, err, pricing.ErrInvalidArgument)
}

func TestConcurrentStockOutNeverOversells(t *testing.T) {
	repo := newStubRepo(inventory.NewProduct("PROD060", "Beras", "Makanan", 12_000, 50, 5))
	svc := inventory.NewService(inventory.ServiceConfig{Repository: repo, Locker: &mutexLocker{}})

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures int
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.StockOut(context.Background(), "PROD060", 1); err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	p, err := svc.FindByCode(context.Background(), "PROD060")
	require.NoError(t, err)
	require.Zero(t, p.Stock)
	require.Equal(t, 10, failures)
}

type mutexLocker struct{ mu sync.Mutex }

func (l *mutexLocker) WithLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

func codes(products []inventory.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Code)
	}
	sort.Strings(out)
	return out
}

// staleCopy answers FindByCode from a fixed snapshot while writes reach the store.
type staleCopy struct {
	*stubRepo
	snapshot inventory.Product
}

func (s staleCopy) FindByCode(context.Context, string) (inventory.Product, error) {
	return s.snapshot, nil
}

func (s staleCopy) Primary() inventory.Repository { return s.stubRepo }

func TestStockRulesReadStoreOfRecord(t *testing.T) {
	ctx := context.Background()
	store := newStubRepo(inventory.NewProduct("PROD001", "Laptop", "Elektronik", 100, 3, 1))
	snapshot := inventory.NewProduct("PROD001", "Laptop", "Elektronik", 100, 40, 1)
	svc := inventory.NewService(inventory.ServiceConfig{Repository: staleCopy{stubRepo: store, snapshot: snapshot}})

	_, err := svc.StockOut(ctx, "PROD001", 10)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	after, err := svc.StockIn(ctx, "PROD001", 2)
	require.NoError(t, err)
	require.Equal(t, 5, after.Stock)
	require.Equal(t, []stockCall{{code: "PROD001", stock: 5}}, store.updates)

	require.ErrorIs(t, svc.RemoveProduct(ctx, "PROD001"), inventory.ErrStockRemaining)

	p, err := svc.FindByCode(ctx, "PROD001")
	require.NoError(t, err)
	require.Equal(t, 40, p.Stock)
}
