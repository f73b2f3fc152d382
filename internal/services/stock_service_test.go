package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/buildkart/api/internal/domain"
	repositories "github.com/buildkart/api/internal/repositories"
)

type fakeProductRepo struct {
	products map[string]domain.Product
}

func (f *fakeProductRepo) GetProduct(_ context.Context, id string) (domain.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return domain.Product{}, repositories.ErrProductNotFound
	}
	return product, nil
}

func (f *fakeProductRepo) ListProducts(_ context.Context, ids []string) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

type fakeSubscriptionStore struct {
	list     []string
	loadErr  error
	saveErr  error
	saves    int
	lastSave []string
}

func (f *fakeSubscriptionStore) Load(context.Context) ([]string, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.list, nil
}

func (f *fakeSubscriptionStore) Save(_ context.Context, ids []string) error {
	f.saves++
	f.lastSave = append([]string(nil), ids...)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.list = f.lastSave
	return nil
}

func newTestStockService(t *testing.T, products map[string]domain.Product, store *fakeSubscriptionStore) *StockService {
	t.Helper()
	if store == nil {
		store = &fakeSubscriptionStore{}
	}
	svc, err := NewStockService(StockServiceDeps{
		Products: &fakeProductRepo{products: products},
		Store:    store,
	})
	if err != nil {
		t.Fatalf("NewStockService error: %v", err)
	}
	return svc
}

func TestClassifyStock_Thresholds(t *testing.T) {
	cases := []struct {
		count    int
		wantTier domain.StockTier
		wantFill float64
	}{
		{count: -5, wantTier: domain.StockOut, wantFill: 0},
		{count: 0, wantTier: domain.StockOut, wantFill: 0},
		{count: 1, wantTier: domain.StockCritical, wantFill: 0.02},
		{count: 10, wantTier: domain.StockCritical, wantFill: 0.2},
		{count: 11, wantTier: domain.StockLow, wantFill: 0.22},
		{count: 25, wantTier: domain.StockLow, wantFill: 0.5},
		{count: 26, wantTier: domain.StockModerate, wantFill: 0.52},
		{count: 50, wantTier: domain.StockModerate, wantFill: 1},
		{count: 51, wantTier: domain.StockHealthy, wantFill: 1},
		{count: 500, wantTier: domain.StockHealthy, wantFill: 1},
	}

	for _, tc := range cases {
		got := ClassifyStock(tc.count)
		if got.Tier != tc.wantTier {
			t.Errorf("count %d: tier = %s, want %s", tc.count, got.Tier, tc.wantTier)
		}
		if got.Fill != tc.wantFill {
			t.Errorf("count %d: fill = %v, want %v", tc.count, got.Fill, tc.wantFill)
		}
		if got.Label == "" || got.Message == "" {
			t.Errorf("count %d: classification missing display copy", tc.count)
		}
	}
}

func TestClassifyStock_SeverityOrdering(t *testing.T) {
	counts := []int{500, 40, 20, 5, 0}
	prev := -1
	for _, count := range counts {
		severity := ClassifyStock(count).Severity
		if severity <= prev {
			t.Fatalf("severity must increase as stock drops: count %d gave %d after %d", count, severity, prev)
		}
		prev = severity
	}
}

func TestStockService_ProductStock(t *testing.T) {
	svc := newTestStockService(t, map[string]domain.Product{
		"cem-50": {ID: "cem-50", Name: "OPC 53 Grade Cement", Stock: 8},
	}, nil)

	got, err := svc.ProductStock(context.Background(), "cem-50")
	if err != nil {
		t.Fatalf("ProductStock error: %v", err)
	}
	if got.Level.Tier != domain.StockCritical {
		t.Errorf("tier = %s, want critical", got.Level.Tier)
	}
	if got.Count != 8 || got.Subscribed {
		t.Errorf("unexpected view model: %+v", got)
	}

	if _, err := svc.ProductStock(context.Background(), "missing"); !errors.Is(err, repositories.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestStockService_ToggleRoundTrip(t *testing.T) {
	store := &fakeSubscriptionStore{}
	svc := newTestStockService(t, map[string]domain.Product{
		"tmt-12": {ID: "tmt-12", Name: "TMT Bar 12mm", Stock: 0},
	}, store)

	subscribed, err := svc.ToggleSubscription(context.Background(), "tmt-12")
	if err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if !subscribed || !svc.IsSubscribed(context.Background(), "tmt-12") {
		t.Fatalf("expected subscription after first toggle")
	}

	subscribed, err = svc.ToggleSubscription(context.Background(), "tmt-12")
	if err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if subscribed || svc.IsSubscribed(context.Background(), "tmt-12") {
		t.Fatalf("expected removal after second toggle")
	}
	if len(store.lastSave) != 0 {
		t.Fatalf("expected empty persisted list, got %v", store.lastSave)
	}
	if store.saves != 2 {
		t.Fatalf("expected 2 saves, got %d", store.saves)
	}
}

func TestStockService_ToggleUnknownProduct(t *testing.T) {
	store := &fakeSubscriptionStore{}
	svc := newTestStockService(t, nil, store)

	if _, err := svc.ToggleSubscription(context.Background(), "ghost"); !errors.Is(err, repositories.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("expected no save for unknown product")
	}
}

func TestStockService_SaveFailureKeepsMemoryState(t *testing.T) {
	store := &fakeSubscriptionStore{saveErr: errors.New("disk full")}
	svc := newTestStockService(t, map[string]domain.Product{
		"tmt-12": {ID: "tmt-12", Stock: 0},
	}, store)

	subscribed, err := svc.ToggleSubscription(context.Background(), "tmt-12")
	if err == nil {
		t.Fatalf("expected save error")
	}
	if !subscribed {
		t.Fatalf("toggle result should reflect the new state")
	}
	if !svc.IsSubscribed(context.Background(), "tmt-12") {
		t.Fatalf("in-memory state must survive a failed save")
	}
}

func TestStockService_LoadDeduplicatesAndSorts(t *testing.T) {
	store := &fakeSubscriptionStore{list: []string{"b", "a", "b", "", "c"}}
	svc := newTestStockService(t, nil, store)

	got := svc.Subscriptions(context.Background())
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("subscriptions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("subscriptions = %v, want %v", got, want)
		}
	}
}

func TestStockService_LoadFailureStartsEmpty(t *testing.T) {
	store := &fakeSubscriptionStore{loadErr: errors.New("corrupt file")}
	svc := newTestStockService(t, nil, store)

	if got := svc.Subscriptions(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty list after load failure, got %v", got)
	}
}
