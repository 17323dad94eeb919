package provider

import (
	"context"
	"testing"
	"time"
)

// mockFetcher implements the Fetcher interface for testing.
type mockFetcher struct {
	BaseFetcher
	fetchFn func(ctx context.Context, params QueryParams) (*FetchResult, error)
}

func newMockFetcher(model ModelType, required []string) *mockFetcher {
	return &mockFetcher{
		BaseFetcher: NewBaseFetcher(model, "mock fetcher for "+string(model), required, nil),
	}
}

func (m *mockFetcher) Fetch(ctx context.Context, params QueryParams) (*FetchResult, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, params)
	}
	return &FetchResult{
		Data:      "mock-data",
		FetchedAt: time.Now(),
	}, nil
}

// mockProvider implements the Provider interface for testing.
type mockProvider struct {
	BaseProvider
}

func newMockProvider(name string, models ...ModelType) *mockProvider {
	mp := &mockProvider{
		BaseProvider: NewBaseProvider(name, "Mock "+name, "https://example.com"),
	}
	for _, m := range models {
		mp.RegisterFetcher(newMockFetcher(m, []string{ParamStartDate}))
	}
	return mp
}

// --- Registry Tests ---

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	p := newMockProvider("test-provider", ModelConsumerPriceIndex, ModelMonetaryBase)

	if err := reg.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Get("test-provider")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Info().Name != "test-provider" {
		t.Errorf("expected name test-provider, got %s", got.Info().Name)
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("nonexistent")
	if err == nil {
		t.Fatal("expected error for nonexistent provider")
	}
	if _, ok := err.(*ErrProviderNotFound); !ok {
		t.Errorf("expected ErrProviderNotFound, got %T", err)
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("beta", ModelConsumerPriceIndex))
	_ = reg.Register(newMockProvider("alpha", ModelMonetaryBase))

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(list))
	}
	// Should be sorted alphabetically.
	if list[0].Name != "alpha" {
		t.Errorf("expected first provider 'alpha', got %s", list[0].Name)
	}
	if list[1].Name != "beta" {
		t.Errorf("expected second provider 'beta', got %s", list[1].Name)
	}
}

func TestRegistryProvidersFor(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelConsumerPriceIndex, ModelCERIndex))
	_ = reg.Register(newMockProvider("p2", ModelConsumerPriceIndex))
	_ = reg.Register(newMockProvider("p3", ModelCERIndex))

	provs := reg.ProvidersFor(ModelConsumerPriceIndex)
	if len(provs) != 2 {
		t.Fatalf("expected 2 providers for ConsumerPriceIndex, got %d", len(provs))
	}

	provs = reg.ProvidersFor(ModelCERIndex)
	if len(provs) != 2 {
		t.Fatalf("expected 2 providers for CERIndex, got %d", len(provs))
	}

	provs = reg.ProvidersFor(ModelBlueExchangeRate)
	if len(provs) != 0 {
		t.Fatalf("expected 0 providers for BlueExchangeRate, got %d", len(provs))
	}
}

func TestRegistrySetDefault(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelConsumerPriceIndex))
	_ = reg.Register(newMockProvider("p2", ModelConsumerPriceIndex))

	// Default should be p1 (first registered).
	def, ok := reg.DefaultProvider(ModelConsumerPriceIndex)
	if !ok || def != "p1" {
		t.Errorf("expected default p1, got %s (ok=%v)", def, ok)
	}

	// Change default.
	if err := reg.SetDefault(ModelConsumerPriceIndex, "p2"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	def, ok = reg.DefaultProvider(ModelConsumerPriceIndex)
	if !ok || def != "p2" {
		t.Errorf("expected default p2, got %s (ok=%v)", def, ok)
	}

	// Set default to non-existent provider.
	if err := reg.SetDefault(ModelConsumerPriceIndex, "nope"); err == nil {
		t.Error("expected error setting default to non-existent provider")
	}
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelConsumerPriceIndex))
	_ = reg.Register(newMockProvider("p2", ModelConsumerPriceIndex))

	reg.Unregister("p1")

	_, err := reg.Get("p1")
	if err == nil {
		t.Error("expected error after unregister")
	}

	provs := reg.ProvidersFor(ModelConsumerPriceIndex)
	if len(provs) != 1 || provs[0] != "p2" {
		t.Errorf("expected only p2 after unregister, got %v", provs)
	}

	// Default should have shifted to p2.
	def, _ := reg.DefaultProvider(ModelConsumerPriceIndex)
	if def != "p2" {
		t.Errorf("expected default to shift to p2, got %s", def)
	}
}

func TestRegistryFetch(t *testing.T) {
	reg := NewRegistry()
	mp := newMockProvider("test", ModelConsumerPriceIndex)
	_ = reg.Register(mp)

	ctx := context.Background()
	params := QueryParams{ParamStartDate: "2020-01-01"}

	result, err := reg.Fetch(ctx, ModelConsumerPriceIndex, params)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.Provider != "test" {
		t.Errorf("expected provider 'test', got %s", result.Provider)
	}
	if result.Model != ModelConsumerPriceIndex {
		t.Errorf("expected model ConsumerPriceIndex, got %s", result.Model)
	}
	if result.Data != "mock-data" {
		t.Errorf("unexpected data: %v", result.Data)
	}
}

func TestRegistryFetchMissingParam(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("test", ModelConsumerPriceIndex))

	ctx := context.Background()
	params := QueryParams{} // Missing required "start_date" param.

	_, err := reg.Fetch(ctx, ModelConsumerPriceIndex, params)
	if err == nil {
		t.Fatal("expected error for missing param")
	}
	if _, ok := err.(*ErrMissingParam); !ok {
		t.Errorf("expected ErrMissingParam, got %T: %v", err, err)
	}
}

func TestRegistryFetchUnsupportedModel(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("test", ModelConsumerPriceIndex))

	ctx := context.Background()
	params := QueryParams{ParamStartDate: "2020-01-01"}

	_, err := reg.Fetch(ctx, ModelBlueExchangeRate, params)
	if err == nil {
		t.Fatal("expected error for unsupported model")
	}
}

func TestRegistryFetchWithProviderOverride(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelConsumerPriceIndex))

	mp2 := newMockProvider("p2", ModelConsumerPriceIndex)
	f := newMockFetcher(ModelConsumerPriceIndex, []string{ParamStartDate})
	f.fetchFn = func(ctx context.Context, params QueryParams) (*FetchResult, error) {
		return &FetchResult{Data: "from-p2"}, nil
	}
	mp2.BaseProvider.fetchers[ModelConsumerPriceIndex] = f
	_ = reg.Register(mp2)

	ctx := context.Background()
	params := QueryParams{
		ParamStartDate: "2020-01-01",
		ParamProvider:  "p2", // Force provider p2.
	}

	result, err := reg.Fetch(ctx, ModelConsumerPriceIndex, params)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.Data != "from-p2" {
		t.Errorf("expected data from p2, got %v", result.Data)
	}
}

func TestRegistryFetchWithFallback(t *testing.T) {
	reg := NewRegistry()

	// p1 always fails.
	mp1 := newMockProvider("p1", ModelConsumerPriceIndex)
	f1 := newMockFetcher(ModelConsumerPriceIndex, []string{ParamStartDate})
	f1.fetchFn = func(ctx context.Context, params QueryParams) (*FetchResult, error) {
		return nil, &ErrModelNotSupported{Provider: "p1", Model: ModelConsumerPriceIndex}
	}
	mp1.BaseProvider.fetchers[ModelConsumerPriceIndex] = f1
	_ = reg.Register(mp1)

	// p2 succeeds.
	mp2 := newMockProvider("p2", ModelConsumerPriceIndex)
	f2 := newMockFetcher(ModelConsumerPriceIndex, []string{ParamStartDate})
	f2.fetchFn = func(ctx context.Context, params QueryParams) (*FetchResult, error) {
		return &FetchResult{Data: "fallback-data"}, nil
	}
	mp2.BaseProvider.fetchers[ModelConsumerPriceIndex] = f2
	_ = reg.Register(mp2)

	ctx := context.Background()
	params := QueryParams{ParamStartDate: "2020-01-01"}

	result, err := reg.FetchWithFallback(ctx, ModelConsumerPriceIndex, params)
	if err != nil {
		t.Fatalf("FetchWithFallback failed: %v", err)
	}
	if result.Data != "fallback-data" {
		t.Errorf("expected fallback-data, got %v", result.Data)
	}
}

func TestModelCoverage(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelConsumerPriceIndex, ModelCERIndex))
	_ = reg.Register(newMockProvider("p2", ModelConsumerPriceIndex, ModelBlueExchangeRate))

	coverage := reg.ModelCoverage()

	if len(coverage[ModelConsumerPriceIndex]) != 2 {
		t.Errorf("expected 2 providers for ConsumerPriceIndex, got %d", len(coverage[ModelConsumerPriceIndex]))
	}
	if len(coverage[ModelCERIndex]) != 1 {
		t.Errorf("expected 1 provider for CERIndex, got %d", len(coverage[ModelCERIndex]))
	}
	if len(coverage[ModelBlueExchangeRate]) != 1 {
		t.Errorf("expected 1 provider for BlueExchangeRate, got %d", len(coverage[ModelBlueExchangeRate]))
	}
}

// --- Base Provider Tests ---

func TestBaseProviderRegisterFetcher(t *testing.T) {
	bp := NewBaseProvider("test", "desc", "https://test.com")
	f := newMockFetcher(ModelConsumerPriceIndex, nil)
	bp.RegisterFetcher(f)

	if bp.Fetcher(ModelConsumerPriceIndex) == nil {
		t.Error("fetcher not registered")
	}
	if bp.Fetcher(ModelCERIndex) != nil {
		t.Error("fetcher should be nil for unregistered model")
	}
	if len(bp.SupportedModels()) != 1 {
		t.Errorf("expected 1 supported model, got %d", len(bp.SupportedModels()))
	}
}

// --- CacheKey Tests ---

func TestCacheKey(t *testing.T) {
	params := QueryParams{
		ParamStartDate: "2020-01-01",
		ParamCurrency:  "ARS",
		ParamProvider:  "bcra", // Should be excluded.
	}

	key := CacheKey(ModelMarketRates, params)

	if key == "" {
		t.Error("cache key should not be empty")
	}
	// Provider should not be in key.
	if contains(key, "bcra") {
		t.Error("cache key should not contain provider name")
	}
	// Should contain model and params.
	if !contains(key, "MarketRates") {
		t.Error("cache key should contain model type")
	}
	if !contains(key, "2020-01-01") {
		t.Error("cache key should contain start date")
	}
}

// --- ValidateParams Tests ---

func TestValidateParams(t *testing.T) {
	err := ValidateParams(QueryParams{ParamStartDate: "2020-01-01"}, []string{ParamStartDate})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err = ValidateParams(QueryParams{}, []string{ParamStartDate})
	if err == nil {
		t.Error("expected error for missing param")
	}

	err = ValidateParams(QueryParams{ParamStartDate: ""}, []string{ParamStartDate})
	if err == nil {
		t.Error("expected error for empty param")
	}
}

// --- AllModels Tests ---

func TestAllModels(t *testing.T) {
	all := AllModels()
	if len(all) < 20 {
		t.Errorf("expected at least 20 models, got %d", len(all))
	}

	// Check no duplicates.
	seen := make(map[ModelType]bool)
	for _, m := range all {
		if seen[m] {
			t.Errorf("duplicate model type: %s", m)
		}
		seen[m] = true
	}
}

func TestModelCategory(t *testing.T) {
	tests := []struct {
		model    ModelType
		category string
	}{
		{ModelConsumerPriceIndex, "Prices"},
		{ModelCPIWeights, "Prices"},
		{ModelEconomicActivity, "Activity"},
		{ModelGDPReal, "Activity"},
		{ModelMonetaryBase, "Monetary"},
		{ModelGovernmentDeposits, "Monetary"},
		{ModelBlueExchangeRate, "Rates and currency"},
		{ModelCERIndex, "Rates and currency"},
	}

	for _, tt := range tests {
		cat := ModelCategory(tt.model)
		if cat != tt.category {
			t.Errorf("ModelCategory(%s) = %q, want %q", tt.model, cat, tt.category)
		}
	}
}

// --- Global Registry Tests ---

func TestGlobalRegistry(t *testing.T) {
	g := Global()
	if g == nil {
		t.Fatal("Global() returned nil")
	}
}

// helper for string containment check.
func contains(s, substr string) bool {
	return len(s) >= len(substr) && searchStr(s, substr)
}

func searchStr(s, sub string) bool {
	for i := 0; i <= len(s)-len(sub); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
