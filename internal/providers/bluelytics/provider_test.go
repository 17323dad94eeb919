package bluelytics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andesdata/dataseb/internal/config"
	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/pkg/models"
)

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/evolution.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"date":"2024-01-03","source":"Blue","value_sell":1025,"value_buy":1005},
			{"date":"2024-01-02","source":"Blue","value_sell":1000,"value_buy":980},
			{"date":"2024-01-02","source":"Oficial","value_sell":830.5,"value_buy":810.5}
		]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(srvURL string) *Provider {
	return New(config.BluelyticConfig{EvolutionURL: srvURL + "/v2/evolution.json"})
}

func TestProviderInfo(t *testing.T) {
	p := New(config.BluelyticConfig{})
	info := p.Info()
	if info.Name != "bluelytics" {
		t.Errorf("expected name bluelytics, got %s", info.Name)
	}
}

func TestProviderSupportedModels(t *testing.T) {
	p := New(config.BluelyticConfig{})
	models := p.SupportedModels()
	if len(models) != 1 || models[0] != provider.ModelBlueExchangeRate {
		t.Errorf("unexpected models: %v", models)
	}
}

func TestEvolutionFetchBlue(t *testing.T) {
	srv := fixtureServer(t)
	p := testProvider(srv.URL)
	f := p.Fetcher(provider.ModelBlueExchangeRate)

	result, err := f.Fetch(context.Background(), provider.QueryParams{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	rates := result.Data.([]models.ExchangeRate)
	if len(rates) != 2 {
		t.Fatalf("expected 2 blue quotes, got %d", len(rates))
	}
	if !rates[0].Date.Equal(time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("quotes not sorted ascending: %v", rates)
	}
	if rates[0].Buy != 980 || rates[0].Sell != 1000 {
		t.Errorf("unexpected first quote: %+v", rates[0])
	}
	if rates[0].Type != "blue" || rates[0].Source != "bluelytics" {
		t.Errorf("unexpected labels: %+v", rates[0])
	}
}

func TestEvolutionFetchOfficial(t *testing.T) {
	srv := fixtureServer(t)
	p := testProvider(srv.URL)
	f := p.Fetcher(provider.ModelBlueExchangeRate)

	result, err := f.Fetch(context.Background(), provider.QueryParams{
		provider.ParamRateType: "official",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	rates := result.Data.([]models.ExchangeRate)
	if len(rates) != 1 {
		t.Fatalf("expected 1 official quote, got %d", len(rates))
	}
	if rates[0].Sell != 830.5 {
		t.Errorf("sell = %v, want 830.5", rates[0].Sell)
	}
}

func TestEvolutionInvalidRateType(t *testing.T) {
	srv := fixtureServer(t)
	p := testProvider(srv.URL)
	f := p.Fetcher(provider.ModelBlueExchangeRate)

	_, err := f.Fetch(context.Background(), provider.QueryParams{
		provider.ParamRateType: "mep",
	})
	if _, ok := err.(*provider.ErrInvalidParam); !ok {
		t.Fatalf("expected ErrInvalidParam, got %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := fixtureServer(t)
	p := testProvider(srv.URL)
	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
