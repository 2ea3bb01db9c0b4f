package bias

import (
	"context"
	"errors"
	"testing"

	"macroedge/internal/config"
	"macroedge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSeedStore struct {
	nextID       int64
	indices      map[string]int64
	defs         map[string]config.IndexDef
	indicatorIDs []int64
	weights      map[[2]int64]float64
	weightsErr   error
}

func newFakeSeedStore(indicatorIDs ...int64) *fakeSeedStore {
	return &fakeSeedStore{
		indices:      map[string]int64{},
		defs:         map[string]config.IndexDef{},
		indicatorIDs: indicatorIDs,
		weights:      map[[2]int64]float64{},
	}
}

func (f *fakeSeedStore) UpsertIndex(ctx context.Context, def config.IndexDef) (int64, error) {
	f.defs[def.Code] = def
	if id, ok := f.indices[def.Code]; ok {
		return id, nil
	}
	f.nextID++
	f.indices[def.Code] = f.nextID
	return f.nextID, nil
}

func (f *fakeSeedStore) ListIndicatorIDs(ctx context.Context) ([]int64, error) {
	return f.indicatorIDs, nil
}

func (f *fakeSeedStore) UpsertWeights(ctx context.Context, weights []domain.WeightAssignment) (int, error) {
	if f.weightsErr != nil {
		return 0, f.weightsErr
	}
	for _, w := range weights {
		f.weights[[2]int64{w.IndexID, w.IndicatorID}] = w.Weight
	}
	return len(weights), nil
}

func TestEqualWeight(t *testing.T) {
	assert.Equal(t, 0.0, EqualWeight(0))
	assert.Equal(t, 1.0, EqualWeight(1))
	assert.Equal(t, 0.3333, EqualWeight(3))
	assert.Equal(t, 0.1429, EqualWeight(7))
	assert.Equal(t, 0.0001, EqualWeight(20000))
	assert.Equal(t, 0.0001, EqualWeight(1_000_000))
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newFakeSeedStore(10, 11, 12, 13)
	defs := []config.IndexDef{{Code: "US500"}, {Code: " NAS100 "}, {Code: ""}, {Code: "US500"}}
	seeder := NewSeeder(testTracer, store, defs)

	first, err := seeder.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SeedResult{IndicesSeeded: 2, WeightsSeeded: 8}, first)

	second, err := seeder.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, store.indices, 2)
	assert.Len(t, store.weights, 8)
	for _, w := range store.weights {
		assert.Equal(t, 0.25, w)
	}
}

func TestSeedWithoutIndicators(t *testing.T) {
	store := newFakeSeedStore()
	result, err := NewSeeder(testTracer, store, []config.IndexDef{{Code: "US500"}}).Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.IndicesSeeded)
	assert.Zero(t, result.WeightsSeeded)
	assert.Empty(t, store.weights)
}

func TestSeedWeightFailure(t *testing.T) {
	store := newFakeSeedStore(1)
	store.weightsErr = errors.New("deadlock")

	_, err := NewSeeder(testTracer, store, []config.IndexDef{{Code: "US500"}}).Seed(context.Background())
	require.Error(t, err)
}

func TestSeedIndicesAppliesMarketDefaults(t *testing.T) {
	store := newFakeSeedStore()
	defs := []config.IndexDef{
		{Code: "US500"},
		{Code: "DAX40", Name: "DAX", Region: "EU", Currency: "EUR", Timezone: "Europe/Berlin"},
	}

	_, err := NewSeeder(testTracer, store, defs).SeedIndices(context.Background())
	require.NoError(t, err)

	assert.Equal(t, config.IndexDef{
		Code: "US500", Name: "US500", Region: "US", Currency: "USD", Timezone: "America/New_York",
	}, store.defs["US500"])
	assert.Equal(t, defs[1], store.defs["DAX40"])
}
