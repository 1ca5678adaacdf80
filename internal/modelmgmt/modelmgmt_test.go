package modelmgmt

import (
	"context"
	"testing"
	"time"

	"github.com/ollm-cli/ollm/internal/clock"
	"github.com/ollm-cli/ollm/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroJitter() float64 { return 0.5 } // maps to a +0% offset

func TestListModelsCachesWithinTTL(t *testing.T) {
	fake := &fakeAdapter{models: []provider.ModelInfo{{Name: "llama3.1:8b"}}}
	c := clock.NewFake(time.Unix(0, 0))
	svc := New(fake, c, KeepAliveConfig{}, time.Minute, zeroJitter)

	first, err := svc.ListModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 1)

	fake.mu.Lock()
	fake.models = append(fake.models, provider.ModelInfo{Name: "phi3:mini"})
	fake.mu.Unlock()

	c.Advance(30 * time.Second)
	second, err := svc.ListModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 1, "still within TTL, cache not refreshed")

	c.Advance(time.Minute)
	third, err := svc.ListModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, third, 2, "TTL expired, refreshed from provider")
}

func TestListModelsProviderErrorDoesNotMutateCache(t *testing.T) {
	fake := &fakeAdapter{models: []provider.ModelInfo{{Name: "llama3.1:8b"}}}
	c := clock.NewFake(time.Unix(0, 0))
	svc := New(fake, c, KeepAliveConfig{}, time.Millisecond, zeroJitter)

	_, err := svc.ListModels(context.Background())
	require.NoError(t, err)

	c.Advance(time.Second)
	fake.listErr = assert.AnError
	_, err = svc.ListModels(context.Background())
	assert.Error(t, err)

	fake.listErr = nil
	c.Advance(time.Second)
	models, err := svc.ListModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, models, 1)
}

func TestPullModelInvalidatesCacheOnSuccess(t *testing.T) {
	fake := &fakeAdapter{models: []provider.ModelInfo{{Name: "llama3.1:8b"}}}
	c := clock.NewFake(time.Unix(0, 0))
	svc := New(fake, c, KeepAliveConfig{}, time.Hour, zeroJitter)

	_, err := svc.ListModels(context.Background())
	require.NoError(t, err)

	var progress []provider.ProgressUpdate
	err = svc.PullModel(context.Background(), "phi3:mini", func(p provider.ProgressUpdate) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, progress)

	models, err := svc.ListModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, models, 2, "cache was invalidated and refetched")
}

func TestDeleteModelUnloadsFirstThenDeletes(t *testing.T) {
	fake := &fakeAdapter{models: []provider.ModelInfo{{Name: "llama3.1:8b"}}}
	c := clock.NewFake(time.Unix(0, 0))
	svc := New(fake, c, KeepAliveConfig{Enabled: true, KeepAliveTimeout: time.Hour}, time.Hour, zeroJitter)

	svc.KeepModelLoaded("llama3.1:8b")
	err := svc.DeleteModel(context.Background(), "llama3.1:8b")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.unloadCalls)
	assert.Equal(t, []string{"llama3.1:8b"}, fake.deleteCalls)
	assert.False(t, svc.GetModelStatus("llama3.1:8b").Loaded)
}

func TestDeleteModelBestEffortWhenUnloadFails(t *testing.T) {
	fake := &fakeAdapter{unloadErr: assert.AnError}
	c := clock.NewFake(time.Unix(0, 0))
	svc := New(fake, c, KeepAliveConfig{Enabled: true, KeepAliveTimeout: time.Hour}, time.Hour, zeroJitter)

	svc.KeepModelLoaded("m")
	err := svc.DeleteModel(context.Background(), "m")
	require.NoError(t, err, "delete itself succeeds even though unload failed")
	assert.Equal(t, []string{"m"}, fake.deleteCalls)
}

func TestShowModelNotFound(t *testing.T) {
	fake := &fakeAdapter{showErr: assert.AnError}
	c := clock.NewFake(time.Unix(0, 0))
	svc := New(fake, c, KeepAliveConfig{}, time.Hour, zeroJitter)

	_, err := svc.ShowModel(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestKeepModelLoadedNoopWhenDisabled(t *testing.T) {
	fake := &fakeAdapter{}
	c := clock.NewFake(time.Unix(0, 0))
	svc := New(fake, c, KeepAliveConfig{Enabled: false}, time.Hour, zeroJitter)

	svc.KeepModelLoaded("m")
	assert.False(t, svc.GetModelStatus("m").Loaded)
}

// TestS5KeepAliveScenario reconstructs spec scenario S5.
func TestS5KeepAliveScenario(t *testing.T) {
	fake := &fakeAdapter{}
	c := clock.NewFake(time.Unix(0, 0))
	cfg := KeepAliveConfig{Enabled: true, KeepAliveTimeout: time.Second}
	svc := New(fake, c, cfg, time.Hour, zeroJitter)

	svc.KeepModelLoaded("m")
	c.Advance(1500 * time.Millisecond)
	loaded := svc.GetLoadedModels(context.Background())
	assert.NotContains(t, loaded, "m")

	cfg2 := KeepAliveConfig{Enabled: true, KeepAliveTimeout: time.Second, KeepAliveModels: []string{"m"}}
	svc2 := New(fake, c, cfg2, time.Hour, zeroJitter)
	svc2.KeepModelLoaded("m")
	c.Advance(1500 * time.Millisecond)
	loaded2 := svc2.GetLoadedModels(context.Background())
	assert.Contains(t, loaded2, "m")
}

func TestGetLoadedModelsObservesPriorUnload(t *testing.T) {
	fake := &fakeAdapter{}
	c := clock.NewFake(time.Unix(0, 0))
	svc := New(fake, c, KeepAliveConfig{Enabled: true, KeepAliveTimeout: time.Hour}, time.Hour, zeroJitter)

	svc.KeepModelLoaded("a")
	svc.KeepModelLoaded("b")
	require.NoError(t, svc.UnloadModel(context.Background(), "a"))

	loaded := svc.GetLoadedModels(context.Background())
	assert.NotContains(t, loaded, "a")
	assert.Contains(t, loaded, "b")
}

func TestGetModelStatusUnloadedByDefault(t *testing.T) {
	fake := &fakeAdapter{}
	c := clock.NewFake(time.Unix(0, 0))
	svc := New(fake, c, KeepAliveConfig{}, time.Hour, zeroJitter)
	assert.Equal(t, Status{}, svc.GetModelStatus("never-loaded"))
}

func TestDisposeIsIdempotentAndClearsTimers(t *testing.T) {
	fake := &fakeAdapter{}
	c := clock.NewFake(time.Unix(0, 0))
	svc := New(fake, c, KeepAliveConfig{Enabled: true, KeepAliveTimeout: time.Hour}, time.Hour, zeroJitter)

	svc.KeepModelLoaded("m")
	svc.Dispose()
	svc.Dispose() // must not panic
	assert.False(t, svc.GetModelStatus("m").Loaded)
}

func TestJitteredIntervalWithinTenPercent(t *testing.T) {
	base := 10 * time.Second
	low := jitteredInterval(base, 0)
	high := jitteredInterval(base, 1)
	assert.InDelta(t, float64(9*time.Second), float64(low), float64(time.Millisecond))
	assert.InDelta(t, float64(11*time.Second), float64(high), float64(time.Millisecond))
}
