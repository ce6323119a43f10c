package shmkv

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	name := nextTestRegion()
	_ = Unlink(name)
	store, err := Create(context.Background(), Options{Name: name})
	require.NoError(t, err)
	defer func() {
		_ = store.Close()
		_ = Unlink(name)
	}()

	require.NoError(t, store.Set("a", "1"))
	require.NoError(t, store.Set("b", "2"))
	require.NoError(t, store.Delete("a"))

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(NewCollector(store))
	mfs, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "shmkv_version":
				got[mf.GetName()] = m.GetCounter().GetValue()
			case "shmkv_entries":
				got[mf.GetName()] = m.GetGauge().GetValue()
			}
			requireRegionLabel(t, m, store.Name())
		}
	}
	require.Equal(t, float64(3), got["shmkv_version"])
	require.Equal(t, float64(1), got["shmkv_entries"])
}

func requireRegionLabel(t *testing.T, m *dto.Metric, region string) {
	t.Helper()
	for _, lp := range m.GetLabel() {
		if lp.GetName() == "region" {
			require.Equal(t, region, lp.GetValue())
			return
		}
	}
	t.Fatalf("metric has no region label: %v", m)
}
