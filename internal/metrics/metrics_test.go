package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AcquisitionOutcomes.WithLabelValues("success").Inc()
	m.AcquisitionOutcomes.WithLabelValues("success").Inc()
	m.PurgedDescriptors.Add(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AcquisitionOutcomes.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PurgedDescriptors))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
