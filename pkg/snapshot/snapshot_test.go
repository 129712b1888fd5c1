package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirocosta/ether-exporter/pkg/snapshot"
)

var (
	height = snapshot.Definition{
		Name: "height",
		Help: "chain height",
	}

	balance = snapshot.Definition{
		Name:   "balance",
		Help:   "account balance",
		Labels: []string{"account"},
	}
)

func TestNew(t *testing.T) {
	s := snapshot.New(height, balance)

	assert.Equal(t, []string{"balance", "height"}, s.Names())

	for _, name := range s.Names() {
		readings, found := s.Readings(name)
		assert.True(t, found)
		assert.NotNil(t, readings)
		assert.Empty(t, readings)
	}

	_, found := s.Readings("missing")
	assert.False(t, found)
	assert.False(t, s.Has("missing"))
}

func TestSnapshot_Add(t *testing.T) {
	s := snapshot.New(height, balance)

	require.NoError(t, s.Add("height", 10))
	require.NoError(t, s.Add("balance", 1.5, "0x1"))
	require.NoError(t, s.Add("balance", 2, "0x2"))

	readings, _ := s.Readings("height")
	assert.Equal(t, []snapshot.Reading{{Value: 10}}, readings)

	readings, _ = s.Readings("balance")
	assert.Equal(t, []snapshot.Reading{
		{LabelValues: []string{"0x1"}, Value: 1.5},
		{LabelValues: []string{"0x2"}, Value: 2},
	}, readings)
}

func TestSnapshot_Add_errors(t *testing.T) {
	s := snapshot.New(height, balance)

	assert.Error(t, s.Add("unknown", 1))
	assert.Error(t, s.Add("height", 1, "extra"))
	assert.Error(t, s.Add("balance", 1))

	for _, name := range s.Names() {
		readings, _ := s.Readings(name)
		assert.Empty(t, readings)
	}
}

func TestSnapshot_Add_copiesLabelValues(t *testing.T) {
	s := snapshot.New(balance)

	labels := []string{"0x1"}
	require.NoError(t, s.Add("balance", 1, labels...))
	labels[0] = "mutated"

	readings, _ := s.Readings("balance")
	assert.Equal(t, []string{"0x1"}, readings[0].LabelValues)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "gauge", snapshot.Gauge.String())
	assert.Equal(t, "counter", snapshot.Counter.String())
	assert.Equal(t, "kind(7)", snapshot.Kind(7).String())
}
