package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	sim "github.com/plant-sim/plant-sim/sim"
)

func TestWriteArrivals_RoundTripsThroughYAML(t *testing.T) {
	// GIVEN the sample workload generated for seed 42
	p, err := buildPlant(samplePlant, sim.DefaultEngineConfig())
	require.NoError(t, err)
	arrivals, err := generateArrivals(p, sampleWorkload)
	require.NoError(t, err)
	require.Len(t, arrivals, 60)

	// WHEN they are written as YAML
	var buf bytes.Buffer
	require.NoError(t, writeArrivals(&buf, arrivals))

	// THEN the records carry every order in arrival order
	var records []arrivalRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, len(arrivals))
	for i, r := range records {
		assert.Equal(t, int(arrivals[i].Order.ID), r.ID)
		assert.Equal(t, arrivals[i].Time, r.Time)
		assert.Equal(t, arrivals[i].Order.DueDate, r.DueDate)
		assert.Len(t, r.Lines, len(arrivals[i].Order.Lines))
	}
}
