package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leengari/tablestore/internal/domain/types"
	"github.com/leengari/tablestore/internal/engine"
	"github.com/leengari/tablestore/internal/recorder"
)

const defaultDemoSteps = 12

var demoPrototypes = []string{"Reactor", "EnrichmentPlant", "Repository", "Mine"}

// runDemo simulates a few agents over steps time steps and records their
// state, entry events and produced resources. Returns the datum count.
func runDemo(store *engine.Store, dumpCount, steps int, logger *slog.Logger) (int, error) {
	simTime := int64(0)
	rec := recorder.New(
		recorder.WithDumpCount(dumpCount),
		recorder.WithLogger(logger),
	)
	rec.RegisterBackend(store)

	state := recorder.New(
		recorder.WithDumpCount(dumpCount),
		recorder.WithLogger(logger),
		recorder.WithPrefix("AgentState"),
		recorder.WithDefaultField("SimTime", func() types.Value { return types.IntValue(simTime) }),
	)
	state.RegisterBackend(store)

	written := 0
	record := func(err error) error {
		if err == nil {
			written++
		}
		return err
	}

	for i, proto := range demoPrototypes {
		d := rec.NewDatum("AgentEntry").
			AddVal("AgentId", types.IntValue(int64(i))).
			AddShapedVal("Kind", types.StringValue("Facility"), 16).
			AddVal("Prototype", types.StringValue(proto)).
			AddVal("EnterTime", types.IntValue(0))
		if err := record(d.Record()); err != nil {
			return written, err
		}
	}

	for simTime = 0; simTime < int64(steps); simTime++ {
		for i, proto := range demoPrototypes {
			d := state.NewDatum(proto).
				AddVal("AgentId", types.IntValue(int64(i))).
				AddVal("Inventory", types.DoubleValue(float64(simTime)*float64(i+1)*1.5)).
				AddVal("Online", types.BoolValue((simTime+int64(i))%4 != 0))
			if err := record(d.Record()); err != nil {
				return written, err
			}
		}

		res := rec.NewDatum("Resources").
			AddVal("ResourceId", types.UUIDValue(uuid.New())).
			AddVal("Time", types.IntValue(simTime)).
			AddVal("Quantity", types.FloatValue(float32(simTime)*0.25)).
			AddShapedVal("Units", types.StringValue("kg"), 4).
			AddVal("Composition", types.BlobValue([]byte(fmt.Sprintf("U235:%d", simTime%3))))
		if err := record(res.Record()); err != nil {
			return written, err
		}
	}

	if err := rec.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush recorder: %w", err)
	}
	if err := state.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush agent state recorder: %w", err)
	}
	logger.Info("demo workload recorded", slog.Int("datums", written), slog.Int("steps", steps))
	return written, nil
}
