// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"

	"github.com/leengari/tablestore/internal/domain/data"
	"github.com/leengari/tablestore/internal/domain/types"
)

// PairDatum builds the two-field datum {a: Int, b: VL string} under title
func PairDatum(title string, a int64, b string) *data.Datum {
	return data.NewDatum(title).
		AddVal("a", types.IntValue(a)).
		AddVal("b", types.StringValue(b))
}

// AgentDatums builds n agent-state style datums with a fixed-width kind,
// a repeating VL prototype name and a per-row double.
func AgentDatums(title string, n int) []*data.Datum {
	prototypes := []string{"Reactor", "Sink", "Source"}
	out := make([]*data.Datum, n)
	for i := 0; i < n; i++ {
		out[i] = data.NewDatum(title).
			AddVal("AgentId", types.IntValue(int64(i))).
			AddShapedVal("Kind", types.StringValue("Facility"), 8).
			AddVal("Prototype", types.StringValue(prototypes[i%len(prototypes)])).
			AddVal("Mass", types.DoubleValue(float64(i)*0.5)).
			AddVal("Active", types.BoolValue(i%2 == 0))
	}
	return out
}

// Blobs returns n distinct blob payloads
func Blobs(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("blob-%04d", i))
	}
	return out
}
