package repl

import (
	"bytes"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/leengari/tablestore/internal/testutil"
)

func TestExecuteQuery(t *testing.T) {
	store, _ := testutil.OpenTestStore(t)
	assert.NilError(t, store.Notify(testutil.AgentDatums("Agents", 6)))

	var out bytes.Buffer
	err := Execute(store, "Agents WHERE Prototype = 'Sink' AND AgentId > 1;", &out)
	assert.NilError(t, err)

	text := out.String()
	assert.Check(t, is.Contains(text, "Prototype (VL_STRING)"))
	assert.Check(t, is.Contains(text, "Sink"))
	assert.Check(t, !strings.Contains(text, "Reactor"))
	assert.Check(t, is.Contains(text, "(1 row)"))
}

func TestExecuteTablesAndSchema(t *testing.T) {
	store, _ := testutil.OpenTestStore(t)
	assert.NilError(t, store.Notify(testutil.AgentDatums("Agent Log", 3)))

	var out bytes.Buffer
	assert.NilError(t, Execute(store, "tables", &out))
	assert.Check(t, is.Contains(out.String(), "Agent Log"))
	assert.Check(t, is.Contains(out.String(), "3"))

	out.Reset()
	assert.NilError(t, Execute(store, "schema 'Agent Log'", &out))
	assert.Check(t, is.Contains(out.String(), "AgentId"))
	assert.Check(t, is.Contains(out.String(), "INT"))

	err := Execute(store, "schema", &out)
	assert.ErrorContains(t, err, "usage")
}

func TestExecuteErrors(t *testing.T) {
	store, _ := testutil.OpenTestStore(t)
	assert.NilError(t, store.Notify(testutil.AgentDatums("Agents", 2)))

	var out bytes.Buffer
	assert.ErrorContains(t, Execute(store, "Missing", &out), "not found")
	assert.ErrorContains(t, Execute(store, "Agents WHERE", &out), "failed to parse")
	assert.ErrorContains(t, Execute(store, "Agents WHERE Nope = 1", &out), "Nope")
}

func TestStartLoop(t *testing.T) {
	store, _ := testutil.OpenTestStore(t)
	assert.NilError(t, store.Notify(testutil.AgentDatums("Agents", 4)))

	in := strings.NewReader("\ntables\nAgents WHERE Active = true\nbogus = \nexit\nAgents\n")
	var out bytes.Buffer
	Start(store, in, &out)

	text := out.String()
	assert.Check(t, is.Contains(text, "Agents"))
	assert.Check(t, is.Contains(text, "(2 rows)"))
	assert.Check(t, is.Contains(text, "Error:"))
	// Nothing after exit runs
	assert.Check(t, !strings.Contains(text, "(4 rows)"))
}
