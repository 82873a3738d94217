package parser

import (
	"testing"

	"github.com/google/uuid"

	"github.com/leengari/tablestore/internal/domain/types"
	"github.com/leengari/tablestore/internal/parser/lexer"
	"github.com/leengari/tablestore/internal/query"
)

func TestParseQuery(t *testing.T) {
	input := "Agents WHERE Mass >= 2.5 AND Prototype = 'Sink' AND AgentId < 7;"
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("Lexer error: %v", err)
	}

	stmt, err := New(tokens).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if stmt.Table.Value != "Agents" {
		t.Errorf("Expected table Agents, got %s", stmt.Table.Value)
	}
	if len(stmt.Where) != 3 {
		t.Fatalf("Expected 3 comparisons, got %d", len(stmt.Where))
	}

	first := stmt.Where[0]
	if first.Field.Value != "Mass" || first.Operator != ">=" {
		t.Errorf("Unexpected first comparison %s", first)
	}
	if first.Value.Value.Kind != types.KindDouble || first.Value.Value.Double != 2.5 {
		t.Errorf("Expected double 2.5, got %v", first.Value.Value)
	}
	if stmt.Where[2].Value.Value.Kind != types.KindInt || stmt.Where[2].Value.Value.Int != 7 {
		t.Errorf("Expected int 7, got %v", stmt.Where[2].Value.Value)
	}

	want := "Agents WHERE Mass >= 2.5 AND Prototype = 'Sink' AND AgentId < 7"
	if stmt.String() != want {
		t.Errorf("String() = %q, want %q", stmt.String(), want)
	}
}

func TestParseQueryWithoutWhere(t *testing.T) {
	title, conds, err := ParseQuery("'Agent Log'")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if title != "Agent Log" {
		t.Errorf("Expected quoted title, got %q", title)
	}
	if len(conds) != 0 {
		t.Errorf("Expected no conditions, got %v", conds)
	}
}

func TestParseConditions(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	conds, err := ParseConditions("a = 1, b <> 'it''s' AND c == true and d != uuid'" + id.String() + "' AND e > -0.5")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	want := []query.Condition{
		query.NewCondition("a", query.OpEq, types.IntValue(1)),
		query.NewCondition("b", query.OpNe, types.StringValue("it's")),
		query.NewCondition("c", query.OpEq, types.BoolValue(true)),
		query.NewCondition("d", query.OpNe, types.UUIDValue(id)),
		query.NewCondition("e", query.OpGt, types.DoubleValue(-0.5)),
	}
	if len(conds) != len(want) {
		t.Fatalf("Expected %d conditions, got %d", len(want), len(conds))
	}
	for i := range want {
		if conds[i].Field != want[i].Field || conds[i].Op != want[i].Op || !conds[i].Value.Equal(want[i].Value) {
			t.Errorf("condition %d: got %s, want %s", i, conds[i], want[i])
		}
	}
}

func TestParseConditionsEmpty(t *testing.T) {
	conds, err := ParseConditions("   ")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if conds != nil {
		t.Errorf("Expected nil conditions, got %v", conds)
	}

	conds, err = ParseConditions("WHERE x <= 3")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(conds) != 1 || conds[0].Op != query.OpLe {
		t.Errorf("Unexpected conditions %v", conds)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing table", "WHERE a = 1"},
		{"missing operator", "T WHERE a 1"},
		{"missing operand", "T WHERE a ="},
		{"field on right", "T WHERE a = b"},
		{"dangling and", "T WHERE a = 1 AND"},
		{"trailing tokens", "T WHERE a = 1 b"},
		{"bad uuid", "T WHERE a = uuid'nope'"},
		{"integer overflow", "T WHERE a = 99999999999999999999"},
		{"empty where", "T WHERE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseQuery(tt.input); err == nil {
				t.Errorf("ParseQuery(%q) expected error", tt.input)
			}
		})
	}
}

func TestParseUnknownFieldIsNotAParseError(t *testing.T) {
	// Field names are resolved against the schema by the query compiler
	_, conds, err := ParseQuery("T WHERE nosuchfield = 1")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(conds) != 1 {
		t.Fatalf("Expected one condition, got %d", len(conds))
	}
	if conds[0].Field != "nosuchfield" {
		t.Errorf("Unexpected field %q", conds[0].Field)
	}
}
