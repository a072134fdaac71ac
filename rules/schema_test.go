package rules

import (
	"strings"
	"testing"
)

func TestValidateSchema_Empty(t *testing.T) {
	err := ValidateSchema(FactSchema{})
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("ValidateSchema() = %v, want error about empty schema", err)
	}
}

func TestValidateSchema_TooManyFacts(t *testing.T) {
	schema := FactSchema{}
	for i := 0; i < 101; i++ {
		schema["fact"+string(rune('A'+i%26))+string(rune('0'+i/26))] = "int"
	}

	err := ValidateSchema(schema)
	if err == nil || !strings.Contains(err.Error(), "100") {
		t.Errorf("ValidateSchema() = %v, want error about max 100 facts", err)
	}
}

func TestValidateSchema_ValidTypes(t *testing.T) {
	for _, typeName := range []string{"string", "int", "bool", "double"} {
		t.Run(typeName, func(t *testing.T) {
			if err := ValidateSchema(FactSchema{"value": typeName}); err != nil {
				t.Errorf("ValidateSchema() with type %q failed: %v", typeName, err)
			}
		})
	}
}

func TestValidateSchema_InvalidTypes(t *testing.T) {
	for _, typeName := range []string{"", "Int", "int64", "float", " string", "string ", "timestamp"} {
		t.Run(typeName, func(t *testing.T) {
			if err := ValidateSchema(FactSchema{"value": typeName}); err == nil {
				t.Errorf("ValidateSchema() with type %q should fail", typeName)
			}
		})
	}
}

func TestValidateSchema_Identifiers(t *testing.T) {
	tests := []struct {
		name    string
		valid   bool
		message string
	}{
		{"backlink", true, ""},
		{"internal_link_count", true, ""},
		{"_private", true, ""},
		{"count2", true, ""},
		{"2count", false, "pattern"},
		{"has-dash", false, "pattern"},
		{"has space", false, "pattern"},
		{"", false, "empty"},
		{strings.Repeat("a", 101), false, "100"},
		{"in", false, "reserved"},
		{"null", false, "reserved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema(FactSchema{tt.name: "string"})
			if tt.valid {
				if err != nil {
					t.Errorf("ValidateSchema() for %q failed: %v", tt.name, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateSchema() for %q should fail", tt.name)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q should mention %q", err.Error(), tt.message)
			}
		})
	}
}

func TestFactSchemaNamesSorted(t *testing.T) {
	schema := FactSchema{"b": "int", "c": "int", "a": "int"}
	got := strings.Join(schema.Names(), ",")
	if got != "a,b,c" {
		t.Errorf("Names() = %s, want a,b,c", got)
	}
}
