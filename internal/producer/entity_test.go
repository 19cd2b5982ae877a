package producer

import "testing"

func TestEntityTypeLabels(t *testing.T) {
	tests := []struct {
		entity EntityType
		label  string
		plural string
	}{
		{Individual, "Agent", "Agents"},
		{Firm, "Agency", "Agencies"},
	}

	for _, tt := range tests {
		if got := tt.entity.Label(); got != tt.label {
			t.Errorf("%s.Label() = %q, want %q", tt.entity, got, tt.label)
		}
		if got := tt.entity.Plural(); got != tt.plural {
			t.Errorf("%s.Plural() = %q, want %q", tt.entity, got, tt.plural)
		}
	}
}

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		in      string
		want    EntityType
		wantErr bool
	}{
		{"Individual", Individual, false},
		{"Agent", Individual, false},
		{"Firm", Firm, false},
		{"Agency", Firm, false},
		{"firm", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseEntityType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEntityType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEntityType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
