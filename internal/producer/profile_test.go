package producer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/entityexport/internal/worksheet"
)

func TestParseProfile_OverridesOnlyGivenKeys(t *testing.T) {
	data := []byte(`
client: ACME
partition_prefix: ACME_
products: [P1, P2]
columns:
  name: AGENTNAME
`)

	p, err := ParseProfile(data)
	if err != nil {
		t.Fatalf("ParseProfile() error = %v", err)
	}

	want := DefaultProfile()
	want.Client = "ACME"
	want.PartitionPrefix = "ACME_"
	want.Products = []string{"P1", "P2"}
	want.Columns.Name = "AGENTNAME"

	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestParseProfile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad yaml", "client: [", "parse profile"},
		{"blank client", "client: ''", "client is required"},
		{"blank discriminator", "columns:\n  entity_type: ''", "columns.entity_type is required"},
		{"blank license", "columns:\n  license_number: ' '", "columns.license_number is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.data))
			if err == nil {
				t.Fatal("ParseProfile() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadProfile(t *testing.T) {
	p, err := LoadProfile("")
	if err != nil {
		t.Fatalf("LoadProfile(\"\") error = %v", err)
	}
	if diff := cmp.Diff(DefaultProfile(), p); diff != "" {
		t.Errorf("empty path should return defaults (-want +got):\n%s", diff)
	}

	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("status: Pending\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p, err = LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p.Status != "Pending" {
		t.Errorf("Status = %q, want Pending", p.Status)
	}

	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadProfile(missing) error = nil, want error")
	}
}

func TestTransform_CustomProfile(t *testing.T) {
	p := DefaultProfile()
	p.PartitionPrefix = "X-"
	p.Columns.LicenseNumber = "LIC"

	tr := NewTransformer(p).WithClock(func() time.Time { return fixedNow })
	batch, err := tr.Transform([]worksheet.Row{{"ENTITYTYPE": str("Firm"), "LIC": str("9")}}, Firm)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if batch.Count != 1 || batch.Records[0].PartitionKey != "X-9" {
		t.Errorf("Records = %+v, want one record keyed X-9", batch.Records)
	}
}
