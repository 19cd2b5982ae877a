package producer

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/entityexport/internal/worksheet"
)

func str(s string) *string { return &s }

var fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func testTransformer() *Transformer {
	return NewTransformer(DefaultProfile()).WithClock(func() time.Time { return fixedNow })
}

func scenarioRows() []worksheet.Row {
	return []worksheet.Row{
		{
			"ENTITYTYPE":     str("Individual"),
			"LICENSENUMBER":  str("L1"),
			"EXPIRATIONDATE": str("2099-01-01"),
			"PRODUCERNAME":   str("Jane Doe"),
			"NPN":            str("123"),
		},
		{
			"ENTITYTYPE":     str("Firm"),
			"LICENSENUMBER":  str("L2"),
			"EXPIRATIONDATE": str("2000-01-01"),
			"PRODUCERNAME":   str("Old Firm"),
			"NPN":            nil,
		},
	}
}

func TestTransform_Scenario(t *testing.T) {
	tr := testTransformer()
	rows := scenarioRows()

	individuals, err := tr.Transform(rows, Individual)
	if err != nil {
		t.Fatalf("Transform(Individual) error = %v", err)
	}
	if individuals.Count != 1 {
		t.Fatalf("Individual Count = %d, want 1", individuals.Count)
	}
	if got := individuals.Records[0].PartitionKey; got != "CFP_L1" {
		t.Errorf("PartitionKey = %q, want CFP_L1", got)
	}

	firms, err := tr.Transform(rows, Firm)
	if err != nil {
		t.Fatalf("Transform(Firm) error = %v", err)
	}
	if firms.Count != 0 {
		t.Errorf("Firm Count = %d, want 0", firms.Count)
	}
	if firms.Expired != 1 {
		t.Errorf("Firm Expired = %d, want 1", firms.Expired)
	}
	if firms.Records == nil {
		t.Error("Firm Records is nil, want empty slice")
	}
}

func TestTransform_FullRecord(t *testing.T) {
	row := worksheet.Row{
		"ENTITYTYPE":                 str("Individual"),
		"LICENSENUMBER":              str("L9"),
		"EXPIRATIONDATE":             str("2030-12-31"),
		"EFFECTIVEDATE":              str("2020-01-01"),
		"LICENSETYPE":                str("Producer"),
		"QUALIFICATION":              str("Life"),
		"QUALIFICATIONEFFECTIVEDATE": str("2020-02-02"),
		"PRODUCERNAME":               str("Ann Lee"),
		"NPN":                        str("555"),
		"MAILINGPHONE":               str("555-0100"),
		"BUSINESSPHONE":              str("555-0199"),
		"MAILINGEMAILADDRESS":        str("ann@example.com"),
		"PREFERREDPOSTALADDRESS":     str("1 Main St, Springfield"),
	}

	batch, err := testTransformer().Transform([]worksheet.Row{row}, Individual)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	email := str("ann@example.com")
	want := Record{
		PartitionKey: "CFP_L9",
		Client:       "CFP",
		Code:         "",
		Name:         str("Ann Lee"),
		Status:       "Active",
		Products:     []string{"CFCFDP1CO"},
		Reference:    []string{},
		ExternalEntityIdentifier: ExternalIdentifier{
			Code:  "ENTITY ID",
			Value: str("Individual"),
		},
		NPN: str("555"),
		LicenseDetails: LicenseDetails{
			LicenseType:                str("Producer"),
			LicenseNumber:              str("L9"),
			EffectiveDate:              str("2020-01-01"),
			ExpirationDate:             str("2030-12-31"),
			Qualification:              str("Life"),
			QualificationEffectiveDate: str("2020-02-02"),
		},
		Details: Details{Contact: Contact{
			HomePhone:           str("555-0100"),
			BusinessPhone:       str("555-0199"),
			MobilePhone:         str("555-0100"),
			EmailId:             email,
			QuoteEmailId:        email,
			PolicyEmailId:       email,
			FromEmailId:         email,
			EmailCCId:           email,
			PreferedContactType: "E",
			SecondaryEmailId:    email,
		}},
		Address: Address{
			StreetName:         str("1 Main St, Springfield"),
			Country:            "US",
			CountryCode:        "US",
			AddressType:        "M",
			UnFormattedAddress: str("1 Main St, Springfield"),
		},
		Communications: []Communication{
			{Type: "PhNo", SubType: "Primary", Value: str("555-0199"), Status: "Active"},
			{Type: "Email", SubType: "Primary", Value: email, Status: "Active"},
		},
	}

	if diff := cmp.Diff([]Record{want}, batch.Records); diff != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform_DuplicateKeepsFirst(t *testing.T) {
	rows := []worksheet.Row{
		{"ENTITYTYPE": str("Firm"), "LICENSENUMBER": str("A1"), "PRODUCERNAME": str("First")},
		{"ENTITYTYPE": str("Firm"), "LICENSENUMBER": str("A2"), "PRODUCERNAME": str("Other")},
		{"ENTITYTYPE": str("Firm"), "LICENSENUMBER": str("A1"), "PRODUCERNAME": str("Second")},
	}

	batch, err := testTransformer().Transform(rows, Firm)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	var names []string
	for _, r := range batch.Records {
		names = append(names, *r.Name)
	}
	if diff := cmp.Diff([]string{"First", "Other"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if batch.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", batch.Duplicates)
	}
}

func TestTransform_PartitionKeysUnique(t *testing.T) {
	var rows []worksheet.Row
	for _, lic := range []string{"X", "Y", "X", "", "Z", "Y", ""} {
		row := worksheet.Row{"ENTITYTYPE": str("Individual"), "LICENSENUMBER": nil}
		if lic != "" {
			row["LICENSENUMBER"] = str(lic)
		}
		rows = append(rows, row)
	}

	batch, err := testTransformer().Transform(rows, Individual)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	seen := make(map[string]bool)
	for _, r := range batch.Records {
		if seen[r.PartitionKey] {
			t.Errorf("duplicate partition key %q", r.PartitionKey)
		}
		seen[r.PartitionKey] = true
	}
	if batch.Count != 4 {
		t.Errorf("Count = %d, want 4 (X, Y, empty, Z)", batch.Count)
	}
}

func TestTransform_ExpiryRules(t *testing.T) {
	tests := []struct {
		name       string
		expiration *string
		keep       bool
	}{
		{"future", str("2099-01-01"), true},
		{"today", str("2025-06-15"), true},
		{"yesterday", str("2025-06-14"), false},
		{"us format past", str("6/14/2025"), false},
		{"missing", nil, true},
		{"unparseable", str("someday"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []worksheet.Row{{
				"ENTITYTYPE":     str("Individual"),
				"LICENSENUMBER":  str("L"),
				"EXPIRATIONDATE": tt.expiration,
			}}
			batch, err := testTransformer().Transform(rows, Individual)
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if got := batch.Count == 1; got != tt.keep {
				t.Errorf("kept = %v, want %v", got, tt.keep)
			}
		})
	}
}

func TestTransform_DiscriminatorRules(t *testing.T) {
	rows := []worksheet.Row{
		{"ENTITYTYPE": nil, "LICENSENUMBER": str("1")},
		{"ENTITYTYPE": str("individual"), "LICENSENUMBER": str("2")},
		{"ENTITYTYPE": str("Individual"), "LICENSENUMBER": str("3")},
	}

	batch, err := testTransformer().Transform(rows, Individual)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if batch.Count != 1 || batch.Records[0].PartitionKey != "CFP_3" {
		t.Errorf("Records = %+v, want only CFP_3", batch.Records)
	}
	if batch.Mismatched != 2 {
		t.Errorf("Mismatched = %d, want 2", batch.Mismatched)
	}
}

func TestTransform_MissingDiscriminatorColumn(t *testing.T) {
	rows := []worksheet.Row{
		{"ENTITYTYPE": str("Individual"), "LICENSENUMBER": str("1")},
		{"LICENSENUMBER": str("2")},
	}

	_, err := testTransformer().Transform(rows, Individual)

	var malformed *MalformedRowError
	if !errors.As(err, &malformed) {
		t.Fatalf("Transform() error = %v, want *MalformedRowError", err)
	}
	if malformed.Row != 2 {
		t.Errorf("Row = %d, want 2", malformed.Row)
	}
	if malformed.Column != "ENTITYTYPE" {
		t.Errorf("Column = %q, want ENTITYTYPE", malformed.Column)
	}
}

func TestTransform_Deterministic(t *testing.T) {
	tr := testTransformer()

	encode := func() []byte {
		batch, err := tr.Transform(scenarioRows(), Individual)
		if err != nil {
			t.Fatalf("Transform() error = %v", err)
		}
		b, err := json.Marshal(batch.Records)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		return b
	}

	if a, b := encode(), encode(); !bytes.Equal(a, b) {
		t.Errorf("two runs differ:\n%s\n%s", a, b)
	}
}

func TestRecordJSON_Shape(t *testing.T) {
	batch, err := testTransformer().Transform(scenarioRows()[:1], Individual)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	b, err := json.Marshal(batch.Records[0])
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if doc["ctspartitionkey"] != "CFP_L1" {
		t.Errorf("ctspartitionkey = %v, want CFP_L1", doc["ctspartitionkey"])
	}
	if ref, ok := doc["Reference"].([]any); !ok || len(ref) != 0 {
		t.Errorf("Reference = %v, want []", doc["Reference"])
	}

	addr := doc["Address"].(map[string]any)
	if len(addr) != 24 {
		// StreetName and UnFormattedAddress are absent without a postal address.
		t.Errorf("Address has %d keys, want 24", len(addr))
	}
	if v, ok := addr["IsManual"]; !ok || v != nil {
		t.Errorf("Address.IsManual = %v (present %v), want null", v, ok)
	}

	contact := doc["Details"].(map[string]any)["Contact"].(map[string]any)
	if _, ok := contact["EmailId"]; ok {
		t.Error("Contact.EmailId present, want omitted for empty source cell")
	}
	if contact["Fax"] != "" {
		t.Errorf("Contact.Fax = %v, want empty string", contact["Fax"])
	}

	comms := doc["Communications"].([]any)
	email := comms[1].(map[string]any)
	if email["Value"] != "" {
		t.Errorf("Email communication Value = %v, want empty string", email["Value"])
	}
}

func TestRecordFieldValue(t *testing.T) {
	r := Record{PartitionKey: "CFP_1", Client: "CFP", Name: str("Jane"), NPN: str("")}

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"Name", "Jane", true},
		{"ctspartitionkey", "CFP_1", true},
		{"PartitionKey", "CFP_1", true},
		{"Client", "CFP", true},
		{"Code", "", false},
		{"NPN", "", false},
		{"Address", "", false},
	}

	for _, tt := range tests {
		got, ok := r.FieldValue(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FieldValue(%q) = %q, %v, want %q, %v", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
}
