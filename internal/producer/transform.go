// Package producer maps spreadsheet rows to producer records.
//
// A Transformer runs one pass per EntityType over the same rows. Each pass
// keeps a row only when its discriminator matches the pass, its partition
// key has not been accepted earlier in the pass, and its license has not
// expired. Accepted rows are copied field-for-field into a Record; empty
// source cells stay empty in the output.
package producer

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/entityexport/internal/worksheet"
)

// MalformedRowError is returned when a row has no discriminator column.
// A present but empty or non-matching discriminator is not an error.
type MalformedRowError struct {
	Row    int // 1-based position among the data rows
	Column string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("row %d has no %s column", e.Row, e.Column)
}

// Batch is the output of one entity pass.
type Batch struct {
	Entity  EntityType
	Records []Record
	Count   int

	// Rows rejected by each rule, for logging.
	Mismatched int
	Duplicates int
	Expired    int
}

// Transformer builds Records from rows. It holds no per-run state and is
// safe for concurrent use.
type Transformer struct {
	profile Profile
	now     func() time.Time
}

// NewTransformer returns a Transformer using profile and the wall clock.
func NewTransformer(profile Profile) *Transformer {
	return &Transformer{profile: profile, now: time.Now}
}

// WithClock returns a copy of t that reads today's date from now.
func (t *Transformer) WithClock(now func() time.Time) *Transformer {
	c := *t
	c.now = now
	return &c
}

// Profile returns the mapping profile in use.
func (t *Transformer) Profile() Profile {
	return t.profile
}

// Transform runs the pass for tag over rows in order.
func (t *Transformer) Transform(rows []worksheet.Row, tag EntityType) (*Batch, error) {
	cols := t.profile.Columns
	now := t.now()

	batch := &Batch{Entity: tag, Records: []Record{}}
	seen := make(map[string]struct{})

	for i, row := range rows {
		if !row.Has(cols.EntityType) {
			return nil, &MalformedRowError{Row: i + 1, Column: cols.EntityType}
		}
		if v, _ := row.Value(cols.EntityType); v != string(tag) {
			batch.Mismatched++
			continue
		}

		license, _ := row.Value(cols.LicenseNumber)
		key := t.profile.PartitionPrefix + license
		if _, dup := seen[key]; dup {
			batch.Duplicates++
			continue
		}

		if exp, ok := row.Value(cols.ExpirationDate); ok && Expired(exp, now) {
			batch.Expired++
			continue
		}

		seen[key] = struct{}{}
		batch.Records = append(batch.Records, t.build(row, key))
	}

	batch.Count = len(batch.Records)
	return batch, nil
}

func (t *Transformer) build(row worksheet.Row, key string) Record {
	p := t.profile
	cols := p.Columns

	mailingPhone := row[cols.MailingPhone]
	businessPhone := row[cols.BusinessPhone]
	email := row[cols.MailingEmail]
	postal := row[cols.PostalAddress]

	emailValue := ""
	if email != nil {
		emailValue = *email
	}

	products := make([]string, len(p.Products))
	copy(products, p.Products)

	return Record{
		PartitionKey: key,
		Client:       p.Client,
		Code:         p.Code,
		Name:         row[cols.Name],
		Status:       p.Status,
		Products:     products,
		Reference:    []string{},
		ExternalEntityIdentifier: ExternalIdentifier{
			Code:  p.ExternalIDCode,
			Value: row[cols.EntityType],
		},
		NPN: row[cols.NPN],
		LicenseDetails: LicenseDetails{
			LicenseType:                row[cols.LicenseType],
			LicenseNumber:              row[cols.LicenseNumber],
			EffectiveDate:              row[cols.EffectiveDate],
			ExpirationDate:             row[cols.ExpirationDate],
			Qualification:              row[cols.Qualification],
			QualificationEffectiveDate: row[cols.QualificationEffectiveDate],
		},
		Details: Details{
			Contact: Contact{
				HomePhone:           mailingPhone,
				BusinessPhone:       businessPhone,
				MobilePhone:         mailingPhone,
				EmailId:             email,
				QuoteEmailId:        email,
				PolicyEmailId:       email,
				FromEmailId:         email,
				EmailCCId:           email,
				PreferedContactType: p.PreferredContactType,
				SecondaryEmailId:    email,
			},
		},
		Address: Address{
			StreetName:         postal,
			Country:            p.Country,
			CountryCode:        p.Country,
			AddressType:        p.AddressType,
			UnFormattedAddress: postal,
		},
		Communications: []Communication{
			{Type: "PhNo", SubType: "Primary", Value: businessPhone, Status: p.CommunicationStatus},
			{Type: "Email", SubType: "Primary", Value: &emailValue, Status: p.CommunicationStatus},
		},
	}
}
