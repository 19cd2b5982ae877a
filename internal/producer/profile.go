package producer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Columns names the sheet headers a Record is built from.
type Columns struct {
	EntityType                 string `yaml:"entity_type"`
	LicenseNumber              string `yaml:"license_number"`
	ExpirationDate             string `yaml:"expiration_date"`
	Name                       string `yaml:"name"`
	NPN                        string `yaml:"npn"`
	LicenseType                string `yaml:"license_type"`
	EffectiveDate              string `yaml:"effective_date"`
	Qualification              string `yaml:"qualification"`
	QualificationEffectiveDate string `yaml:"qualification_effective_date"`
	MailingPhone               string `yaml:"mailing_phone"`
	BusinessPhone              string `yaml:"business_phone"`
	MailingEmail               string `yaml:"mailing_email"`
	PostalAddress              string `yaml:"postal_address"`
}

// Profile holds the constants stamped on every Record and the source
// columns they are mapped from.
type Profile struct {
	Client               string   `yaml:"client"`
	PartitionPrefix      string   `yaml:"partition_prefix"`
	Code                 string   `yaml:"code"`
	Status               string   `yaml:"status"`
	Products             []string `yaml:"products"`
	ExternalIDCode       string   `yaml:"external_id_code"`
	PreferredContactType string   `yaml:"preferred_contact_type"`
	Country              string   `yaml:"country"`
	AddressType          string   `yaml:"address_type"`
	CommunicationStatus  string   `yaml:"communication_status"`
	Columns              Columns  `yaml:"columns"`
}

// DefaultProfile returns the CFP producer mapping.
func DefaultProfile() Profile {
	return Profile{
		Client:               "CFP",
		PartitionPrefix:      "CFP_",
		Code:                 "",
		Status:               "Active",
		Products:             []string{"CFCFDP1CO"},
		ExternalIDCode:       "ENTITY ID",
		PreferredContactType: "E",
		Country:              "US",
		AddressType:          "M",
		CommunicationStatus:  "Active",
		Columns: Columns{
			EntityType:                 "ENTITYTYPE",
			LicenseNumber:              "LICENSENUMBER",
			ExpirationDate:             "EXPIRATIONDATE",
			Name:                       "PRODUCERNAME",
			NPN:                        "NPN",
			LicenseType:                "LICENSETYPE",
			EffectiveDate:              "EFFECTIVEDATE",
			Qualification:              "QUALIFICATION",
			QualificationEffectiveDate: "QUALIFICATIONEFFECTIVEDATE",
			MailingPhone:               "MAILINGPHONE",
			BusinessPhone:              "BUSINESSPHONE",
			MailingEmail:               "MAILINGEMAILADDRESS",
			PostalAddress:              "PREFERREDPOSTALADDRESS",
		},
	}
}

// LoadProfile reads a YAML profile from path. Keys the file leaves out keep
// their DefaultProfile value. An empty path returns the defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes YAML over DefaultProfile and validates the result.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks the columns the transform cannot run without.
func (p Profile) Validate() error {
	var errs []string

	if strings.TrimSpace(p.Client) == "" {
		errs = append(errs, "client is required")
	}
	if strings.TrimSpace(p.Columns.EntityType) == "" {
		errs = append(errs, "columns.entity_type is required")
	}
	if strings.TrimSpace(p.Columns.LicenseNumber) == "" {
		errs = append(errs, "columns.license_number is required")
	}
	if strings.TrimSpace(p.Columns.ExpirationDate) == "" {
		errs = append(errs, "columns.expiration_date is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid profile:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
