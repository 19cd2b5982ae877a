package producer

// Record is the producer document ingested by the downstream system.
// JSON names are fixed by that system. Pointer fields copied from the
// sheet are omitted when the source cell is empty; pointer fields that are
// always null are kept so the key is present.
type Record struct {
	PartitionKey             string             `json:"ctspartitionkey"`
	Client                   string             `json:"Client"`
	Code                     string             `json:"Code"`
	Name                     *string            `json:"Name,omitempty"`
	Status                   string             `json:"Status"`
	Products                 []string           `json:"Products"`
	Reference                []string           `json:"Reference"`
	ExternalEntityIdentifier ExternalIdentifier `json:"ExternalEntityIdentifier"`
	NPN                      *string            `json:"NPN,omitempty"`
	LicenseDetails           LicenseDetails     `json:"LicenseDetails"`
	Details                  Details            `json:"Details"`
	Address                  Address            `json:"Address"`
	Communications           []Communication    `json:"Communications"`
}

type ExternalIdentifier struct {
	Code  string  `json:"code"`
	Value *string `json:"value,omitempty"`
}

type LicenseDetails struct {
	LicenseType                *string `json:"LicenseType,omitempty"`
	LicenseNumber              *string `json:"LicenseNumber,omitempty"`
	EffectiveDate              *string `json:"EffectiveDate,omitempty"`
	ExpirationDate             *string `json:"ExpirationDate,omitempty"`
	Qualification              *string `json:"Qualification,omitempty"`
	QualificationEffectiveDate *string `json:"QualificationEffectiveDate,omitempty"`
}

type Details struct {
	Contact Contact `json:"Contact"`
}

type Contact struct {
	HomePhone           *string `json:"HomePhone,omitempty"`
	BusinessPhone       *string `json:"BusinessPhone,omitempty"`
	Fax                 string  `json:"Fax"`
	MobilePhone         *string `json:"MobilePhone,omitempty"`
	SendSms             bool    `json:"SendSms"`
	EmailId             *string `json:"EmailId,omitempty"`
	SendQuoteEmail      bool    `json:"SendQuoteEmail"`
	QuoteEmailId        *string `json:"QuoteEmailId,omitempty"`
	SendPolicyEmail     bool    `json:"SendPolicyEmail"`
	PolicyEmailId       *string `json:"PolicyEmailId,omitempty"`
	FromEmailId         *string `json:"FromEmailId,omitempty"`
	EmailCCId           *string `json:"EmailCCId,omitempty"`
	PreferedContactType string  `json:"PreferedContactType"`
	SecondaryEmailId    *string `json:"SecondaryEmailId,omitempty"`
}

// Address is mostly empty; only the raw postal address is populated.
type Address struct {
	IsManual           *bool   `json:"IsManual"`
	StreetName         *string `json:"StreetName,omitempty"`
	AddressLine1       *string `json:"AddressLine1"`
	AddressLine2       *string `json:"AddressLine2"`
	City               string  `json:"City"`
	State              string  `json:"State"`
	County             string  `json:"County"`
	CountyCode         *string `json:"CountyCode"`
	Zip                string  `json:"Zip"`
	Country            string  `json:"Country"`
	CountryCode        string  `json:"CountryCode"`
	PlaceId            *string `json:"PlaceId"`
	Number             *string `json:"Number"`
	Name               *string `json:"Name"`
	Long               *string `json:"Long"`
	Lat                *string `json:"Lat"`
	Description        *string `json:"Description"`
	AddressType        string  `json:"AddressType"`
	FormattedAddress   *string `json:"FormattedAddress"`
	UnFormattedAddress *string `json:"UnFormattedAddress,omitempty"`
	Status             *string `json:"Status"`
	AptSuite           *string `json:"AptSuite"`
	PoBox              *string `json:"PoBox"`
	CityCode           *string `json:"CityCode"`
	Territory          *string `json:"Territory"`
	TerritoryCode      *string `json:"TerritoryCode"`
}

type Communication struct {
	Type    string  `json:"Type"`
	SubType string  `json:"SubType"`
	Value   *string `json:"Value,omitempty"`
	Status  string  `json:"Status"`
}

// FieldValue returns the text of a top-level scalar field by its JSON name
// or Go name. It reports false for absent, empty or non-scalar fields.
func (r Record) FieldValue(key string) (string, bool) {
	var v *string
	switch key {
	case "ctspartitionkey", "PartitionKey":
		v = &r.PartitionKey
	case "Client":
		v = &r.Client
	case "Code":
		v = &r.Code
	case "Name":
		v = r.Name
	case "Status":
		v = &r.Status
	case "NPN":
		v = r.NPN
	}
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}
