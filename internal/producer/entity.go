package producer

import "fmt"

// EntityType selects which rows a pass accepts. Its value is matched
// against the discriminator column verbatim.
type EntityType string

const (
	Individual EntityType = "Individual"
	Firm       EntityType = "Firm"
)

// EntityTypes lists the passes run for every upload, in output order.
var EntityTypes = []EntityType{Individual, Firm}

// Label returns the downstream name of the entity, e.g. "Agent".
func (e EntityType) Label() string {
	switch e {
	case Individual:
		return "Agent"
	case Firm:
		return "Agency"
	default:
		return string(e)
	}
}

// Plural returns the label used in archive names, e.g. "Agents".
func (e EntityType) Plural() string {
	switch e {
	case Individual:
		return "Agents"
	case Firm:
		return "Agencies"
	default:
		return string(e) + "s"
	}
}

// ParseEntityType accepts either the tag or its label.
func ParseEntityType(s string) (EntityType, error) {
	for _, e := range EntityTypes {
		if s == string(e) || s == e.Label() {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}
