package domain

// Infrastructure holds the amenity flags of a property (one row per property).
type Infrastructure struct {
	Pool        bool `json:"pool"`
	Gym         bool `json:"gym"`
	Elevator    bool `json:"elevator"`
	Barbecue    bool `json:"barbecue"`
	Playground  bool `json:"playground"`
	PartyRoom   bool `json:"partyRoom"`
	GourmetArea bool `json:"gourmetArea"`
	Sauna       bool `json:"sauna"`
	Concierge   bool `json:"concierge"`
	Security    bool `json:"security"`
	Garden      bool `json:"garden"`
	SportsCourt bool `json:"sportsCourt"`
	Laundry     bool `json:"laundry"`
	PetArea     bool `json:"petArea"`
	Balcony     bool `json:"balcony"`
}

// Features lists the feature identifiers accepted from forms, in column order.
var Features = []string{
	"pool", "gym", "elevator", "barbecue", "playground",
	"partyRoom", "gourmetArea", "sauna", "concierge", "security",
	"garden", "sportsCourt", "laundry", "petArea", "balcony",
}

func (in *Infrastructure) flags() []*bool {
	return []*bool{
		&in.Pool, &in.Gym, &in.Elevator, &in.Barbecue, &in.Playground,
		&in.PartyRoom, &in.GourmetArea, &in.Sauna, &in.Concierge, &in.Security,
		&in.Garden, &in.SportsCourt, &in.Laundry, &in.PetArea, &in.Balcony,
	}
}

// InfrastructureFrom sets a flag for every known identifier in selected.
// Unknown identifiers are ignored.
func InfrastructureFrom(selected []string) Infrastructure {
	var in Infrastructure
	set := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		set[s] = struct{}{}
	}
	for i, f := range in.flags() {
		if _, ok := set[Features[i]]; ok {
			*f = true
		}
	}
	return in
}

// Values returns the flags in Features order.
func (in Infrastructure) Values() []bool {
	fs := in.flags()
	out := make([]bool, len(fs))
	for i, f := range fs {
		out[i] = *f
	}
	return out
}

// Pointers exposes the flags in Features order, for row scanning.
func (in *Infrastructure) Pointers() []any {
	fs := in.flags()
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}
