// Package conductor recommends service and grounding conductor sizes
// from static NEC tables. Pure ascending-breakpoint lookups; copper and
// aluminum carry distinct tables.
package conductor

// Material selects the conductor table.
type Material string

const (
	Copper   Material = "copper"
	Aluminum Material = "aluminum"
)

// Recommendation is the conductor set for a service.
type Recommendation struct {
	ServiceConductorSize string `json:"serviceConductorSize"`
	NeutralConductorSize string `json:"neutralConductorSize"`
	GECSize              string `json:"gecSize"`
}

type breakpoint struct {
	maxAmps float64
	size    string
}

// Service conductor sizes per NEC 310.12 (83% rule applied by the
// table itself, as is customary for dwelling services).
var copperService = []breakpoint{
	{100, "#4 Cu"},
	{125, "#2 Cu"},
	{150, "#1 Cu"},
	{200, "#2/0 Cu"},
	{225, "#3/0 Cu"},
	{300, "250 kcmil Cu"},
	{400, "400 kcmil Cu"},
}

var aluminumService = []breakpoint{
	{100, "#2 Al"},
	{125, "#1/0 Al"},
	{150, "#2/0 Al"},
	{200, "#4/0 Al"},
	{225, "300 kcmil Al"},
	{300, "350 kcmil Al"},
	{400, "600 kcmil Al"},
}

// Neutral conductors are sized one table step smaller; the reduced
// neutral is permitted because 240V-only loads carry no neutral current.
var copperNeutral = []breakpoint{
	{100, "#6 Cu"},
	{125, "#4 Cu"},
	{150, "#2 Cu"},
	{200, "#1 Cu"},
	{225, "#1/0 Cu"},
	{300, "#2/0 Cu"},
	{400, "#3/0 Cu"},
}

var aluminumNeutral = []breakpoint{
	{100, "#4 Al"},
	{125, "#2 Al"},
	{150, "#1/0 Al"},
	{200, "#2/0 Al"},
	{225, "#4/0 Al"},
	{300, "250 kcmil Al"},
	{400, "350 kcmil Al"},
}

// gecBySize maps the service conductor size to the grounding electrode
// conductor per NEC Table 250.66. Derived from the conductor, not from
// amperage.
var gecBySize = map[string]string{
	"#4 Cu":        "#8 Cu",
	"#2 Cu":        "#8 Cu",
	"#1 Cu":        "#6 Cu",
	"#2/0 Cu":      "#4 Cu",
	"#3/0 Cu":      "#4 Cu",
	"250 kcmil Cu": "#2 Cu",
	"400 kcmil Cu": "#1/0 Cu",
	"#2 Al":        "#6 Cu",
	"#1/0 Al":      "#6 Cu",
	"#2/0 Al":      "#4 Cu",
	"#4/0 Al":      "#2 Cu",
	"300 kcmil Al": "#2 Cu",
	"350 kcmil Al": "#2 Cu",
	"600 kcmil Al": "#1/0 Cu",
}

// Recommend returns conductor sizes for a service of the given amperage.
// Amperage beyond the table takes the largest entry.
func Recommend(amps float64, material Material) Recommendation {
	service := lookup(serviceTable(material), amps)
	neutral := lookup(neutralTable(material), amps)
	gec, ok := gecBySize[service]
	if !ok {
		gec = "#1/0 Cu"
	}
	return Recommendation{
		ServiceConductorSize: service,
		NeutralConductorSize: neutral,
		GECSize:              gec,
	}
}

// GECForService maps a service conductor size directly to its GEC.
func GECForService(serviceConductorSize string) (string, bool) {
	gec, ok := gecBySize[serviceConductorSize]
	return gec, ok
}

func serviceTable(m Material) []breakpoint {
	if m == Aluminum {
		return aluminumService
	}
	return copperService
}

func neutralTable(m Material) []breakpoint {
	if m == Aluminum {
		return aluminumNeutral
	}
	return copperNeutral
}

func lookup(table []breakpoint, amps float64) string {
	for _, bp := range table {
		if amps <= bp.maxAmps {
			return bp.size
		}
	}
	return table[len(table)-1].size
}
