package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/panelwise/panelwright/pkg/demand"
	"github.com/panelwise/panelwright/pkg/model"
)

// BOMLine is one aggregated row of the bill of materials.
type BOMLine struct {
	Item        string
	Description string
	Quantity    int
}

// BuildBOM aggregates panels, breakers, and service equipment into
// order-ready line items.
func BuildBOM(snap *model.Snapshot, res *demand.ResidentialLoadResult, circuits []demand.GeneratedCircuit) []BOMLine {
	counts := make(map[string]BOMLine)
	add := func(item, description string) {
		line := counts[item]
		line.Item = item
		line.Description = description
		line.Quantity++
		counts[item] = line
	}

	for _, p := range snap.Panels {
		item := fmt.Sprintf("panel-%dA", p.BusRatingAmps)
		add(item, fmt.Sprintf("%dA %dV load center", p.BusRatingAmps, p.Voltage))
	}
	for _, tr := range snap.Transformers {
		item := fmt.Sprintf("transformer-%.0fkVA", tr.KVARating)
		add(item, fmt.Sprintf("%.0f kVA %dV/%dV transformer", tr.KVARating, tr.PrimaryVoltage, tr.SecondaryVoltage))
	}
	for _, c := range snap.Circuits {
		item := fmt.Sprintf("breaker-%dA-%dP", c.BreakerAmps, c.PoleCount)
		add(item, fmt.Sprintf("%dA %d-pole breaker", c.BreakerAmps, c.PoleCount))
	}
	for _, c := range circuits {
		item := fmt.Sprintf("breaker-%dA-%dP", c.BreakerAmps, c.Pole)
		add(item, fmt.Sprintf("%dA %d-pole breaker", c.BreakerAmps, c.Pole))
	}

	if res != nil {
		if res.ServiceConductorSize != "" {
			add("service-conductor", fmt.Sprintf("Service conductor %s", res.ServiceConductorSize))
		}
		if res.NeutralConductorSize != "" {
			add("neutral-conductor", fmt.Sprintf("Neutral conductor %s", res.NeutralConductorSize))
		}
		if res.GECSize != "" {
			add("gec", fmt.Sprintf("Grounding electrode conductor %s", res.GECSize))
		}
	}

	lines := make([]BOMLine, 0, len(counts))
	for _, line := range counts {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Item < lines[j].Item })
	return lines
}

// WriteBOMCSV writes the bill of materials as CSV with a header row.
func WriteBOMCSV(w io.Writer, lines []BOMLine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"item", "description", "quantity"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, line := range lines {
		if err := cw.Write([]string{line.Item, line.Description, strconv.Itoa(line.Quantity)}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
