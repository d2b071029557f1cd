package capacity

import (
	"math"
	"strings"
	"testing"

	"github.com/panelwise/panelwright/pkg/model"
)

func testPanel() model.Panel {
	return model.Panel{
		ID:            "p1",
		Name:          "MDP",
		BusRatingAmps: 200,
		Voltage:       240,
		PhaseCount:    1,
	}
}

func circuit(loadVA float64, poles int) model.Circuit {
	return model.Circuit{PanelID: "p1", LoadVA: loadVA, PoleCount: poles}
}

func TestForPanelEmpty(t *testing.T) {
	u := ForPanel(testPanel(), nil)
	if u.CapacityVA != 48000 {
		t.Errorf("capacity = %.0f, want 48000", u.CapacityVA)
	}
	if u.UtilizationPercent != 0 || u.Status != StatusOK || !u.CanAddLoad {
		t.Errorf("empty panel should be OK with zero utilization, got %+v", u)
	}
	if u.AvailableAmps != 200 {
		t.Errorf("available = %.1f, want 200", u.AvailableAmps)
	}
}

func TestForPanelLoaded(t *testing.T) {
	circuits := []model.Circuit{
		circuit(12000, 2),
		circuit(9600, 2),
		circuit(1500, 1),
	}
	u := ForPanel(testPanel(), circuits)
	// 23100 VA / 48000 VA = 48.1%.
	if u.UtilizationPercent != 48.1 {
		t.Errorf("utilization = %.1f, want 48.1", u.UtilizationPercent)
	}
	if u.SpacesUsed != 5 || u.CircuitCount != 3 {
		t.Errorf("spaces=%d circuits=%d, want 5 and 3", u.SpacesUsed, u.CircuitCount)
	}
	if u.Status != StatusOK || !u.CanAddLoad {
		t.Errorf("48%% panel should be OK, got %s", u.Status)
	}
}

func TestForPanelStatusBands(t *testing.T) {
	cases := []struct {
		loadVA float64
		status PanelStatus
		canAdd bool
	}{
		{38000, StatusOK, true},          // 79.2%
		{38400, StatusWarning, false},    // exactly 80%
		{45000, StatusWarning, false},    // 93.8%
		{48000, StatusOverloaded, false}, // exactly 100%
		{50000, StatusOverloaded, false},
	}
	for _, c := range cases {
		u := ForPanel(testPanel(), []model.Circuit{circuit(c.loadVA, 2)})
		if u.Status != c.status {
			t.Errorf("load %.0f: status = %s, want %s", c.loadVA, u.Status, c.status)
		}
		if u.CanAddLoad != c.canAdd {
			t.Errorf("load %.0f: canAdd = %v, want %v", c.loadVA, u.CanAddLoad, c.canAdd)
		}
	}
}

func TestForPanelThreePhase(t *testing.T) {
	p := model.Panel{ID: "p2", Name: "DP-1", BusRatingAmps: 200, Voltage: 208, PhaseCount: 3}
	u := ForPanel(p, nil)
	want := 200 * 208 * math.Sqrt(3)
	if math.Abs(u.CapacityVA-want) > 0.01 {
		t.Errorf("three-phase capacity = %.0f, want %.0f", u.CapacityVA, want)
	}
}

func TestCheckServiceApprove(t *testing.T) {
	svc := model.ServiceEntrance{Voltage: 240, PhaseCount: 1}
	check := CheckService(svc, 200, 20000, 20)
	if !check.CanProceed || check.RequiresServiceUpgrade || check.Warning {
		t.Errorf("light load should proceed cleanly, got %+v", check)
	}
	// 20000/240 = 83.3A + 20A = 103.3A of 200A.
	if check.NewTotalAmps != 103.3 {
		t.Errorf("new total = %.1f, want 103.3", check.NewTotalAmps)
	}
	if !strings.HasPrefix(check.Verdict, "APPROVE") {
		t.Errorf("verdict = %q, want APPROVE", check.Verdict)
	}
}

func TestCheckServiceWarning(t *testing.T) {
	svc := model.ServiceEntrance{Voltage: 240, PhaseCount: 1}
	// 150A existing + 30A proposed = 180A of 200A = 90%.
	check := CheckService(svc, 200, 36000, 30)
	if check.CanProceed {
		t.Error("90% utilization must not proceed without a warning")
	}
	if !check.Warning || check.RequiresServiceUpgrade {
		t.Errorf("expected warning band, got %+v", check)
	}
	if !strings.HasPrefix(check.Verdict, "WARNING") {
		t.Errorf("verdict = %q, want WARNING", check.Verdict)
	}
}

func TestCheckServiceOverload(t *testing.T) {
	svc := model.ServiceEntrance{Voltage: 240, PhaseCount: 1}
	// 180A existing + 40A proposed = 220A of 200A.
	check := CheckService(svc, 200, 43200, 40)
	if !check.RequiresServiceUpgrade {
		t.Fatal("overloaded service must require an upgrade")
	}
	// 220A needs 220/0.8 = 275A -> next standard size is 320A.
	if check.RecommendedUpgrade != 320 {
		t.Errorf("recommended upgrade = %d, want 320", check.RecommendedUpgrade)
	}
	if !strings.HasPrefix(check.Verdict, "REJECT") {
		t.Errorf("verdict = %q, want REJECT", check.Verdict)
	}
}

func TestUpgradeSizeLadder(t *testing.T) {
	cases := []struct {
		amps float64
		want int
	}{
		{70, 100},   // 87.5A needed
		{100, 125},  // 125A needed
		{160, 200},  // exactly 200A needed
		{250, 320},  // 312.5A needed
		{2000, 1200}, // beyond the ladder: largest size
	}
	for _, c := range cases {
		if got := UpgradeSize(c.amps); got != c.want {
			t.Errorf("UpgradeSize(%.0f) = %d, want %d", c.amps, got, c.want)
		}
	}
}
