package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/panelwise/panelwright/pkg/config"
	"github.com/panelwise/panelwright/pkg/demand"
	"github.com/panelwise/panelwright/pkg/diagram"
	"github.com/panelwise/panelwright/pkg/layout"
	"github.com/panelwise/panelwright/pkg/logging"
	"github.com/panelwise/panelwright/pkg/model"
	"github.com/panelwise/panelwright/pkg/output"
	"github.com/panelwise/panelwright/pkg/project"
	"github.com/panelwise/panelwright/pkg/store"
	"github.com/panelwise/panelwright/pkg/topology"
	"github.com/panelwise/panelwright/pkg/watcher"
	"github.com/panelwise/panelwright/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("panelwright", pflag.ExitOnError)
	flags.String("project", "panelwright.json", "Path to the project file")
	flags.Bool("web", false, "Start web server instead of printing to console")
	flags.Int("port", 8080, "Port for web server (only used with --web)")
	flags.Bool("watch", false, "Reload and recalculate when the project file changes")
	flags.String("out", "", "Write the one-line diagram to this file (.png/.svg/.pdf)")
	flags.String("bom", "", "Write the bill of materials CSV to this file")
	flags.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		output.PrintError(err)
		os.Exit(1)
	}
	if cfg.VerboseCnt > 0 || cfg.Verbosity == "debug" {
		logging.SetLevel(slog.LevelDebug)
	}

	f, err := project.Load(cfg.ProjectFile)
	if err != nil {
		output.PrintError(err)
		os.Exit(1)
	}
	st := store.New(f.Snapshot.Service)
	st.Replace(&f.Snapshot, f.Settings)

	if cfg.WebMode {
		runWeb(cfg, st)
		return
	}
	runReport(cfg, st)
}

// runReport is the synchronous CLI mode: calculate, print, export.
func runReport(cfg *config.Config, st *store.Store) {
	res, err := calculate(st.Settings())
	if err != nil {
		output.PrintError(err)
		os.Exit(1)
	}
	output.PrintLoadReport(st.Settings().Name, res)

	circuits, err := demand.GenerateCircuits(singleFamilyInput(st.Settings()))
	if err == nil && st.Settings().DwellingType == model.DwellingSingleFamily {
		output.PrintSchedule(circuits)
	}

	topo, err := topology.Build(st.Snapshot())
	if err != nil {
		output.PrintError(err)
		os.Exit(1)
	}
	for _, adv := range topo.Advisories {
		logging.Warn("topology advisory", "from", adv.FromID, "to", adv.ToID, "message", adv.Message)
	}

	if cfg.DiagramOut != "" {
		geos := layout.Layout(topo)
		if err := diagram.Export(geos, st.Settings().Name, cfg.DiagramOut); err != nil {
			output.PrintError(err)
			os.Exit(1)
		}
		logging.Info("diagram written", "path", cfg.DiagramOut)
	}

	if cfg.BOMOut != "" {
		bomFile, err := os.Create(cfg.BOMOut)
		if err != nil {
			output.PrintError(err)
			os.Exit(1)
		}
		defer bomFile.Close()
		lines := output.BuildBOM(st.Snapshot(), res, circuits)
		if err := output.WriteBOMCSV(bomFile, lines); err != nil {
			output.PrintError(err)
			os.Exit(1)
		}
		logging.Info("bill of materials written", "path", cfg.BOMOut)
	}
}

// runWeb starts the server, then recalculates in the background and on
// every project file change when watching.
func runWeb(cfg *config.Config, st *store.Store) {
	server := web.NewServer(st)

	go func() {
		if err := server.Start(cfg.Port); err != nil {
			logging.Fatal("failed to start server", "error", err)
		}
	}()

	recalculate(server, st)

	if cfg.Watch {
		ctx := context.Background()
		fw, err := watcher.NewProjectWatcher(cfg.ProjectFile)
		if err != nil {
			logging.Fatal("failed to create watcher", "error", err)
		}
		if err := fw.Start(ctx); err != nil {
			logging.Fatal("failed to start watcher", "error", err)
		}
		debouncer := watcher.NewDebouncer(fw.Events(), 200*time.Millisecond, 2*time.Second)
		debouncer.Start(ctx)

		for range debouncer.Output() {
			f, err := project.Load(cfg.ProjectFile)
			if err != nil {
				logging.Error("project reload failed", "error", err)
				server.PublishProjectStatus("invalid", err.Error(), 1, 3)
				continue
			}
			st.Replace(&f.Snapshot, f.Settings)
			logging.Info("project reloaded", "path", cfg.ProjectFile)
			recalculate(server, st)
		}
		return
	}

	// Block forever (server runs in goroutine)
	select {}
}

// recalculate runs the pipeline once and pushes results to subscribers.
func recalculate(server *web.Server, st *store.Store) {
	server.PublishProjectStatus("calculating", "Running load calculation", 1, 3)

	res, err := calculate(st.Settings())
	if err != nil {
		logging.Error("load calculation failed", "error", err)
		server.PublishProjectStatus("invalid", err.Error(), 1, 3)
		return
	}
	server.PublishRecalculated(res)
	server.PublishProjectStatus("validating", "Validating topology", 2, 3)

	topo, err := topology.Build(st.Snapshot())
	server.PublishTopologyChanged(topo, err)
	if err != nil {
		logging.Error("topology validation failed", "error", err)
		server.PublishProjectStatus("invalid", err.Error(), 2, 3)
		return
	}

	server.PublishProjectStatus("ready", "Project is valid", 3, 3)
	logging.Info("recalculated",
		"demandVA", res.TotalDemandVA,
		"serviceAmps", res.ServiceAmps,
		"panels", len(st.Snapshot().Panels))
}

func calculate(settings model.ProjectSettings) (*demand.ResidentialLoadResult, error) {
	if settings.DwellingType == model.DwellingMultiFamily {
		return demand.CalculateMultiFamily(demand.MultiFamilyInput{
			ServiceVoltage:   settings.ServiceVoltage,
			UnitTemplates:    settings.UnitTemplates,
			HousePanelLoadVA: settings.HousePanelLoadVA,
		})
	}
	return demand.CalculateSingleFamily(singleFamilyInput(settings))
}

func singleFamilyInput(settings model.ProjectSettings) demand.SingleFamilyInput {
	return demand.SingleFamilyInput{
		SquareFootage:          settings.SquareFootage,
		SmallApplianceCircuits: settings.SmallApplianceCircuits,
		LaundryCircuit:         settings.LaundryCircuit,
		ServiceVoltage:         settings.ServiceVoltage,
		Appliances:             settings.Appliances,
	}
}
