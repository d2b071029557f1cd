// Package web serves the project over HTTP: REST endpoints for the load
// calculation, topology, layout, and panel schedule, plus SSE streams
// that push recalculation events to connected clients.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/panelwise/panelwright/pkg/capacity"
	"github.com/panelwise/panelwright/pkg/demand"
	"github.com/panelwise/panelwright/pkg/layout"
	"github.com/panelwise/panelwright/pkg/logging"
	"github.com/panelwise/panelwright/pkg/model"
	"github.com/panelwise/panelwright/pkg/pubsub"
	"github.com/panelwise/panelwright/pkg/store"
	"github.com/panelwise/panelwright/pkg/topology"
)

//go:embed static/*
var staticFiles embed.FS

// Server represents the web server
type Server struct {
	router    *mux.Router
	store     *store.Store
	publisher pubsub.Publisher
}

// NewServer creates a new web server over the given store.
func NewServer(st *store.Store) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// Late subscribers only need the current state of each topic
	ssePublisher.ConfigureTopic(pubsub.TopicProjectStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})
	ssePublisher.ConfigureTopic(pubsub.TopicLoadResult, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})
	ssePublisher.ConfigureTopic(pubsub.TopicTopology, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		store:     st,
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// PublishProjectStatus publishes a project status event
func (s *Server) PublishProjectStatus(state, message string, step, total int) error {
	status := pubsub.ProjectStatus{
		State:   state,
		Message: message,
		Step:    step,
		Total:   total,
	}
	return s.publisher.Publish(pubsub.TopicProjectStatus, state, status)
}

// PublishRecalculated pushes the fresh load result to subscribers.
func (s *Server) PublishRecalculated(res *demand.ResidentialLoadResult) error {
	return s.publisher.Publish(pubsub.TopicLoadResult, "recalculated", res)
}

// PublishTopologyChanged pushes a topology summary after a rebuild.
func (s *Server) PublishTopologyChanged(t *topology.Topology, buildErr error) error {
	snap := s.store.Snapshot()
	summary := pubsub.TopologySummary{
		PanelCount:       len(snap.Panels),
		TransformerCount: len(snap.Transformers),
		Valid:            buildErr == nil,
	}
	if t != nil {
		summary.AdvisoryCount = len(t.Advisories)
	}
	return s.publisher.Publish(pubsub.TopicTopology, "changed", summary)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoint, one per topic
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	// API routes - more specific routes must come first
	s.router.HandleFunc("/api/project", s.handleProject).Methods("GET")
	s.router.HandleFunc("/api/result", s.handleResult).Methods("GET")
	s.router.HandleFunc("/api/topology", s.handleTopology).Methods("GET")
	s.router.HandleFunc("/api/layout", s.handleLayout).Methods("GET")
	s.router.HandleFunc("/api/schedule", s.handleSchedule).Methods("GET")
	s.router.HandleFunc("/api/panels/{id}/utilization", s.handlePanelUtilization).Methods("GET")
	s.router.HandleFunc("/api/feeders/stale", s.handleStaleFeeders).Methods("GET")
	s.router.HandleFunc("/api/service/check", s.handleServiceCheck).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("static files missing from binary", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	switch topic {
	case pubsub.TopicProjectStatus, pubsub.TopicLoadResult, pubsub.TopicTopology, pubsub.TopicLayout:
	default:
		http.Error(w, fmt.Sprintf("unknown topic %q", topic), http.StatusNotFound)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.ErrorContext(r.Context(), "error writing SSE event", "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"settings": s.store.Settings(),
		"project":  s.store.Snapshot(),
	})
}

// calculate runs the load calculation the settings select.
func (s *Server) calculate() (*demand.ResidentialLoadResult, error) {
	settings := s.store.Settings()
	if settings.DwellingType == model.DwellingMultiFamily {
		return demand.CalculateMultiFamily(demand.MultiFamilyInput{
			ServiceVoltage:   settings.ServiceVoltage,
			UnitTemplates:    settings.UnitTemplates,
			HousePanelLoadVA: settings.HousePanelLoadVA,
		})
	}
	return demand.CalculateSingleFamily(demand.SingleFamilyInput{
		SquareFootage:          settings.SquareFootage,
		SmallApplianceCircuits: settings.SmallApplianceCircuits,
		LaundryCircuit:         settings.LaundryCircuit,
		ServiceVoltage:         settings.ServiceVoltage,
		Appliances:             settings.Appliances,
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.calculate()
	if err != nil {
		var valErr *model.ValidationError
		if errors.As(err, &valErr) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	t, err := topology.Build(s.store.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, t)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	t, err := topology.Build(s.store.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, layout.Layout(t))
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	settings := s.store.Settings()
	circuits, err := demand.GenerateCircuits(demand.SingleFamilyInput{
		SquareFootage:          settings.SquareFootage,
		SmallApplianceCircuits: settings.SmallApplianceCircuits,
		LaundryCircuit:         settings.LaundryCircuit,
		ServiceVoltage:         settings.ServiceVoltage,
		Appliances:             settings.Appliances,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, circuits)
}

func (s *Server) handlePanelUtilization(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	panel, ok := s.store.Panel(id)
	if !ok {
		http.Error(w, fmt.Sprintf("panel not found: %s", id), http.StatusNotFound)
		return
	}
	writeJSON(w, capacity.ForPanel(panel, s.store.PanelCircuits(id)))
}

func (s *Server) handleStaleFeeders(w http.ResponseWriter, r *http.Request) {
	stale := s.store.StaleFeeders()
	if stale == nil {
		stale = []store.StaleFeeder{}
	}
	writeJSON(w, stale)
}

func (s *Server) handleServiceCheck(w http.ResponseWriter, r *http.Request) {
	additional := 0.0
	if v := r.URL.Query().Get("additionalAmps"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "additionalAmps must be a number", http.StatusBadRequest)
			return
		}
		additional = parsed
	}

	res, err := s.calculate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	check := capacity.CheckService(s.store.Service(), res.RecommendedServiceSize, res.TotalDemandVA, additional)
	writeJSON(w, check)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting web server", "addr", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.Router())
}
