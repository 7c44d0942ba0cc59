package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/snendev/cricket-pong/internal/engine"
	"github.com/snendev/cricket-pong/pkg/api"
)

// DebugHandler предоставляет доступ к состоянию хоста
type DebugHandler struct {
	Service *engine.Service

	schemaOnce sync.Once
	schema     *jsonschema.Schema
}

func NewDebugHandler(s *engine.Service) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/instances", h.handleListInstances)
	mux.HandleFunc("/debug/schema", h.handleSchema)
}

// /debug/instances - матчи на последнем выполненном тике
func (h *DebugHandler) handleListInstances(w http.ResponseWriter, r *http.Request) {
	summaries := h.Service.Summaries()
	if len(summaries) == 0 {
		writeJSON(w, nil)
		return
	}
	writeJSON(w, summaries)
}

// /debug/schema - JSON Schema конверта протокола
func (h *DebugHandler) handleSchema(w http.ResponseWriter, r *http.Request) {
	h.schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{DoNotReference: true}
		h.schema = reflector.Reflect(&api.Envelope{})
	})
	writeJSON(w, h.schema)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	w.Header().Set("Content-Type", "application/json")

	// пустой список отдаем как [], а не null
	if data == nil {
		w.Write([]byte("[]"))
		return
	}

	json.NewEncoder(w).Encode(data)
}
