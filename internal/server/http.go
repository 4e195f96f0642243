package server

import (
	"encoding/json"
	"net/http"

	"github.com/zeusync/zoowalk/internal/core/events/bus"
)

type health struct {
	Status  string       `json:"status"`
	Ticks   uint64       `json:"ticks"`
	Clients int          `json:"clients"`
	Nodes   int          `json:"nodes"`
	Events  *bus.Metrics `json:"events,omitempty"`
}

// Handler routes /ws, /healthz and, when an asset root is configured, the
// asset files.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	if root := s.assets.Root(); root != "" {
		mux.Handle(AssetPrefix, http.StripPrefix(AssetPrefix, http.FileServer(http.Dir(root))))
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	h := health{
		Status:  "ok",
		Ticks:   s.Ticks(),
		Clients: s.Clients(),
		Nodes:   s.scene.Len(),
	}
	if s.events != nil {
		m := s.events.Metrics()
		h.Events = &m
	}
	_ = json.NewEncoder(w).Encode(h)
}
