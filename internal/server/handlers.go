package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marketbrain/research-engine/internal/cache"
	"github.com/marketbrain/research-engine/internal/research"
	"github.com/marketbrain/research-engine/internal/sweeper"
	"github.com/marketbrain/research-engine/internal/universe"
)

// researchResponse is the envelope plus serve annotations. The
// embedded payload flattens into the JSON body.
type researchResponse struct {
	research.Payload
	ServedFrom string `json:"_served_from"`
	AgeS       *int   `json:"_age_s,omitempty"`
	Refreshing bool   `json:"_refreshing,omitempty"`
	Message    string `json:"_message,omitempty"`
}

// handleResearch serves the cached envelope for a symbol. It never
// makes an external API call and never returns a 5xx: a cache miss
// yields a pending body and a background sweep.
func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol query parameter is required"})
		return
	}

	// A read is a signal of interest: it feeds tier promotion
	s.tiers.RecordView(symbol)

	var payload research.Payload
	found, err := s.cache.Get(r.Context(), cache.ResearchKey(symbol), &payload)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Cache read failed")
		found = false
	}

	if !found || payload.Meta == nil {
		s.triggerBackgroundSweep(symbol)
		s.metrics.ReadsTotal.WithLabelValues("pending").Inc()
		writeJSON(w, http.StatusOK, pendingResponse(symbol))
		return
	}

	now := s.now()
	age := payload.AgeSeconds(now)
	payload.Meta.StaleFields = payload.StaleFields(now)

	resp := researchResponse{
		Payload:    payload,
		ServedFrom: "cache",
		AgeS:       &age,
	}

	// Approaching expiry: serve what we have and refresh behind the
	// response.
	if float64(age) > s.resultTTL.Seconds()*0.75 {
		if s.triggerBackgroundSweep(symbol) {
			resp.Refreshing = true
		}
	}

	s.metrics.ReadsTotal.WithLabelValues("cache").Inc()
	writeJSON(w, http.StatusOK, resp)
}

// triggerBackgroundSweep starts a one-shot sweep unless one is already
// in flight for the symbol. Reports whether a sweep was started or is
// already running.
func (s *Server) triggerBackgroundSweep(symbol string) bool {
	if _, loaded := s.inflight.LoadOrStore(symbol, struct{}{}); loaded {
		return true
	}

	go func() {
		defer s.inflight.Delete(symbol)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		assets := s.universe.Assets(ctx)
		meta, ok := assets[symbol]
		if !ok {
			meta = universe.FallbackMeta(symbol)
		}
		if _, err := s.sweeper.Sweep(ctx, symbol, meta, sweeper.Options{}); err != nil {
			s.log.Error().Err(err).Str("symbol", symbol).Msg("Background sweep failed")
		}
	}()
	return true
}

// pendingResponse is the well-formed body served before any sweep has
// populated the cache.
func pendingResponse(symbol string) researchResponse {
	return researchResponse{
		Payload: research.Payload{
			Symbol:       symbol,
			Data:         map[string]map[string]interface{}{},
			BullFactors:  []string{},
			BearFactors:  []string{},
			SignalInputs: map[string]float64{},
			Meta: &research.Meta{
				Symbol:      symbol,
				SweepCycle:  "pending",
				Freshness:   map[string]string{},
				Bots:        map[string]string{},
				StaleFields: []string{},
			},
		},
		ServedFrom: "pending",
		Message:    "Research sweep triggered. Data will be available within 30 seconds.",
	}
}

// handleAdminSweep triggers an out-of-band sweep for a tier
func (s *Server) handleAdminSweep(w http.ResponseWriter, r *http.Request) {
	tier := 1
	if raw := r.URL.Query().Get("tier"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 3 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tier must be 1, 2 or 3"})
			return
		}
		tier = parsed
	}

	assets, cycle := s.scheduler.TriggerSweepNow(tier, r.URL.Query().Get("cycle"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"triggered": true,
		"assets":    assets,
		"cycle":     cycle,
	})
}

// handleAdminScheduler reports job registrations and next fire times
func (s *Server) handleAdminScheduler(w http.ResponseWriter, r *http.Request) {
	running, jobs := s.scheduler.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":   running,
		"job_count": len(jobs),
		"jobs":      jobs,
	})
}

// handleAdminTiers reports tier sizes
func (s *Server) handleAdminTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tiers.Summary())
}

// handleHealth is the liveness probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
