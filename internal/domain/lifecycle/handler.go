package lifecycle

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-health-scheduler/internal/domain/pets"
	"pet-health-scheduler/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Route("/pets/{petID}", func(pr chi.Router) {
		pr.Post("/completions", recordCompletionHandler(svc, petsSvc))
		pr.Get("/completions", listCompletionsHandler(svc, petsSvc))

		pr.Post("/schedules/recompute", recomputeHandler(svc, petsSvc))
		pr.Get("/schedules", listSchedulesHandler(svc, petsSvc))
	})
}

// recordCompletionRequest registra una dosis del historial.
type recordCompletionRequest struct {
	RuleKey       string `json:"rule_key"`
	DoseNumber    int    `json:"dose_number"`
	CompletedDate string `json:"completed_date"` // YYYY-MM-DD, opcional
	Notes         string `json:"notes"`
}

type completionResponse struct {
	ID            string    `json:"id"`
	PetID         string    `json:"pet_id"`
	RuleKey       string    `json:"rule_key"`
	DoseNumber    int       `json:"dose_number"`
	CompletedDate *string   `json:"completed_date,omitempty"` // YYYY-MM-DD
	Notes         string    `json:"notes"`
	RecordedAt    time.Time `json:"recorded_at"`
}

type scheduleResponse struct {
	PetID           string   `json:"pet_id"`
	RuleKey         string   `json:"rule_key"`
	DoseNumber      int      `json:"dose_number"`
	TotalDoses      int      `json:"total_doses"`
	RecommendedDate string   `json:"recommended_date"` // YYYY-MM-DD
	Priority        Priority `json:"priority"`
	IntervalDays    *int     `json:"interval_days,omitempty"`
	Source          string   `json:"source"`
}

// recordCompletionHandler godoc
// @Summary Registrar dosis aplicada
// @Description Registra una dosis del historial de la mascota. completed_date (YYYY-MM-DD) es opcional: sin fecha queda como pendiente y no descuenta dosis del calendario.
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body recordCompletionRequest true "Dosis a registrar"
// @Success 201 {object} completionResponse
// @Failure 400 {string} string "invalid json / completed_date inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/completions [post]
func recordCompletionHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		var req recordCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var completed *time.Time
		if strings.TrimSpace(req.CompletedDate) != "" {
			t, err := time.Parse("2006-01-02", req.CompletedDate)
			if err != nil {
				http.Error(w, "completed_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			completed = &t
		}

		c, err := svc.RecordCompletion(r.Context(), p, CompletionInput{
			RuleKey:       req.RuleKey,
			DoseNumber:    req.DoseNumber,
			CompletedDate: completed,
			Notes:         req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toCompletionResponse(c))
	}
}

// listCompletionsHandler godoc
// @Summary Historial de dosis
// @Tags lifecycle
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} completionResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/completions [get]
func listCompletionsHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		items, err := svc.ListCompletions(r.Context(), p.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]completionResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toCompletionResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// recomputeHandler godoc
// @Summary Recalcular calendario de la mascota
// @Description Corre el motor (match → sequence → merge) contra las reglas maestras y el historial, y persiste el resultado con upsert por (pet, regla, dosis). Idempotente: correrlo dos veces deja el mismo estado.
// @Tags lifecycle
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} scheduleResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Failure 500 {string} string "internal error"
// @Router /pets/{petID}/schedules/recompute [post]
func recomputeHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		items, err := svc.Recompute(r.Context(), p)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponses(items))
	}
}

// listSchedulesHandler godoc
// @Summary Calendario vigente
// @Description Devuelve el calendario persistido, ordenado por prioridad (required > recommended > optional) y fecha.
// @Tags lifecycle
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} scheduleResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/schedules [get]
func listSchedulesHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		items, err := svc.ListSchedules(r.Context(), p.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponses(items))
	}
}

// ownedPet resuelve auth + mascota + ownership en un solo lugar.
// Escribe la respuesta de error y devuelve ok=false si algo falla.
func ownedPet(w http.ResponseWriter, r *http.Request, petsSvc *pets.Service) (pets.Pet, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return pets.Pet{}, false
	}

	p, err := petsSvc.GetByID(r.Context(), chi.URLParam(r, "petID"))
	if err != nil || p.OwnerUserID != claims.UserID {
		http.Error(w, "pet not found", http.StatusNotFound)
		return pets.Pet{}, false
	}
	return p, true
}

func toCompletionResponse(c Completion) completionResponse {
	resp := completionResponse{
		ID:         c.ID,
		PetID:      c.PetID,
		RuleKey:    c.RuleKey,
		DoseNumber: c.DoseNumber,
		Notes:      c.Notes,
		RecordedAt: c.RecordedAt,
	}
	if c.CompletedDate != nil {
		d := c.CompletedDate.Format("2006-01-02")
		resp.CompletedDate = &d
	}
	return resp
}

func toScheduleResponses(items []Schedule) []scheduleResponse {
	out := make([]scheduleResponse, 0, len(items))
	for _, s := range items {
		out = append(out, scheduleResponse{
			PetID:           s.PetID,
			RuleKey:         s.RuleKey,
			DoseNumber:      s.DoseNumber,
			TotalDoses:      s.TotalDoses,
			RecommendedDate: s.RecommendedDate.Format("2006-01-02"),
			Priority:        s.Priority,
			IntervalDays:    s.IntervalDays,
			Source:          s.Source,
		})
	}
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
