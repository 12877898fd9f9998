package periodic

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-health-scheduler/internal/domain/pets"
	"pet-health-scheduler/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Route("/pets/{petID}/services", func(sr chi.Router) {
		sr.Post("/", createServiceHandler(svc, petsSvc))
		sr.Get("/", listServicesHandler(svc, petsSvc))

		sr.Post("/{serviceID}/complete", completeServiceHandler(svc, petsSvc))
		sr.Post("/{serviceID}/deactivate", deactivateServiceHandler(svc, petsSvc))
		sr.Get("/{serviceID}/projection", projectionHandler(svc, petsSvc))
	})

	// Recordatorios de todos los servicios activos del usuario.
	r.Get("/me/reminders", remindersHandler(svc))
}

// createServiceRequest configura un servicio periódico.
type createServiceRequest struct {
	ServiceType        string `json:"service_type"` // etiqueta libre: vaccination, checkup, deworming...
	CycleType          string `json:"cycle_type" enums:"daily,weekly,monthly,quarterly,yearly,custom"`
	CycleDays          int    `json:"cycle_days"`        // obligatorio solo si cycle_type=custom
	LastServiceDate    string `json:"last_service_date"` // YYYY-MM-DD, opcional
	ReminderDaysBefore int    `json:"reminder_days_before"`
	ReminderEnabled    bool   `json:"reminder_enabled"`
}

type completeServiceRequest struct {
	CompletedOn string `json:"completed_on"` // YYYY-MM-DD; vacío = hoy
}

type serviceResponse struct {
	ID                 string    `json:"id"`
	PetID              string    `json:"pet_id"`
	ServiceType        string    `json:"service_type"`
	CycleType          CycleType `json:"cycle_type"`
	CycleDays          int       `json:"cycle_days,omitempty"`
	LastServiceDate    *string   `json:"last_service_date,omitempty"` // YYYY-MM-DD
	NextServiceDate    string    `json:"next_service_date"`           // YYYY-MM-DD
	ReminderDaysBefore int       `json:"reminder_days_before"`
	ReminderEnabled    bool      `json:"reminder_enabled"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type projectedVisitResponse struct {
	Date      string `json:"date"` // YYYY-MM-DD
	DaysUntil int    `json:"days_until"`
}

type projectionResponse struct {
	Service serviceResponse          `json:"service"`
	Visits  []projectedVisitResponse `json:"visits"`
}

type reminderResponse struct {
	Service    serviceResponse `json:"service"`
	IsUpcoming bool            `json:"is_upcoming"`
	IsOverdue  bool            `json:"is_overdue"`
}

// createServiceHandler godoc
// @Summary Crear servicio periódico
// @Description Registra un servicio recurrente para la mascota. cycle_days es obligatorio solo para cycle_type=custom. La próxima fecha se calcula desde last_service_date (o desde hoy si no viene) y nunca queda en el pasado.
// @Tags periodic
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createServiceRequest true "Configuración del servicio"
// @Success 201 {object} serviceResponse
// @Failure 400 {string} string "invalid json / cycle inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/services [post]
func createServiceHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		var req createServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var last *time.Time
		if strings.TrimSpace(req.LastServiceDate) != "" {
			t, err := time.Parse("2006-01-02", req.LastServiceDate)
			if err != nil {
				http.Error(w, "last_service_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			last = &t
		}

		created, err := svc.Create(r.Context(), p.ID, p.OwnerUserID, CreateInput{
			ServiceType:        req.ServiceType,
			CycleType:          CycleType(strings.TrimSpace(req.CycleType)),
			CycleDays:          req.CycleDays,
			LastServiceDate:    last,
			ReminderDaysBefore: req.ReminderDaysBefore,
			ReminderEnabled:    req.ReminderEnabled,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toServiceResponse(created))
	}
}

// listServicesHandler godoc
// @Summary Listar servicios periódicos de la mascota
// @Tags periodic
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} serviceResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/services [get]
func listServicesHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		items, err := svc.ListByPet(r.Context(), p.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]serviceResponse, 0, len(items))
		for _, s := range items {
			out = append(out, toServiceResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// completeServiceHandler godoc
// @Summary Marcar servicio como realizado
// @Description Fija last_service_date y recalcula next_service_date desde esa fecha. completed_on vacío usa hoy. El servicio sigue activo.
// @Tags periodic
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param serviceID path string true "ID del servicio"
// @Param payload body completeServiceRequest true "Fecha de realización"
// @Success 200 {object} serviceResponse
// @Failure 400 {string} string "fecha inválida / servicio inactivo"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/services/{serviceID}/complete [post]
func completeServiceHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		existing, err := svc.GetByID(r.Context(), chi.URLParam(r, "serviceID"))
		if err != nil || existing.PetID != p.ID {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}

		// Body vacío es válido: completa con fecha de hoy.
		var req completeServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		completedOn := time.Now()
		if strings.TrimSpace(req.CompletedOn) != "" {
			t, err := time.Parse("2006-01-02", req.CompletedOn)
			if err != nil {
				http.Error(w, "completed_on must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			completedOn = t
		}

		updated, err := svc.Complete(r.Context(), existing.ID, completedOn)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, toServiceResponse(updated))
	}
}

// deactivateServiceHandler godoc
// @Summary Desactivar servicio periódico
// @Description Soft delete: el registro queda inactivo, no se borra. Idempotente.
// @Tags periodic
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param serviceID path string true "ID del servicio"
// @Success 200 {object} serviceResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/services/{serviceID}/deactivate [post]
func deactivateServiceHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		existing, err := svc.GetByID(r.Context(), chi.URLParam(r, "serviceID"))
		if err != nil || existing.PetID != p.ID {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}

		updated, err := svc.Deactivate(r.Context(), existing.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toServiceResponse(updated))
	}
}

// projectionHandler godoc
// @Summary Proyección de visitas futuras
// @Description Genera el calendario hacia adelante del servicio dentro del horizonte pedido (query days, default 365).
// @Tags periodic
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param serviceID path string true "ID del servicio"
// @Param days query int false "Horizonte en días (default 365)"
// @Success 200 {object} projectionResponse
// @Failure 400 {string} string "servicio inactivo"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/services/{serviceID}/projection [get]
func projectionHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		existing, err := svc.GetByID(r.Context(), chi.URLParam(r, "serviceID"))
		if err != nil || existing.PetID != p.ID {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}

		horizon := 0
		if v := r.URL.Query().Get("days"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				horizon = n
			}
		}

		s, visits, err := svc.Projection(r.Context(), existing.ID, horizon)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		out := projectionResponse{Service: toServiceResponse(s)}
		for _, v := range visits {
			out.Visits = append(out.Visits, projectedVisitResponse{
				Date:      v.Date.Format("2006-01-02"),
				DaysUntil: v.DaysUntil,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// remindersHandler godoc
// @Summary Recordatorios del usuario
// @Description Flags is_upcoming / is_overdue por cada servicio activo con recordatorio habilitado. La capa de notificaciones decide canal y entrega.
// @Tags periodic
// @Produce json
// @Success 200 {array} reminderResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/reminders [get]
func remindersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.Reminders(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]reminderResponse, 0, len(items))
		for _, rem := range items {
			out = append(out, reminderResponse{
				Service:    toServiceResponse(rem.Service),
				IsUpcoming: rem.Status.IsUpcoming,
				IsOverdue:  rem.Status.IsOverdue,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

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

func toServiceResponse(s PeriodicService) serviceResponse {
	resp := serviceResponse{
		ID:                 s.ID,
		PetID:              s.PetID,
		ServiceType:        s.ServiceType,
		CycleType:          s.CycleType,
		CycleDays:          s.CycleDays,
		NextServiceDate:    s.NextServiceDate.Format("2006-01-02"),
		ReminderDaysBefore: s.ReminderDaysBefore,
		ReminderEnabled:    s.ReminderEnabled,
		Active:             s.Active,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	if s.LastServiceDate != nil {
		d := s.LastServiceDate.Format("2006-01-02")
		resp.LastServiceDate = &d
	}
	return resp
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
