package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-health-scheduler/internal/domain/lifecycle"
	"pet-health-scheduler/internal/router"
)

func e2eRules() lifecycle.RuleSet {
	interval := 21
	return lifecycle.RuleSet{
		Version: "e2e",
		Rules: []lifecycle.MasterRule{
			{
				ServiceName: "rabia",
				MinAgeMonths: 1, MaxAgeMonths: 12,
				Sex: lifecycle.SexAll, DoseNumber: 1, TotalDoses: 2,
				Priority: lifecycle.PriorityRequired, Active: true,
			},
			{
				ServiceName: "rabia",
				MinAgeMonths: 1, MaxAgeMonths: 12,
				Sex: lifecycle.SexAll, DoseNumber: 2, TotalDoses: 2,
				IntervalDays: &interval,
				Priority:     lifecycle.PriorityRequired, Active: true,
			},
		},
	}
}

func ymd(t time.Time) string { return t.Format("2006-01-02") }

func TestHTTP_EndToEnd_LifecycleSchedules(t *testing.T) {
	app := router.New(router.Options{AuthVerifier: nil, Rules: e2eRules()})
	ts := httptest.NewServer(app.Handler)
	defer ts.Close()

	ownerID := "owner-1"
	now := time.Now()

	// 1) Sin auth => 401
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without auth, got %d", st)
		}
	}

	// 2) Owner crea mascota de ~2 meses
	petID := createPet(t, ts.URL, ownerID, map[string]any{
		"name":       "Luna",
		"species":    "dog",
		"sex":        "female",
		"birth_date": ymd(now.AddDate(0, 0, -70)),
	})

	// 3) Otro usuario no la ve
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID, "intruder-1", nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for foreign pet, got %d", st)
		}
	}

	// 4) birth_date inválida => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets", ownerID, map[string]any{
			"name":       "Fantasma",
			"species":    "cat",
			"birth_date": "ayer",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for bad birth_date, got %d", st)
		}
	}

	// 5) Registrar dosis 1 aplicada ayer
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/completions", ownerID, map[string]any{
			"rule_key":       "rabia",
			"dose_number":    1,
			"completed_date": ymd(now.AddDate(0, 0, -1)),
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 record completion, got %d body=%s", st, string(body))
		}
	}

	// 6) Recompute: la dosis 1 ya no aparece, la 2 encadena a ayer+21
	var schedules []struct {
		RuleKey         string `json:"rule_key"`
		DoseNumber      int    `json:"dose_number"`
		RecommendedDate string `json:"recommended_date"`
		Priority        string `json:"priority"`
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/schedules/recompute", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 recompute, got %d body=%s", st, string(body))
		}
		if err := json.Unmarshal(body, &schedules); err != nil {
			t.Fatalf("unmarshal schedules: %v body=%s", err, string(body))
		}
	}
	if len(schedules) != 1 {
		t.Fatalf("expected 1 schedule, got %d: %+v", len(schedules), schedules)
	}
	if schedules[0].RuleKey != "rabia" || schedules[0].DoseNumber != 2 {
		t.Fatalf("unexpected schedule: %+v", schedules[0])
	}
	if want := ymd(now.AddDate(0, 0, 20)); schedules[0].RecommendedDate != want {
		t.Fatalf("recommended_date = %s, want %s", schedules[0].RecommendedDate, want)
	}

	// 7) GET devuelve lo persistido, recompute repetido no duplica
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/schedules/recompute", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 second recompute, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "GET", "/pets/"+petID+"/schedules", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list schedules, got %d", st)
		}
		var listed []json.RawMessage
		if err := json.Unmarshal(body, &listed); err != nil {
			t.Fatalf("unmarshal listed schedules: %v body=%s", err, string(body))
		}
		if len(listed) != 1 {
			t.Fatalf("expected 1 persisted schedule, got %d body=%s", len(listed), string(body))
		}
	}
}

func TestHTTP_EndToEnd_PeriodicServices(t *testing.T) {
	app := router.New(router.Options{AuthVerifier: nil, Rules: e2eRules()})
	ts := httptest.NewServer(app.Handler)
	defer ts.Close()

	ownerID := "owner-1"
	now := time.Now()

	petID := createPet(t, ts.URL, ownerID, map[string]any{
		"name":       "Rocky",
		"species":    "dog",
		"sex":        "male",
		"birth_date": ymd(now.AddDate(-2, 0, 0)),
	})

	// 1) Servicio custom de 90 días registrado tarde: la próxima fecha se
	// corrige desde hoy en vez de quedar en el pasado.
	svcID := ""
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/services", ownerID, map[string]any{
			"service_type":      "baño",
			"cycle_type":        "custom",
			"cycle_days":        90,
			"last_service_date": ymd(now.AddDate(0, 0, -100)),
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create service, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID              string `json:"id"`
			NextServiceDate string `json:"next_service_date"`
			Active          bool   `json:"active"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID == "" {
			t.Fatalf("create service: missing id body=%s", string(body))
		}
		if want := ymd(now.AddDate(0, 0, 90)); resp.NextServiceDate != want {
			t.Fatalf("next_service_date = %s, want %s", resp.NextServiceDate, want)
		}
		if !resp.Active {
			t.Fatal("new service should be active")
		}
		svcID = resp.ID
	}

	// 2) cycle_type=custom sin cycle_days => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/services", ownerID, map[string]any{
			"service_type": "baño",
			"cycle_type":   "custom",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for custom without cycle_days, got %d", st)
		}
	}

	// 3) Proyección anual: visitas a +90/+180/+270/+360
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/services/"+svcID+"/projection?days=365", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 projection, got %d body=%s", st, string(body))
		}
		var resp struct {
			Visits []struct {
				Date      string `json:"date"`
				DaysUntil int    `json:"days_until"`
			} `json:"visits"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("unmarshal projection: %v body=%s", err, string(body))
		}
		if len(resp.Visits) != 4 {
			t.Fatalf("expected 4 projected visits, got %d body=%s", len(resp.Visits), string(body))
		}
		if resp.Visits[0].DaysUntil != 90 {
			t.Fatalf("first visit days_until = %d, want 90", resp.Visits[0].DaysUntil)
		}
	}

	// 4) Servicio mensual con recordatorio de 40 días: siempre en ventana
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/services", ownerID, map[string]any{
			"service_type":         "control veterinario",
			"cycle_type":           "monthly",
			"reminder_days_before": 40,
			"reminder_enabled":     true,
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create monthly service, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/me/reminders", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 reminders, got %d body=%s", st, string(body))
		}
		var reminders []struct {
			Service struct {
				ServiceType string `json:"service_type"`
			} `json:"service"`
			IsUpcoming bool `json:"is_upcoming"`
			IsOverdue  bool `json:"is_overdue"`
		}
		if err := json.Unmarshal(body, &reminders); err != nil {
			t.Fatalf("unmarshal reminders: %v body=%s", err, string(body))
		}
		// El servicio custom se creó sin recordatorio: solo aparece el mensual.
		if len(reminders) != 1 {
			t.Fatalf("expected 1 reminder, got %d body=%s", len(reminders), string(body))
		}
		r := reminders[0]
		if r.Service.ServiceType != "control veterinario" {
			t.Fatalf("unexpected reminder service: %+v", r)
		}
		if !r.IsUpcoming || r.IsOverdue {
			t.Fatalf("unexpected reminder flags: %+v", r)
		}
	}

	// 5) Completar con body vacío usa hoy y recalcula la próxima fecha
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/services/"+svcID+"/complete", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 complete, got %d body=%s", st, string(body))
		}
		var resp struct {
			LastServiceDate *string `json:"last_service_date"`
			NextServiceDate string  `json:"next_service_date"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.LastServiceDate == nil || *resp.LastServiceDate != ymd(now) {
			t.Fatalf("last_service_date = %v, want %s", resp.LastServiceDate, ymd(now))
		}
		if want := ymd(now.AddDate(0, 0, 90)); resp.NextServiceDate != want {
			t.Fatalf("next_service_date = %s, want %s", resp.NextServiceDate, want)
		}
	}

	// 6) Deactivate es soft e idempotente; completar después falla
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/services/"+svcID+"/deactivate", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 deactivate, got %d", st)
		}
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/services/"+svcID+"/deactivate", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 second deactivate, got %d", st)
		}
		var resp struct {
			Active bool `json:"active"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Active {
			t.Fatal("service still active after deactivate")
		}

		st, _ = doReq(t, ts.URL, "POST", "/pets/"+petID+"/services/"+svcID+"/complete", ownerID, nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 completing inactive service, got %d", st)
		}
	}
}

func createPet(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
