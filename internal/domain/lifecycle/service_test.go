package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pet-health-scheduler/internal/domain/pets"
)

// -------------------------
// Test repos (in-memory)
// -------------------------

type testCompletionsRepo struct {
	items []Completion
}

func (r *testCompletionsRepo) Create(ctx context.Context, c Completion) error {
	if c.ID == "" {
		return errors.New("repo: id required")
	}
	r.items = append(r.items, c)
	return nil
}

func (r *testCompletionsRepo) ListByPet(ctx context.Context, petID string) ([]Completion, error) {
	out := make([]Completion, 0)
	for _, c := range r.items {
		if c.PetID == petID {
			out = append(out, c)
		}
	}
	return out, nil
}

type testSchedulesRepo struct {
	byKey map[string]Schedule
}

func newTestSchedulesRepo() *testSchedulesRepo {
	return &testSchedulesRepo{byKey: map[string]Schedule{}}
}

func (r *testSchedulesRepo) Upsert(ctx context.Context, s Schedule) (Schedule, error) {
	key := fmt.Sprintf("%s|%s|%d", s.PetID, s.RuleKey, s.DoseNumber)
	if existing, ok := r.byKey[key]; ok {
		s.ID = existing.ID
	} else {
		s.ID = key
	}
	r.byKey[key] = s
	return s, nil
}

func (r *testSchedulesRepo) ListByPet(ctx context.Context, petID string) ([]Schedule, error) {
	out := make([]Schedule, 0)
	for _, s := range r.byKey {
		if s.PetID == petID {
			out = append(out, s)
		}
	}
	return out, nil
}

// -------------------------
// Tests
// -------------------------

func testRules() RuleSet {
	return RuleSet{
		Version: "test",
		Rules: []MasterRule{
			{
				ServiceName: "triple canina", Code: "DHPP",
				MinAgeMonths: 2, MaxAgeMonths: 4,
				Sex: SexAll, DoseNumber: 1, TotalDoses: 3,
				Priority: PriorityRequired, Active: true,
			},
			{
				ServiceName: "triple canina", Code: "DHPP",
				MinAgeMonths: 2, MaxAgeMonths: 6,
				Sex: SexAll, DoseNumber: 2, TotalDoses: 3, IntervalDays: intPtr(21),
				Priority: PriorityRequired, Active: true,
			},
			{
				ServiceName: "desparasitacion",
				MinAgeMonths: 1, MaxAgeMonths: 6,
				Sex: SexAll, DoseNumber: 1, TotalDoses: 1,
				Priority: PriorityRecommended, Active: true,
			},
		},
	}
}

func newTestService(t *testing.T, now time.Time) (*Service, *testSchedulesRepo) {
	t.Helper()

	schedules := newTestSchedulesRepo()
	svc := NewService(testRules(), &testCompletionsRepo{}, schedules)
	svc.now = func() time.Time { return now }
	return svc, schedules
}

func TestService_Recompute_ChainsSecondDose(t *testing.T) {
	now := date(2024, 3, 10)
	svc, _ := newTestService(t, now)

	p := pets.Pet{ID: "pet-1", BirthDate: date(2024, 1, 1), Sex: pets.SexMale}

	// Dosis 1 aplicada ayer: la dosis 2 se encadena a +21 días.
	if _, err := svc.RecordCompletion(context.Background(), p, CompletionInput{
		RuleKey:       "triple canina/DHPP",
		DoseNumber:    1,
		CompletedDate: timePtr(date(2024, 3, 9)),
	}); err != nil {
		t.Fatalf("RecordCompletion error: %v", err)
	}

	got, err := svc.Recompute(context.Background(), p)
	if err != nil {
		t.Fatalf("Recompute error: %v", err)
	}

	// Dosis 1: ya aplicada (excluida). Desparasitación: fecha recomendada
	// (nacimiento + 1 mes) quedó en el pasado => descartada. Queda dosis 2.
	if len(got) != 1 {
		t.Fatalf("expected 1 schedule, got %d: %+v", len(got), got)
	}
	if got[0].RuleKey != "triple canina/DHPP" || got[0].DoseNumber != 2 {
		t.Fatalf("unexpected schedule: %+v", got[0])
	}
	want := date(2024, 3, 30) // 2024-03-09 + 21
	if !got[0].RecommendedDate.Equal(want) {
		t.Fatalf("recommended = %s, want %s", got[0].RecommendedDate, want)
	}
}

func TestService_Recompute_IsIdempotent(t *testing.T) {
	now := date(2024, 3, 10)
	svc, schedules := newTestService(t, now)

	p := pets.Pet{ID: "pet-1", BirthDate: date(2024, 1, 1), Sex: pets.SexFemale}

	if _, err := svc.RecordCompletion(context.Background(), p, CompletionInput{
		RuleKey:       "triple canina/DHPP",
		DoseNumber:    1,
		CompletedDate: timePtr(date(2024, 3, 9)),
	}); err != nil {
		t.Fatalf("RecordCompletion error: %v", err)
	}

	first, err := svc.Recompute(context.Background(), p)
	if err != nil {
		t.Fatalf("Recompute #1 error: %v", err)
	}
	second, err := svc.Recompute(context.Background(), p)
	if err != nil {
		t.Fatalf("Recompute #2 error: %v", err)
	}

	if len(first) == 0 {
		t.Fatal("expected at least one schedule (dose 2 chained to the future)")
	}
	if len(first) != len(second) {
		t.Fatalf("runs differ: %d vs %d", len(first), len(second))
	}
	// El upsert por (pet, regla, dosis) no duplica filas.
	if len(schedules.byKey) != len(first) {
		t.Fatalf("expected %d stored rows, got %d", len(first), len(schedules.byKey))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("row %d changed identity across runs: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if !first[i].RecommendedDate.Equal(second[i].RecommendedDate) {
			t.Fatalf("row %d changed date across runs", i)
		}
	}
}

func TestService_Recompute_OrdersByPriorityThenDate(t *testing.T) {
	// Dos series encadenables con prioridades distintas: la recomendada
	// cae antes en el calendario pero la requerida va primero igual.
	rules := RuleSet{
		Version: "test",
		Rules: []MasterRule{
			{
				ServiceName: "rabia",
				MinAgeMonths: 2, MaxAgeMonths: 12,
				Sex: SexAll, DoseNumber: 2, TotalDoses: 2, IntervalDays: intPtr(30),
				Priority: PriorityRequired, Active: true,
			},
			{
				ServiceName: "leucemia felina", Code: "FeLV",
				MinAgeMonths: 2, MaxAgeMonths: 12,
				Sex: SexAll, DoseNumber: 2, TotalDoses: 2, IntervalDays: intPtr(10),
				Priority: PriorityRecommended, Active: true,
			},
		},
	}

	now := date(2024, 3, 10)
	svc := NewService(rules, &testCompletionsRepo{}, newTestSchedulesRepo())
	svc.now = func() time.Time { return now }

	p := pets.Pet{ID: "pet-1", BirthDate: date(2024, 1, 1), Sex: pets.SexFemale}

	for _, key := range []string{"rabia", "leucemia felina/FeLV"} {
		if _, err := svc.RecordCompletion(context.Background(), p, CompletionInput{
			RuleKey:       key,
			DoseNumber:    1,
			CompletedDate: timePtr(date(2024, 3, 9)),
		}); err != nil {
			t.Fatalf("RecordCompletion(%s) error: %v", key, err)
		}
	}

	got, err := svc.Recompute(context.Background(), p)
	if err != nil {
		t.Fatalf("Recompute error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 schedules, got %d: %+v", len(got), got)
	}
	// rabia (required) primero aunque leucemia (+10 días) vence antes.
	if got[0].RuleKey != "rabia" || got[1].RuleKey != "leucemia felina/FeLV" {
		t.Fatalf("unexpected order: %s then %s", got[0].RuleKey, got[1].RuleKey)
	}
}

func TestService_Recompute_RequiresBirthDate(t *testing.T) {
	svc, _ := newTestService(t, date(2024, 2, 15))

	_, err := svc.Recompute(context.Background(), pets.Pet{ID: "pet-1"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_RecordCompletion_Validation(t *testing.T) {
	now := date(2024, 3, 10)
	svc, _ := newTestService(t, now)
	p := pets.Pet{ID: "pet-1", BirthDate: date(2024, 1, 1)}

	cases := []CompletionInput{
		{RuleKey: "", DoseNumber: 1},
		{RuleKey: "rabia", DoseNumber: 0},
		{RuleKey: "rabia", DoseNumber: 1, CompletedDate: timePtr(date(2024, 3, 11))}, // futuro
	}

	for i, in := range cases {
		if _, err := svc.RecordCompletion(context.Background(), p, in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestService_RecordCompletion_AllowsPending(t *testing.T) {
	now := date(2024, 3, 10)
	svc, _ := newTestService(t, now)
	p := pets.Pet{ID: "pet-1", BirthDate: date(2024, 1, 1)}

	c, err := svc.RecordCompletion(context.Background(), p, CompletionInput{
		RuleKey:    "rabia",
		DoseNumber: 1, // sin fecha: agendada, no aplicada
	})
	if err != nil {
		t.Fatalf("RecordCompletion error: %v", err)
	}
	if c.CompletedDate != nil {
		t.Fatal("expected pending completion (nil date)")
	}
	if c.RecordedAt != now {
		t.Fatal("expected RecordedAt = now")
	}
}
