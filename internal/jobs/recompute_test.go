package jobs

import (
	"context"
	"testing"
	"time"

	"pet-health-scheduler/internal/adapters/storage/memory"
	"pet-health-scheduler/internal/domain/lifecycle"
	"pet-health-scheduler/internal/domain/pets"
	"pet-health-scheduler/internal/platform/logger"
)

func intPtr(v int) *int { return &v }

func testRules() lifecycle.RuleSet {
	return lifecycle.RuleSet{
		Version: "test",
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
				IntervalDays: intPtr(21),
				Priority:     lifecycle.PriorityRequired, Active: true,
			},
		},
	}
}

func TestRunOnce_IsolatesPerPetFailures(t *testing.T) {
	petsRepo := memory.NewPetRepo()
	petsSvc := pets.NewService(petsRepo)
	lifecycleSvc := lifecycle.NewService(testRules(), memory.NewCompletionsRepo(), memory.NewSchedulesRepo())

	ctx := context.Background()
	now := time.Now()

	// Mascota sana: dosis 1 aplicada ayer, la 2 encadena al futuro.
	good := pets.Pet{
		ID:          "pet-good",
		OwnerUserID: "user-1",
		Name:        "Luna",
		Species:     pets.SpeciesDog,
		Sex:         pets.SexFemale,
		BirthDate:   now.AddDate(0, 0, -70),
	}
	if err := petsRepo.Create(ctx, good); err != nil {
		t.Fatalf("seed good pet: %v", err)
	}

	yesterday := now.AddDate(0, 0, -1)
	if _, err := lifecycleSvc.RecordCompletion(ctx, good, lifecycle.CompletionInput{
		RuleKey:       "rabia",
		DoseNumber:    1,
		CompletedDate: &yesterday,
	}); err != nil {
		t.Fatalf("seed completion: %v", err)
	}

	// Mascota con data mala (sin fecha de nacimiento), insertada directo al
	// repo salteando la validación del servicio.
	bad := pets.Pet{
		ID:          "pet-bad",
		OwnerUserID: "user-1",
		Name:        "Fantasma",
		Species:     pets.SpeciesCat,
		Sex:         pets.SexUnknown,
	}
	if err := petsRepo.Create(ctx, bad); err != nil {
		t.Fatalf("seed bad pet: %v", err)
	}

	job := NewRecompute(Config{Workers: 2}, logger.New(logger.Options{Level: logger.Error}), petsSvc, lifecycleSvc)
	job.RunOnce(ctx)

	goodSchedules, err := lifecycleSvc.ListSchedules(ctx, good.ID)
	if err != nil {
		t.Fatalf("ListSchedules(good): %v", err)
	}
	if len(goodSchedules) != 1 {
		t.Fatalf("good pet: got %d schedules, want 1: %+v", len(goodSchedules), goodSchedules)
	}
	if goodSchedules[0].DoseNumber != 2 {
		t.Fatalf("good pet: DoseNumber = %d, want 2", goodSchedules[0].DoseNumber)
	}

	badSchedules, err := lifecycleSvc.ListSchedules(ctx, bad.ID)
	if err != nil {
		t.Fatalf("ListSchedules(bad): %v", err)
	}
	if len(badSchedules) != 0 {
		t.Fatalf("bad pet: got %d schedules, want 0", len(badSchedules))
	}
}

func TestRunOnce_RepeatedRunsDoNotDuplicate(t *testing.T) {
	petsRepo := memory.NewPetRepo()
	petsSvc := pets.NewService(petsRepo)
	lifecycleSvc := lifecycle.NewService(testRules(), memory.NewCompletionsRepo(), memory.NewSchedulesRepo())

	ctx := context.Background()
	now := time.Now()

	p := pets.Pet{
		ID:          "pet-1",
		OwnerUserID: "user-1",
		Name:        "Rocky",
		Species:     pets.SpeciesDog,
		Sex:         pets.SexMale,
		BirthDate:   now.AddDate(0, 0, -70),
	}
	if err := petsRepo.Create(ctx, p); err != nil {
		t.Fatalf("seed pet: %v", err)
	}

	yesterday := now.AddDate(0, 0, -1)
	if _, err := lifecycleSvc.RecordCompletion(ctx, p, lifecycle.CompletionInput{
		RuleKey:       "rabia",
		DoseNumber:    1,
		CompletedDate: &yesterday,
	}); err != nil {
		t.Fatalf("seed completion: %v", err)
	}

	job := NewRecompute(Config{}, logger.New(logger.Options{Level: logger.Error}), petsSvc, lifecycleSvc)
	job.RunOnce(ctx)

	first, err := lifecycleSvc.ListSchedules(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListSchedules: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("got %d schedules, want 1", len(first))
	}

	job.RunOnce(ctx)

	second, err := lifecycleSvc.ListSchedules(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListSchedules: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("schedules duplicated: %d then %d", len(first), len(second))
	}
	if second[0].ID != first[0].ID {
		t.Fatalf("upsert changed the row id: %s then %s", first[0].ID, second[0].ID)
	}
}

func TestRunOnce_StopsOnCancelledContext(t *testing.T) {
	petsRepo := memory.NewPetRepo()
	petsSvc := pets.NewService(petsRepo)
	lifecycleSvc := lifecycle.NewService(testRules(), memory.NewCompletionsRepo(), memory.NewSchedulesRepo())

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		p := pets.Pet{
			ID:          "pet-" + string(rune('a'+i)),
			OwnerUserID: "user-1",
			Name:        "x",
			Species:     pets.SpeciesDog,
			Sex:         pets.SexMale,
			BirthDate:   time.Now().AddDate(0, -2, 0),
		}
		if err := petsRepo.Create(ctx, p); err != nil {
			t.Fatalf("seed pet %d: %v", i, err)
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	job := NewRecompute(Config{Workers: 1}, logger.New(logger.Options{Level: logger.Error}), petsSvc, lifecycleSvc)
	// No debe colgarse ni paniquear con el contexto ya cancelado.
	job.RunOnce(cancelled)
}
