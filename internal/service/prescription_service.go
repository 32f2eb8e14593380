package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fangji-app/fangji/internal/domain"
	"github.com/fangji-app/fangji/internal/draft"
)

// prescriptionRepository is the subset of store.PrescriptionStore that
// PrescriptionService requires.
type prescriptionRepository interface {
	Create(ctx context.Context, d *domain.PrescriptionDetails) (int64, error)
	Update(ctx context.Context, d *domain.PrescriptionDetails) error
	GetDetails(ctx context.Context, id int64) (*domain.PrescriptionDetails, error)
	List(ctx context.Context) ([]*domain.Prescription, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Prescription, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]*domain.PrescriptionDetails, error)
	Count(ctx context.Context) (int, error)
	CountAIGenerated(ctx context.Context) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	TotalHerbCount(ctx context.Context) (int, error)
	UniqueHerbCount(ctx context.Context) (int, error)
	TopHerbs(ctx context.Context, limit int) ([]domain.HerbCount, error)
	HerbNames(ctx context.Context) ([]string, error)
	SymptomLabels(ctx context.Context) ([]string, error)
}

type PrescriptionService struct {
	store  prescriptionRepository
	logger *slog.Logger
}

func NewPrescriptionService(store prescriptionRepository, logger *slog.Logger) *PrescriptionService {
	return &PrescriptionService{store: store, logger: logger}
}

// CommitDraft persists an edited draft as a new prescription. The draft
// preconditions (non-blank name, at least one herb) are re-checked here even
// though the interaction layer should not offer commit in an invalid state;
// nothing is written when they fail.
func (s *PrescriptionService) CommitDraft(ctx context.Context, d draft.Draft, symptoms []string) (*domain.PrescriptionDetails, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	details := draftToDetails(d, symptoms)
	id, err := s.store.Create(ctx, details)
	if err != nil {
		return nil, fmt.Errorf("failed to persist prescription: %w", err)
	}
	s.logger.Info("prescription committed", "id", id, "name", d.Name, "herbs", len(d.Herbs))

	return s.store.GetDetails(ctx, id)
}

func draftToDetails(d draft.Draft, symptoms []string) *domain.PrescriptionDetails {
	details := &domain.PrescriptionDetails{
		Prescription: domain.Prescription{
			Name:            d.Name,
			PatientName:     d.PatientName,
			Description:     d.Description,
			Source:          d.SpecialNotes,
			ConfidenceScore: d.Confidence,
		},
	}

	// Sequences are reassigned from list position so persisted order is
	// dense regardless of the draft's editing history.
	for i, h := range d.Herbs {
		details.Herbs = append(details.Herbs, domain.Herb{
			Name:        h.Name,
			Dosage:      h.Dosage,
			Preparation: h.Preparation,
			Sequence:    i,
		})
	}

	usage := domain.UsageInstruction{
		DecoctionMethod: d.Usage.DecoctionMethod,
		Frequency:       d.Usage.Frequency,
		DosagePerTime:   d.Usage.DosagePerTime,
		Precautions:     d.Usage.Precautions,
	}
	if !usage.Empty() {
		details.Usage = &usage
	}

	for _, label := range symptoms {
		details.Symptoms = append(details.Symptoms, domain.Symptom{Label: label})
	}

	return details
}

// Create persists a manually entered prescription. The same preconditions
// apply as for a committed draft.
func (s *PrescriptionService) Create(ctx context.Context, d *domain.PrescriptionDetails) (*domain.PrescriptionDetails, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, draft.ErrBlankName
	}
	if len(d.Herbs) == 0 {
		return nil, draft.ErrNoHerbs
	}
	for i := range d.Herbs {
		d.Herbs[i].Sequence = i
	}
	if d.Usage != nil && d.Usage.Empty() {
		d.Usage = nil
	}

	id, err := s.store.Create(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to persist prescription: %w", err)
	}
	s.logger.Info("prescription created", "id", id, "name", d.Name)
	return s.store.GetDetails(ctx, id)
}

func (s *PrescriptionService) Get(ctx context.Context, id int64) (*domain.PrescriptionDetails, error) {
	return s.store.GetDetails(ctx, id)
}

func (s *PrescriptionService) List(ctx context.Context) ([]*domain.Prescription, error) {
	return s.store.List(ctx)
}

func (s *PrescriptionService) Search(ctx context.Context, query string) ([]*domain.PrescriptionDetails, error) {
	return s.store.Search(ctx, query)
}

// Update replaces an existing prescription and all of its children.
func (s *PrescriptionService) Update(ctx context.Context, d *domain.PrescriptionDetails) error {
	if err := s.store.Update(ctx, d); err != nil {
		return err
	}
	s.logger.Info("prescription updated", "id", d.ID)
	return nil
}

func (s *PrescriptionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("prescription deleted", "id", id)
	return nil
}

// HerbNames lists every distinct herb name across the library.
func (s *PrescriptionService) HerbNames(ctx context.Context) ([]string, error) {
	return s.store.HerbNames(ctx)
}

// SymptomLabels lists every distinct symptom label across the library.
func (s *PrescriptionService) SymptomLabels(ctx context.Context) ([]string, error) {
	return s.store.SymptomLabels(ctx)
}

// Statistics is the aggregate snapshot for the library overview.
type Statistics struct {
	PrescriptionCount int
	AIGeneratedCount  int
	WeeklyNewCount    int
	MonthlyNewCount   int
	TotalHerbCount    int
	UniqueHerbCount   int
	TopHerbs          []domain.HerbCount
	Recent            []*domain.Prescription
}

const (
	topHerbLimit = 10
	recentLimit  = 5
)

func (s *PrescriptionService) Statistics(ctx context.Context) (*Statistics, error) {
	now := time.Now()
	stats := &Statistics{}
	var err error

	if stats.PrescriptionCount, err = s.store.Count(ctx); err != nil {
		return nil, err
	}
	if stats.AIGeneratedCount, err = s.store.CountAIGenerated(ctx); err != nil {
		return nil, err
	}
	if stats.WeeklyNewCount, err = s.store.CountSince(ctx, now.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if stats.MonthlyNewCount, err = s.store.CountSince(ctx, now.AddDate(0, -1, 0)); err != nil {
		return nil, err
	}
	if stats.TotalHerbCount, err = s.store.TotalHerbCount(ctx); err != nil {
		return nil, err
	}
	if stats.UniqueHerbCount, err = s.store.UniqueHerbCount(ctx); err != nil {
		return nil, err
	}
	if stats.TopHerbs, err = s.store.TopHerbs(ctx, topHerbLimit); err != nil {
		return nil, err
	}
	if stats.Recent, err = s.store.ListRecent(ctx, recentLimit); err != nil {
		return nil, err
	}
	return stats, nil
}
