package web

import (
	"time"

	"github.com/fangji-app/fangji/internal/domain"
	"github.com/fangji-app/fangji/internal/service"
)

type prescriptionJSON struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	PatientName     string    `json:"patient_name"`
	Description     string    `json:"description"`
	Source          string    `json:"source"`
	IsAIGenerated   bool      `json:"is_ai_generated"`
	ConfidenceScore float64   `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type herbJSON struct {
	Name        string `json:"name"`
	Dosage      string `json:"dosage"`
	Preparation string `json:"preparation"`
	Sequence    int    `json:"sequence"`
}

type usageJSON struct {
	DecoctionMethod string `json:"decoction_method"`
	Frequency       string `json:"frequency"`
	DosagePerTime   string `json:"dosage_per_time"`
	Precautions     string `json:"precautions"`
}

type detailsJSON struct {
	prescriptionJSON
	Herbs    []herbJSON `json:"herbs"`
	Usage    *usageJSON `json:"usage,omitempty"`
	Symptoms []string   `json:"symptoms"`
}

func toPrescriptionJSON(p *domain.Prescription) prescriptionJSON {
	return prescriptionJSON{
		ID:              p.ID,
		Name:            p.Name,
		PatientName:     p.PatientName,
		Description:     p.Description,
		Source:          p.Source,
		IsAIGenerated:   p.IsAIGenerated,
		ConfidenceScore: p.ConfidenceScore,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toPrescriptionsJSON(list []*domain.Prescription) []prescriptionJSON {
	out := make([]prescriptionJSON, 0, len(list))
	for _, p := range list {
		out = append(out, toPrescriptionJSON(p))
	}
	return out
}

func toDetailsJSON(d *domain.PrescriptionDetails) detailsJSON {
	out := detailsJSON{
		prescriptionJSON: toPrescriptionJSON(&d.Prescription),
		Herbs:            make([]herbJSON, 0, len(d.Herbs)),
		Symptoms:         make([]string, 0, len(d.Symptoms)),
	}
	for _, h := range d.Herbs {
		out.Herbs = append(out.Herbs, herbJSON{
			Name:        h.Name,
			Dosage:      h.Dosage,
			Preparation: h.Preparation,
			Sequence:    h.Sequence,
		})
	}
	if d.Usage != nil {
		out.Usage = &usageJSON{
			DecoctionMethod: d.Usage.DecoctionMethod,
			Frequency:       d.Usage.Frequency,
			DosagePerTime:   d.Usage.DosagePerTime,
			Precautions:     d.Usage.Precautions,
		}
	}
	for _, sym := range d.Symptoms {
		out.Symptoms = append(out.Symptoms, sym.Label)
	}
	return out
}

func toDetailsListJSON(list []*domain.PrescriptionDetails) []detailsJSON {
	out := make([]detailsJSON, 0, len(list))
	for _, d := range list {
		out = append(out, toDetailsJSON(d))
	}
	return out
}

// prescriptionRequest is the create/update body. The id, timestamps, and herb
// sequences come from the server, not the client.
type prescriptionRequest struct {
	Name            string     `json:"name"`
	PatientName     string     `json:"patient_name"`
	Description     string     `json:"description"`
	Source          string     `json:"source"`
	IsAIGenerated   bool       `json:"is_ai_generated"`
	ConfidenceScore float64    `json:"confidence_score"`
	Herbs           []herbJSON `json:"herbs"`
	Usage           *usageJSON `json:"usage"`
	Symptoms        []string   `json:"symptoms"`
}

func (req *prescriptionRequest) toDomain() *domain.PrescriptionDetails {
	d := &domain.PrescriptionDetails{
		Prescription: domain.Prescription{
			Name:            req.Name,
			PatientName:     req.PatientName,
			Description:     req.Description,
			Source:          req.Source,
			IsAIGenerated:   req.IsAIGenerated,
			ConfidenceScore: req.ConfidenceScore,
		},
	}
	for i, h := range req.Herbs {
		d.Herbs = append(d.Herbs, domain.Herb{
			Name:        h.Name,
			Dosage:      h.Dosage,
			Preparation: h.Preparation,
			Sequence:    i,
		})
	}
	if req.Usage != nil {
		d.Usage = &domain.UsageInstruction{
			DecoctionMethod: req.Usage.DecoctionMethod,
			Frequency:       req.Usage.Frequency,
			DosagePerTime:   req.Usage.DosagePerTime,
			Precautions:     req.Usage.Precautions,
		}
	}
	for _, label := range req.Symptoms {
		d.Symptoms = append(d.Symptoms, domain.Symptom{Label: label})
	}
	return d
}

type herbCountJSON struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type statisticsJSON struct {
	PrescriptionCount int                `json:"prescription_count"`
	AIGeneratedCount  int                `json:"ai_generated_count"`
	WeeklyNewCount    int                `json:"weekly_new_count"`
	MonthlyNewCount   int                `json:"monthly_new_count"`
	TotalHerbCount    int                `json:"total_herb_count"`
	UniqueHerbCount   int                `json:"unique_herb_count"`
	TopHerbs          []herbCountJSON    `json:"top_herbs"`
	Recent            []prescriptionJSON `json:"recent"`
}

func toStatisticsJSON(stats *service.Statistics) statisticsJSON {
	out := statisticsJSON{
		PrescriptionCount: stats.PrescriptionCount,
		AIGeneratedCount:  stats.AIGeneratedCount,
		WeeklyNewCount:    stats.WeeklyNewCount,
		MonthlyNewCount:   stats.MonthlyNewCount,
		TotalHerbCount:    stats.TotalHerbCount,
		UniqueHerbCount:   stats.UniqueHerbCount,
		TopHerbs:          make([]herbCountJSON, 0, len(stats.TopHerbs)),
		Recent:            toPrescriptionsJSON(stats.Recent),
	}
	for _, h := range stats.TopHerbs {
		out.TopHerbs = append(out.TopHerbs, herbCountJSON{Name: h.Name, Count: h.Count})
	}
	return out
}

type chatMessageJSON struct {
	ID             int64     `json:"id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	PrescriptionID *int64    `json:"prescription_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toChatMessagesJSON(list []*domain.ChatMessage) []chatMessageJSON {
	out := make([]chatMessageJSON, 0, len(list))
	for _, m := range list {
		out = append(out, chatMessageJSON{
			ID:             m.ID,
			Role:           m.Role,
			Content:        m.Content,
			PrescriptionID: m.PrescriptionID,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out
}
