// Package draft holds the mutable staging copy of a recognized prescription
// while the user reviews and edits it, before anything touches the database.
package draft

import (
	"errors"
	"strings"

	"github.com/fangji-app/fangji/internal/ocr"
)

var (
	ErrBlankName   = errors.New("prescription name is blank")
	ErrNoHerbs     = errors.New("prescription has no herbs")
	ErrHerbIndex   = errors.New("herb index out of range")
	ErrSessionGone = errors.New("draft session not found")
)

type Herb struct {
	Name        string `json:"name"`
	Dosage      string `json:"dosage"`
	Preparation string `json:"preparation"`
	Sequence    int    `json:"sequence"`
}

type Usage struct {
	DecoctionMethod string `json:"decoction_method"`
	Frequency       string `json:"frequency"`
	DosagePerTime   string `json:"dosage_per_time"`
	Precautions     string `json:"precautions"`
}

// Draft is a value type: every edit returns a new Draft, leaving the input
// untouched. Herb sequences are always a dense 0..n-1 range.
type Draft struct {
	Name         string  `json:"name"`
	PatientName  string  `json:"patient_name"`
	Description  string  `json:"description"`
	Herbs        []Herb  `json:"herbs"`
	Usage        Usage   `json:"usage"`
	SpecialNotes string  `json:"special_notes"`
	Confidence   float64 `json:"confidence"`
}

// FromResult seeds a draft from a decoded recognition result. Herb sequence
// is the source order.
func FromResult(res *ocr.Result) Draft {
	herbs := make([]Herb, 0, len(res.Herbs))
	for i, h := range res.Herbs {
		herbs = append(herbs, Herb{
			Name:        h.Name,
			Dosage:      h.Dosage,
			Preparation: h.Preparation,
			Sequence:    i,
		})
	}
	return Draft{
		Name:        res.PrescriptionName,
		PatientName: res.PatientName,
		Description: res.Indications,
		Herbs:       herbs,
		Usage: Usage{
			DecoctionMethod: res.Usage.DecoctionMethod,
			Frequency:       res.Usage.Frequency,
			DosagePerTime:   res.Usage.DosagePerTime,
		},
		SpecialNotes: res.SpecialNotes,
		Confidence:   res.Confidence,
	}
}

func (d Draft) WithName(name string) Draft {
	d.Name = name
	return d
}

func (d Draft) WithPatientName(name string) Draft {
	d.PatientName = name
	return d
}

func (d Draft) WithDescription(desc string) Draft {
	d.Description = desc
	return d
}

func (d Draft) WithSpecialNotes(notes string) Draft {
	d.SpecialNotes = notes
	return d
}

func (d Draft) WithUsage(u Usage) Draft {
	d.Usage = u
	return d
}

// AddHerb appends a herb at the end of the list; its sequence is assigned,
// not taken from the argument.
func (d Draft) AddHerb(h Herb) Draft {
	herbs := make([]Herb, len(d.Herbs), len(d.Herbs)+1)
	copy(herbs, d.Herbs)
	h.Sequence = len(herbs)
	d.Herbs = append(herbs, h)
	return d
}

// UpdateHerb replaces the herb at index, keeping its position.
func (d Draft) UpdateHerb(index int, h Herb) (Draft, error) {
	if index < 0 || index >= len(d.Herbs) {
		return d, ErrHerbIndex
	}
	herbs := make([]Herb, len(d.Herbs))
	copy(herbs, d.Herbs)
	h.Sequence = index
	herbs[index] = h
	d.Herbs = herbs
	return d, nil
}

// RemoveHerb drops the herb at index and re-sequences the remainder so
// sequences stay dense.
func (d Draft) RemoveHerb(index int) (Draft, error) {
	if index < 0 || index >= len(d.Herbs) {
		return d, ErrHerbIndex
	}
	herbs := make([]Herb, 0, len(d.Herbs)-1)
	for i, h := range d.Herbs {
		if i == index {
			continue
		}
		h.Sequence = len(herbs)
		herbs = append(herbs, h)
	}
	d.Herbs = herbs
	return d, nil
}

// Validate is the commit precondition: a draft may only be persisted with a
// non-blank name and at least one herb.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrBlankName
	}
	if len(d.Herbs) == 0 {
		return ErrNoHerbs
	}
	return nil
}
