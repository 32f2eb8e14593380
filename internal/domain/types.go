package domain

import (
	"strings"
	"time"
)

type Prescription struct {
	ID              int64
	Name            string
	PatientName     string
	Description     string
	Source          string
	IsAIGenerated   bool
	ConfidenceScore float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Herb struct {
	ID             int64
	PrescriptionID int64
	Name           string
	Dosage         string
	Preparation    string
	Sequence       int
}

type UsageInstruction struct {
	ID              int64
	PrescriptionID  int64
	DecoctionMethod string
	Frequency       string
	DosagePerTime   string
	Precautions     string
}

// Empty reports whether every free-text field is blank. Empty instructions
// are never persisted; absence is represented by no row at all.
func (u UsageInstruction) Empty() bool {
	return strings.TrimSpace(u.DecoctionMethod) == "" &&
		strings.TrimSpace(u.Frequency) == "" &&
		strings.TrimSpace(u.DosagePerTime) == "" &&
		strings.TrimSpace(u.Precautions) == ""
}

type Symptom struct {
	ID             int64
	PrescriptionID int64
	Label          string
}

// ChatMessage is one turn of the assistant conversation. PrescriptionID is a
// weak back-reference: deleting the prescription nulls it rather than
// deleting the message.
type ChatMessage struct {
	ID             int64
	Role           string
	Content        string
	PrescriptionID *int64
	CreatedAt      time.Time
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PrescriptionDetails bundles a prescription with its owned children. Herbs
// are ordered by sequence; Usage is nil when no instruction row exists.
type PrescriptionDetails struct {
	Prescription
	Herbs    []Herb
	Usage    *UsageInstruction
	Symptoms []Symptom
}

type HerbCount struct {
	Name  string
	Count int
}
