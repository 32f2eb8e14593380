package ocr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrParse indicates the extracted payload was not valid JSON. The attempt is
// terminal: no partial result is ever produced.
var ErrParse = errors.New("failed to parse recognition result")

// Result is the decoded output of one recognition round trip. Every field is
// optional at the payload level; missing or null fields decode to zero values
// rather than failing.
type Result struct {
	PrescriptionName string       `json:"prescription_name"`
	PatientName      string       `json:"patient_name"`
	Herbs            []ResultHerb `json:"herbs"`
	Usage            ResultUsage  `json:"usage"`
	Indications      string       `json:"indications"`
	SpecialNotes     string       `json:"special_notes"`
	Confidence       float64      `json:"confidence"`
}

type ResultHerb struct {
	Name        string `json:"name"`
	Dosage      string `json:"dosage"`
	Preparation string `json:"preparation"`
}

type ResultUsage struct {
	DecoctionMethod string `json:"decoction"`
	Frequency       string `json:"frequency"`
	DosagePerTime   string `json:"dosage_per_time"`
}

// Decode parses payload into a Result. Malformed JSON yields ErrParse;
// field-level absence is tolerated. The herb list is never nil in the output
// and the confidence score is clamped to [0,1] since the remote model is not
// trusted to respect the bound.
func Decode(payload string) (*Result, error) {
	var res Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if res.Herbs == nil {
		res.Herbs = []ResultHerb{}
	}
	if res.Confidence < 0 {
		res.Confidence = 0
	}
	if res.Confidence > 1 {
		res.Confidence = 1
	}

	return &res, nil
}
