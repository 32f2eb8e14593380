package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeComplete(t *testing.T) {
	payload := `{
		"prescription_name": "四君子汤",
		"patient_name": "张三",
		"herbs": [
			{"name": "人参", "dosage": "10g", "preparation": "生"},
			{"name": "白术", "dosage": "9g", "preparation": "炒"}
		],
		"usage": {"decoction": "水煎", "frequency": "每日两次", "dosage_per_time": "200ml"},
		"indications": "脾胃气虚",
		"special_notes": "饭后温服",
		"confidence": 0.92
	}`

	res, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "四君子汤", res.PrescriptionName)
	assert.Equal(t, "张三", res.PatientName)
	require.Len(t, res.Herbs, 2)
	assert.Equal(t, "人参", res.Herbs[0].Name)
	assert.Equal(t, "炒", res.Herbs[1].Preparation)
	assert.Equal(t, "水煎", res.Usage.DecoctionMethod)
	assert.Equal(t, "200ml", res.Usage.DosagePerTime)
	assert.Equal(t, "脾胃气虚", res.Indications)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
}

func TestDecodeNullHerbs(t *testing.T) {
	res, err := Decode(`{"prescription_name":"四君子汤","herbs":null}`)
	require.NoError(t, err)
	assert.NotNil(t, res.Herbs)
	assert.Empty(t, res.Herbs)
}

func TestDecodeMissingFields(t *testing.T) {
	res, err := Decode(`{}`)
	require.NoError(t, err)
	assert.Empty(t, res.PrescriptionName)
	assert.Empty(t, res.PatientName)
	assert.NotNil(t, res.Herbs)
	assert.Empty(t, res.Herbs)
	assert.Empty(t, res.Usage.DecoctionMethod)
	assert.Zero(t, res.Confidence)
}

func TestDecodeNullUsage(t *testing.T) {
	res, err := Decode(`{"usage":null}`)
	require.NoError(t, err)
	assert.Empty(t, res.Usage.Frequency)
}

func TestDecodeMalformed(t *testing.T) {
	res, err := Decode("not json")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrParse)
}

func TestDecodeConfidenceClamped(t *testing.T) {
	res, err := Decode(`{"confidence": 1.7}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Confidence)

	res, err = Decode(`{"confidence": -0.3}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Confidence)
}
