package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fangji-app/fangji/internal/domain"
)

func detailsFixture(name string) *domain.PrescriptionDetails {
	return &domain.PrescriptionDetails{
		Prescription: domain.Prescription{Name: name, PatientName: "张三", Description: "脾胃气虚"},
		Herbs: []domain.Herb{
			{Name: "白术", Dosage: "9g", Preparation: "炒", Sequence: 1},
			{Name: "人参", Dosage: "10g", Preparation: "生", Sequence: 0},
		},
		Usage:    &domain.UsageInstruction{DecoctionMethod: "水煎", Frequency: "每日两次"},
		Symptoms: []domain.Symptom{{Label: "食欲不振"}},
	}
}

func TestLibraryContextEmpty(t *testing.T) {
	assert.Equal(t, "", LibraryContext(nil, ChatCap))
	assert.Equal(t, "", LibraryContext([]*domain.PrescriptionDetails{}, ChatCap))
}

func TestLibraryContextRendersEntry(t *testing.T) {
	out := LibraryContext([]*domain.PrescriptionDetails{detailsFixture("四君子汤")}, ChatCap)

	assert.Contains(t, out, "共1个方剂")
	assert.Contains(t, out, "1. 四君子汤（患者：张三）")
	// Herbs in ascending sequence order, "name dosage(preparation)".
	assert.Contains(t, out, "组成：人参 10g(生)、白术 9g(炒)")
	assert.Contains(t, out, "用法：水煎；每日两次")
	assert.Contains(t, out, "主治：脾胃气虚")
	assert.Contains(t, out, "症状：食欲不振")
	assert.NotContains(t, out, "另有")
}

func TestLibraryContextCapAndRemainder(t *testing.T) {
	entries := []*domain.PrescriptionDetails{
		detailsFixture("一号方"),
		detailsFixture("二号方"),
		detailsFixture("三号方"),
	}
	out := LibraryContext(entries, 2)

	assert.Contains(t, out, "共3个方剂")
	assert.Contains(t, out, "1. 一号方")
	assert.Contains(t, out, "2. 二号方")
	assert.NotContains(t, out, "三号方")
	assert.Contains(t, out, "另有1个方剂")
	assert.Equal(t, 2, strings.Count(out, "组成："), "exactly two rendered entries")
}

func TestLibraryContextPreservesInputOrder(t *testing.T) {
	entries := []*domain.PrescriptionDetails{
		detailsFixture("乙方"),
		detailsFixture("甲方"),
	}
	out := LibraryContext(entries, ChatCap)
	require.Less(t, strings.Index(out, "乙方"), strings.Index(out, "甲方"))
}

func TestLibraryContextOmitsBlankParts(t *testing.T) {
	d := &domain.PrescriptionDetails{
		Prescription: domain.Prescription{Name: "裸方", IsAIGenerated: true},
		Herbs:        []domain.Herb{{Name: "甘草", Sequence: 0}},
		Usage:        &domain.UsageInstruction{Precautions: "忌生冷"},
	}
	out := LibraryContext([]*domain.PrescriptionDetails{d}, ChatCap)

	assert.NotContains(t, out, "患者")
	assert.NotContains(t, out, "用法", "usage line omitted when the three displayed sub-fields are blank")
	assert.NotContains(t, out, "主治")
	assert.NotContains(t, out, "症状")
	assert.Contains(t, out, "【AI生成】")
	assert.Contains(t, out, "组成：甘草")
}

func TestFormatHerbVariants(t *testing.T) {
	assert.Equal(t, "人参 10g(生)", formatHerb(domain.Herb{Name: "人参", Dosage: "10g", Preparation: "生"}))
	assert.Equal(t, "人参 10g", formatHerb(domain.Herb{Name: "人参", Dosage: "10g"}))
	assert.Equal(t, "人参", formatHerb(domain.Herb{Name: "人参"}))
	assert.Equal(t, "人参(炙)", formatHerb(domain.Herb{Name: "人参", Preparation: "炙"}))
}
