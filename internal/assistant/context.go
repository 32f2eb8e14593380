package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fangji-app/fangji/internal/domain"
)

// Context caps for the different grounding uses. Recommendation requests
// carry the fewest entries, full-library sampling the most.
const (
	RecommendCap = 10
	ChatCap      = 15
	LibraryCap   = 20
)

// LibraryContext renders the stored prescriptions into the grounding block
// prepended to model requests. Entries keep their input order; at most limit
// entries are rendered, with a remainder line when the list is longer. An
// empty library yields an empty string so callers can omit the block
// entirely.
func LibraryContext(entries []*domain.PrescriptionDetails, limit int) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "以下是我的方剂库参考（共%d个方剂）：\n", len(entries))

	n := len(entries)
	if limit > 0 && n > limit {
		n = limit
	}

	for i := 0; i < n; i++ {
		writeEntry(&b, i+1, entries[i])
	}

	if rest := len(entries) - n; rest > 0 {
		fmt.Fprintf(&b, "……另有%d个方剂\n", rest)
	}

	return b.String()
}

func writeEntry(b *strings.Builder, index int, d *domain.PrescriptionDetails) {
	fmt.Fprintf(b, "%d. %s", index, d.Name)
	if strings.TrimSpace(d.PatientName) != "" {
		fmt.Fprintf(b, "（患者：%s）", d.PatientName)
	}
	if d.IsAIGenerated {
		b.WriteString("【AI生成】")
	}
	b.WriteString("\n")

	if len(d.Herbs) > 0 {
		herbs := make([]domain.Herb, len(d.Herbs))
		copy(herbs, d.Herbs)
		sort.SliceStable(herbs, func(i, j int) bool { return herbs[i].Sequence < herbs[j].Sequence })

		parts := make([]string, 0, len(herbs))
		for _, h := range herbs {
			parts = append(parts, formatHerb(h))
		}
		fmt.Fprintf(b, "   组成：%s\n", strings.Join(parts, "、"))
	}

	if u := d.Usage; u != nil {
		if line := usageLine(u); line != "" {
			fmt.Fprintf(b, "   用法：%s\n", line)
		}
	}

	if strings.TrimSpace(d.Description) != "" {
		fmt.Fprintf(b, "   主治：%s\n", d.Description)
	}

	if len(d.Symptoms) > 0 {
		labels := make([]string, 0, len(d.Symptoms))
		for _, sym := range d.Symptoms {
			labels = append(labels, sym.Label)
		}
		fmt.Fprintf(b, "   症状：%s\n", strings.Join(labels, "、"))
	}
}

func formatHerb(h domain.Herb) string {
	s := h.Name
	if h.Dosage != "" {
		s += " " + h.Dosage
	}
	if h.Preparation != "" {
		s += "(" + h.Preparation + ")"
	}
	return s
}

// usageLine joins the three displayed sub-fields; precautions are shown in
// the detail view, not in grounding context.
func usageLine(u *domain.UsageInstruction) string {
	var parts []string
	for _, v := range []string{u.DecoctionMethod, u.Frequency, u.DosagePerTime} {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "；")
}
