package assistant

import (
	"fmt"
	"strings"
)

// SystemPrompt frames the assistant role for every chat request. Library
// grounding context, when present, is appended to it.
const SystemPrompt = `你是一位经验丰富的中医医师，精通中医经典方剂。你的职责是：

1. **方剂解析**：解释方剂的组成原理、君臣佐使配伍关系
2. **病症分析**：根据患者症状，分析病因病机
3. **方剂推荐**：基于用户的历史方剂库，推荐合适的治疗方案
4. **用药指导**：提供专业的用药建议和注意事项

回答时请：
- 使用专业但易懂的语言
- 结合传统中医理论
- 注明仅供参考，建议咨询专业医师
- 如有不确定的地方，请明确说明`

// recommendPrompt renders the one-shot recommendation request from patient
// info and the capped library context.
func recommendPrompt(symptoms, constitution, ageGender, libraryContext string) string {
	var b strings.Builder
	b.WriteString("你是一位经验丰富的中医师。基于以下患者信息和我的方剂库，请推荐合适的方剂。\n\n")
	b.WriteString("【患者信息】\n")
	fmt.Fprintf(&b, "症状：%s\n", symptoms)
	fmt.Fprintf(&b, "体质：%s\n", constitution)
	fmt.Fprintf(&b, "性别年龄：%s\n\n", ageGender)

	if libraryContext != "" {
		b.WriteString("【我的方剂库】（仅作为参考，可创新组合）\n")
		b.WriteString(libraryContext)
		b.WriteString("\n")
	}

	b.WriteString("请给出：\n")
	b.WriteString("1. 推荐的方剂组成（药材+剂量）\n")
	b.WriteString("2. 方剂功效\n")
	b.WriteString("3. 方解（为何选择这些药材）\n")
	b.WriteString("4. 注意事项\n")
	b.WriteString("5. 推荐方剂与我历史方剂的关联性分析（如有）")
	return b.String()
}
