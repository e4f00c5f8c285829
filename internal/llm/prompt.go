package llm

import (
	"fmt"
	"strings"
)

// PromptInput carries everything the shared prompt template needs. Aspect
// toggles let callers drop evaluation axes they do not want scored; the
// response schema always contains all four aspects, the validator fills
// defaults for disabled ones.
type PromptInput struct {
	CandidateName string
	Prefecture    string
	ElectionType  string
	ElectionDate  string
	DetailLevel   string

	IncludeTechnical bool
	IncludePolitical bool
	IncludeFinancial bool
	IncludeTimeline  bool

	Content string
	Online  bool
}

const systemPromptTemplate = `あなたは政策評価の専門家です。候補者のマニフェストを読み、個々の政策を以下の4つの評価軸で採点してください。

評価軸と総合実現可能性への重み:
- technical(技術的実現可能性): 40% - 制度・技術・行政実務の観点から実施可能か
- political(政治的実現可能性): 35% - 議会構成・合意形成・世論の観点から成立しうるか
- financial(財政的実現可能性): 25% - 財源確保・予算規模の観点から持続可能か
- timeline(実施時期の妥当性): 独立した第4の軸として、任期内に実施可能なスケジュールか

各スコアは0〜100の整数で、50を「判断材料不足」の基準点とします。憶測で高得点を与えず、根拠が読み取れない場合は50前後に留めてください。

回答は必ず次のJSONオブジェクトのみで返してください。前置き・後書き・コードフェンスは不要です:
{
  "policies": [
    {
      "title": "政策タイトル",
      "category": "経済政策|社会保障|教育・子育て|環境・エネルギー|外交・安全保障|地方創生|行政改革|その他",
      "description": "100文字以内の要約",
      "feasibilityScore": 0-100の整数,
      "impact": "high|medium|low",
      "detailedEvaluation": {
        "technical":  {"score": 0-100, "summary": "100文字以内", "report": "1000文字以内", "references": [], "searchKeywords": []},
        "political":  {"score": 0-100, "summary": "100文字以内", "report": "1000文字以内", "references": [], "searchKeywords": []},
        "financial":  {"score": 0-100, "summary": "100文字以内", "report": "1000文字以内", "references": [], "searchKeywords": []},
        "timeline":   {"score": 0-100, "summary": "100文字以内", "report": "1000文字以内", "references": [], "searchKeywords": []}
      }
    }
  ]
}`

// BuildPrompt renders the shared system/user instruction pair.
func BuildPrompt(in PromptInput) Prompt {
	var aspects []string
	if in.IncludeTechnical {
		aspects = append(aspects, "technical")
	}
	if in.IncludePolitical {
		aspects = append(aspects, "political")
	}
	if in.IncludeFinancial {
		aspects = append(aspects, "financial")
	}
	if in.IncludeTimeline {
		aspects = append(aspects, "timeline")
	}
	if len(aspects) == 0 {
		aspects = []string{"technical", "political", "financial", "timeline"}
	}

	detail := in.DetailLevel
	if detail == "" {
		detail = "standard"
	}

	var user strings.Builder
	fmt.Fprintf(&user, "候補者名: %s\n", in.CandidateName)
	fmt.Fprintf(&user, "都道府県: %s\n", in.Prefecture)
	fmt.Fprintf(&user, "選挙種別: %s\n", in.ElectionType)
	if in.ElectionDate != "" {
		fmt.Fprintf(&user, "投開票日: %s\n", in.ElectionDate)
	}
	fmt.Fprintf(&user, "重点評価軸: %s\n", strings.Join(aspects, ", "))
	fmt.Fprintf(&user, "詳細度: %s\n", detail)
	user.WriteString("\n以下は候補者の政策ページから抽出したテキストです。ここに書かれた政策のみを評価対象としてください。\n\n---\n")
	user.WriteString(in.Content)
	user.WriteString("\n---\n")

	return Prompt{
		System: systemPromptTemplate,
		User:   user.String(),
		Online: in.Online,
	}
}
