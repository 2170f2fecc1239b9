package intelligence

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"morningfocus/models"
)

const (
	MinSuggestedMinutes     = 30
	MaxSuggestedMinutes     = 240
	DefaultSuggestedMinutes = 60
	durationStep            = 30

	// RecentContextSize is how many earlier reflections the prompt carries.
	RecentContextSize = 3
)

type fallbackTexts struct {
	feedback string
	question string
}

var fallbacks = map[string]fallbackTexts{
	models.LanguageKorean: {
		feedback: "오늘 하루를 잘 정리했어요. 내일의 한 가지를 선명하게 잡아두면 더 편안하게 시작할 수 있어요.",
		question: "이 작업에 얼마나 걸릴까요?",
	},
	models.LanguageEnglish: {
		feedback: "You wrapped up today well. Pinning down one clear thing for tomorrow will make the morning easier to start.",
		question: "How long will this task take?",
	},
}

func fallbackFor(language string) fallbackTexts {
	if f, ok := fallbacks[language]; ok {
		return f
	}
	return fallbacks[models.LanguageKorean]
}

// BuildPrompt renders the coaching prompt in the requested language.
func BuildPrompt(in models.PlanInput) string {
	if in.Language == models.LanguageEnglish {
		return englishPrompt(in)
	}
	return koreanPrompt(in)
}

func koreanPrompt(in models.PlanInput) string {
	var recent []string
	for _, r := range in.RecentReflections {
		task := r.TopTask
		if task == "" {
			task = "(없음)"
		}
		recent = append(recent, fmt.Sprintf("- %s\n  회고: %s\n  가장 중요한 일: %s", r.Date, r.ReflectionText, task))
	}
	recentText := strings.Join(recent, "\n\n")
	if recentText == "" {
		recentText = "(아직 없음)"
	}

	var b strings.Builder
	b.WriteString("당신은 따뜻하지만 간결한 저녁 회고 코치입니다.\n\n")
	fmt.Fprintf(&b, "최근 맥락(최근 %d개):\n%s\n\n", RecentContextSize, recentText)
	fmt.Fprintf(&b, "오늘 회고(자유 형식):\n%s\n\n", in.ReflectionText)
	fmt.Fprintf(&b, "사용자가 내일 아침 가장 먼저 끝낼 일(초안):\n%s\n\n", in.TopTask)
	b.WriteString("아래 JSON만 출력하세요.\n\n")
	b.WriteString("스키마:\n{\n")
	b.WriteString("  \"aiFeedback\": string,                // 2-3문장\n")
	b.WriteString("  \"followUpQuestion\": string,          // 항상: \"이 작업에 얼마나 걸릴까요?\"\n")
	b.WriteString("  \"suggestedDurationMinutes\": number   // 30,60,90,120,180 중 하나 또는 30의 배수\n}\n\n")
	b.WriteString("가이드:\n")
	b.WriteString("- aiFeedback은 격려 + 구체적 1개 개선점\n")
	b.WriteString("- suggestedDurationMinutes는 작업명을 보고 현실적으로 추정(최소 30분, 최대 240분)\n")
	b.WriteString("- 한국어\n")
	return b.String()
}

func englishPrompt(in models.PlanInput) string {
	var recent []string
	for _, r := range in.RecentReflections {
		task := r.TopTask
		if task == "" {
			task = "(none)"
		}
		recent = append(recent, fmt.Sprintf("- %s\n  Reflection: %s\n  Top task: %s", r.Date, r.ReflectionText, task))
	}
	recentText := strings.Join(recent, "\n\n")
	if recentText == "" {
		recentText = "(none yet)"
	}

	var b strings.Builder
	b.WriteString("You are a warm but concise evening reflection coach.\n\n")
	fmt.Fprintf(&b, "Recent context (last %d):\n%s\n\n", RecentContextSize, recentText)
	fmt.Fprintf(&b, "Today's reflection (free form):\n%s\n\n", in.ReflectionText)
	fmt.Fprintf(&b, "The one thing the user will finish first tomorrow morning (draft):\n%s\n\n", in.TopTask)
	b.WriteString("Output only the JSON below.\n\n")
	b.WriteString("Schema:\n{\n")
	b.WriteString("  \"aiFeedback\": string,                // 2-3 sentences\n")
	b.WriteString("  \"followUpQuestion\": string,          // always: \"How long will this task take?\"\n")
	b.WriteString("  \"suggestedDurationMinutes\": number   // one of 30,60,90,120,180 or a multiple of 30\n}\n\n")
	b.WriteString("Guide:\n")
	b.WriteString("- aiFeedback is encouragement plus one concrete improvement\n")
	b.WriteString("- estimate suggestedDurationMinutes realistically from the task name (min 30, max 240)\n")
	b.WriteString("- English\n")
	return b.String()
}

// NormalizeDuration rounds v to the nearest 30 minutes and clamps it into 30..240.
// Non-finite or non-positive values give the default.
func NormalizeDuration(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return DefaultSuggestedMinutes
	}
	rounded := int(math.Round(v/durationStep)) * durationStep
	if rounded < MinSuggestedMinutes {
		return MinSuggestedMinutes
	}
	if rounded > MaxSuggestedMinutes {
		return MaxSuggestedMinutes
	}
	return rounded
}

// ParsePlan reads model output into a normalised plan. Anything missing or
// malformed falls back to the language's default texts and duration.
func ParsePlan(raw, language string) models.PlanOutput {
	fb := fallbackFor(language)
	out := models.PlanOutput{
		AIFeedback:               fb.feedback,
		FollowUpQuestion:         fb.question,
		SuggestedDurationMinutes: DefaultSuggestedMinutes,
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(stripFence(raw)), &parsed); err != nil {
		return out
	}

	if s, ok := parsed["aiFeedback"].(string); ok && strings.TrimSpace(s) != "" {
		out.AIFeedback = strings.TrimSpace(s)
	}
	if s, ok := parsed["followUpQuestion"].(string); ok && strings.TrimSpace(s) != "" {
		out.FollowUpQuestion = strings.TrimSpace(s)
	}

	switch v := parsed["suggestedDurationMinutes"].(type) {
	case float64:
		out.SuggestedDurationMinutes = NormalizeDuration(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			out.SuggestedDurationMinutes = NormalizeDuration(f)
		}
	}
	return out
}

// stripFence removes a surrounding ```json fence if the model added one.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
