// Package prompt builds the system and user prompts sent to the LLM.
package prompt

import (
	"fmt"
	"strings"

	"moodping/api/models"
)

const MoodAnalysisSystem = `당신은 감정 기록 앱 MoodPing의 따뜻한 감정 코치입니다.
사용자가 남긴 감정과 강도, 메모를 읽고 공감하는 짧은 분석을 작성하세요.
진단이나 의학적 조언은 하지 마세요.
반드시 아래 JSON 형식 하나만 출력하세요. 코드 블록이나 다른 설명은 붙이지 마세요.
{"analysis_text": "3~5문장의 분석"}`

const WeeklyReportSystem = `당신은 감정 기록 앱 MoodPing의 주간 리포트 작성자입니다.
한 주 동안의 감정 기록을 보고 흐름과 패턴을 부드럽게 정리하세요.
기록에 없는 사실은 지어내지 마세요.
반드시 아래 JSON 형식 하나만 출력하세요. 코드 블록이나 다른 설명은 붙이지 마세요.
{"summary_text": "5~8문장의 주간 요약"}`

// WeekEntry is one record as it appears in the weekly prompt.
type WeekEntry struct {
	RecordDate string
	MoodEmoji  string
	Intensity  int
	MoodText   string
}

func MoodAnalysis(rec models.MoodRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "기록 날짜: %s\n", rec.RecordDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "감정: %s\n", describeMood(rec.MoodEmoji))
	fmt.Fprintf(&b, "강도: %d/10\n", rec.Intensity)
	if rec.MoodText != nil && strings.TrimSpace(*rec.MoodText) != "" {
		fmt.Fprintf(&b, "메모: %s\n", strings.TrimSpace(*rec.MoodText))
	} else {
		b.WriteString("메모: (없음)\n")
	}
	return b.String()
}

func WeeklyReport(entries []WeekEntry, avgIntensity float64, distribution []models.MoodDistributionItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "기록 수: %d\n", len(entries))
	fmt.Fprintf(&b, "평균 강도: %.1f/10\n", avgIntensity)

	b.WriteString("감정 분포:\n")
	for _, d := range distribution {
		fmt.Fprintf(&b, "- %s %s: %d회\n", d.Emoji, d.Label, d.Count)
	}

	b.WriteString("기록:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s | %s | 강도 %d", e.RecordDate, describeMood(e.MoodEmoji), e.Intensity)
		if e.MoodText != "" {
			fmt.Fprintf(&b, " | %s", e.MoodText)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// describeMood renders a mood key as "emoji label"; raw emoji input is kept as is.
func describeMood(key string) string {
	emoji := models.MoodEmoji(key)
	if emoji == "" {
		return key
	}
	return emoji + " " + models.MoodLabel(key)
}
