package services

import "time"

type sampleRecord struct {
	dayOffset int
	mood      string
	intensity int
	text      string
}

// sampleWeek is shown to users who have nothing recorded for the last week.
var sampleWeek = []sampleRecord{
	{0, "happy", 7, "오랜만에 친구를 만나서 기분이 좋았다"},
	{0, "calm", 5, "저녁에 산책하면서 마음이 편안해졌어"},
	{1, "anxious", 8, "내일 발표가 있어서 너무 긴장돼"},
	{1, "tired", 6, "준비하느라 밤을 새웠는데 피곤하다"},
	{2, "excited", 9, "발표가 잘 끝나서 너무 신나!"},
	{2, "annoyed", 4, "동료가 약속을 깜빡해서 좀 짜증났어"},
	{3, "gloomy", 3, "비가 와서 그런지 기분이 가라앉았다"},
	{3, "sad", 5, "옛날 사진을 보니까 슬퍼졌어"},
	{4, "numb", 5, "특별한 일 없이 하루가 지나갔다"},
	{4, "angry", 7, "뉴스 보다가 화가 많이 났어"},
	{5, "love", 8, "가족이랑 맛있는 저녁을 먹었다"},
	{5, "scared", 3, "건강검진 결과가 걱정돼"},
	{6, "confident", 8, "운동하고 나니까 자신감이 붙었다"},
	{6, "calm", 6, "일요일이라 느긋하게 보냈어"},
}

func sampleEntries(weekStart time.Time) []weekRecord {
	out := make([]weekRecord, 0, len(sampleWeek))
	for _, r := range sampleWeek {
		out = append(out, weekRecord{
			date:      weekStart.AddDate(0, 0, r.dayOffset),
			mood:      r.mood,
			intensity: r.intensity,
			text:      r.text,
		})
	}
	return out
}
