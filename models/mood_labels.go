package models

var moodEmojis = map[string]string{
	"happy": "😊", "excited": "😄", "thrilled": "😍",
	"love": "🥰", "confident": "😎", "calm": "😌",
	"numb": "😐", "tired": "😴", "gloomy": "😔",
	"sad": "😢", "tearful": "😭", "annoyed": "😤",
	"angry": "😡", "anxious": "😰", "scared": "😨",
}

var moodLabels = map[string]string{
	"happy": "기쁨", "excited": "신남", "thrilled": "설렘",
	"love": "사랑", "confident": "자신감", "calm": "평온",
	"numb": "무감각", "tired": "피곤", "gloomy": "우울",
	"sad": "슬픔", "tearful": "눈물", "annoyed": "짜증",
	"angry": "분노", "anxious": "불안", "scared": "두려움",
}

// MoodEmoji maps a mood key such as "happy" to its emoji. Unknown keys map to "".
func MoodEmoji(key string) string {
	return moodEmojis[key]
}

// MoodLabel returns the Korean label for a mood key, or the key itself.
func MoodLabel(key string) string {
	if label, ok := moodLabels[key]; ok {
		return label
	}
	return key
}
