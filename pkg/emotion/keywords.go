// Package emotion classifies user messages into coarse emotion labels and
// detects emotional shifts within a single conversation.
package emotion

import "strings"

// Emotion labels produced by the keyword classifier.
const (
	LabelHappy   = "happy"
	LabelSad     = "sad"
	LabelAnxious = "anxious"
	LabelAngry   = "angry"
	LabelLow     = "low"
	LabelSeeking = "seeking"
	LabelNeutral = "neutral"
)

// categoryKeywords maps each label to its trigger keywords. Both Chinese and
// English triggers are matched as substrings of the lowercased message.
// Order matters: earlier categories win on tie counts.
var categoryKeywords = []struct {
	label    string
	keywords []string
}{
	{LabelSeeking, []string{
		"怎么办", "帮帮我", "求助", "该怎么", "给点建议", "你说我该",
		"what should i do", "help me", "any advice", "i need help",
	}},
	{LabelAnxious, []string{
		"焦虑", "紧张", "担心", "害怕", "不安", "慌", "压力好大", "睡不着",
		"anxious", "nervous", "worried", "scared", "stressed", "can't sleep",
	}},
	{LabelAngry, []string{
		"生气", "气死", "愤怒", "讨厌", "烦死", "凭什么", "受不了",
		"angry", "furious", "pissed", "annoyed", "fed up", "hate this",
	}},
	{LabelSad, []string{
		"难过", "伤心", "想哭", "哭了", "心碎", "失落", "委屈",
		"sad", "heartbroken", "crying", "miss him", "miss her", "upset",
	}},
	{LabelLow, []string{
		"唉", "好累", "没劲", "没意思", "提不起", "疲惫", "无力", "丧",
		"tired", "exhausted", "drained", "no energy", "whatever", "meh",
	}},
	{LabelHappy, []string{
		"开心", "高兴", "太好了", "哈哈", "开森", "真棒", "幸福", "期待",
		"happy", "great news", "awesome", "excited", "wonderful", "yay",
	}},
}

// singleCharRules disambiguates single-character Chinese triggers that also
// appear inside unrelated multi-character words. The character only counts
// when none of its exclusion substrings are present in the message.
var singleCharRules = []struct {
	char     string
	label    string
	excludes []string
}{
	// 累 "tired" also appears in 积累/累计 "accumulate".
	{"累", LabelLow, []string{"积累", "累计", "累积", "日积月累"}},
	// 气 "angry" also appears in 天气/空气/运气.
	{"气", LabelAngry, []string{"天气", "空气", "运气", "气温", "气氛", "勇气"}},
	// 烦 "annoyed" also appears in 麻烦 "trouble" (often a polite request).
	{"烦", LabelAngry, []string{"麻烦你", "麻烦您"}},
}

// negativeLabels is the set of labels treated as negative for shift
// detection. Seeking is tracked separately.
var negativeLabels = map[string]bool{
	LabelSad:     true,
	LabelAnxious: true,
	LabelAngry:   true,
	LabelLow:     true,
}

// Classify maps a message to an emotion label using keyword matching.
// It returns LabelNeutral when no category scores a hit. The classification
// is pure CPU work with no I/O.
func Classify(message string) string {
	if message == "" {
		return LabelNeutral
	}
	lower := strings.ToLower(message)

	best := LabelNeutral
	bestHits := 0
	for _, cat := range categoryKeywords {
		hits := 0
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = cat.label
			bestHits = hits
		}
	}

	if bestHits > 0 {
		return best
	}

	// Single-character triggers only apply when no multi-character category
	// matched and no exclusion word explains the character away.
	for _, rule := range singleCharRules {
		if !strings.Contains(lower, rule.char) {
			continue
		}
		excluded := false
		for _, ex := range rule.excludes {
			if strings.Contains(lower, ex) {
				excluded = true
				break
			}
		}
		if !excluded {
			return rule.label
		}
	}

	return LabelNeutral
}

// IsNegative reports whether a label counts as negative for shift detection.
func IsNegative(label string) bool {
	return negativeLabels[label]
}
