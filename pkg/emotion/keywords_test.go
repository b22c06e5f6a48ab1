package emotion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soulmesh/soulmem-go/pkg/emotion"
)

func TestClassifyBasic(t *testing.T) {
	cases := []struct {
		message string
		label   string
	}{
		{"今天好开心啊", emotion.LabelHappy},
		{"I got great news today!", emotion.LabelHappy},
		{"最近好焦虑，睡不着", emotion.LabelAnxious},
		{"气死我了，凭什么", emotion.LabelAngry},
		{"难过，想哭", emotion.LabelSad},
		{"唉，没意思", emotion.LabelLow},
		{"我该怎么办，帮帮我", emotion.LabelSeeking},
		{"what should i do about my lease", emotion.LabelSeeking},
		{"今天吃了碗面", emotion.LabelNeutral},
		{"", emotion.LabelNeutral},
	}
	for _, c := range cases {
		assert.Equal(t, c.label, emotion.Classify(c.message), "message: %s", c.message)
	}
}

func TestClassifySingleCharDisambiguation(t *testing.T) {
	// Bare 累 means tired; inside 积累 it is just "accumulate".
	assert.Equal(t, emotion.LabelLow, emotion.Classify("今天好累"))
	assert.Equal(t, emotion.LabelNeutral, emotion.Classify("知识需要积累"))

	// 气 alone reads angry, 天气 is weather talk.
	assert.Equal(t, emotion.LabelAngry, emotion.Classify("真是气人"))
	assert.Equal(t, emotion.LabelNeutral, emotion.Classify("今天天气不错"))

	// 烦 alone reads annoyed, 麻烦你 is a polite request.
	assert.Equal(t, emotion.LabelAngry, emotion.Classify("好烦啊"))
	assert.Equal(t, emotion.LabelNeutral, emotion.Classify("麻烦你帮我看一下"))
}

func TestIsNegative(t *testing.T) {
	assert.True(t, emotion.IsNegative(emotion.LabelSad))
	assert.True(t, emotion.IsNegative(emotion.LabelLow))
	assert.False(t, emotion.IsNegative(emotion.LabelHappy))
	assert.False(t, emotion.IsNegative(emotion.LabelSeeking), "seeking is tracked separately")
	assert.False(t, emotion.IsNegative(emotion.LabelNeutral))
}
