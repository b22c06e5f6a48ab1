package emotion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soulmesh/soulmem-go/pkg/emotion"
)

func TestHintFromQuery(t *testing.T) {
	assert.Equal(t, emotion.HintNegative, emotion.HintFromQuery("最近压力好大"))
	assert.Equal(t, emotion.HintNegative, emotion.HintFromQuery("我该怎么办"))
	assert.Equal(t, emotion.HintPositive, emotion.HintFromQuery("今天太好了"))
	assert.Equal(t, emotion.HintNone, emotion.HintFromQuery("今天吃了碗面"))
}

func TestHintFromPunctuation(t *testing.T) {
	assert.Equal(t, emotion.HintNegative, emotion.HintFromQuery("就这样吧……"))
	assert.Equal(t, emotion.HintNegative, emotion.HintFromQuery("nothing much..."))
	assert.Equal(t, emotion.HintPositive, emotion.HintFromQuery("guess what!!"))
}

func TestBiasSearchTerms(t *testing.T) {
	assert.Equal(t, "deadline stress, help",
		emotion.BiasSearchTerms("deadline", emotion.HintNegative))
	assert.Equal(t, "news happy, share",
		emotion.BiasSearchTerms("news", emotion.HintPositive))
	assert.Equal(t, "plain", emotion.BiasSearchTerms("plain", emotion.HintNone))
}

func TestResonanceEmotion(t *testing.T) {
	assert.Equal(t, "sadness", emotion.ResonanceEmotion(emotion.HintNegative))
	assert.Equal(t, "joy", emotion.ResonanceEmotion(emotion.HintPositive))
	assert.Empty(t, emotion.ResonanceEmotion(emotion.HintNone))
}
