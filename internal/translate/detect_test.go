package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "plain english", text: "Hello, has my order shipped?", want: "en"},
		{name: "plain chinese", text: "你的订单已经发货了", want: "zh"},
		{name: "mostly chinese with latin brand", text: "我买的iPhone什么时候到", want: "zh"},
		{name: "mostly english with one han rune", text: "what does 好 mean here exactly", want: "en"},
		{name: "digits and punctuation only", text: "12345 !!! :-)", want: ""},
		{name: "empty", text: "", want: ""},
		{name: "cyrillic treated as non-chinese", text: "Здравствуйте, где мой заказ?", want: "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}
