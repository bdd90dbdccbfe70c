package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyContent(t *testing.T) {
	c := NewKeywordClassifier(5)

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"hashtags keep order", "call #Mom then #gym!", []string{"mom", "gym"}},
		{"categories sorted", "book a flight before the meeting", []string{"education", "travel", "work"}},
		{"hashtag and category deduplicated", "#work project sync", []string{"work"}},
		{"whole words only", "rebuying shoplifting", []string{}},
		{"empty hashtag ignored", "# heading", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ClassifyContent(tt.content))
		})
	}
}

func TestClassifyContentLimit(t *testing.T) {
	c := NewKeywordClassifier(2)
	assert.Equal(t, []string{"a", "b"}, c.ClassifyContent("#a #b #c trip"))
}
