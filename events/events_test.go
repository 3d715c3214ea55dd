package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueDropsOldest(t *testing.T) {
	q := NewQueue(2)
	q.Emit(Event{Type: TypeClear})
	q.Emit(Event{Type: TypeNavigate, URL: "https://a"})
	q.Emit(Event{Type: TypeNavigate, URL: "https://b"})
	q.Close()
	q.Emit(Event{Type: TypeClear})

	var got []string
	for e := range q.Events() {
		got = append(got, e.URL)
	}
	assert.Equal(t, []string{"https://a", "https://b"}, got)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Emit(Event{Type: TypeThemeChange, Theme: "nord"})
	assert.Len(t, r.Events(), 1)
	assert.Equal(t, "nord", r.Events()[0].Theme)
}

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, "go", LanguageFor("main.go"))
	assert.Equal(t, "markdown", LanguageFor("README.MD"))
	assert.Equal(t, "plaintext", LanguageFor("Makefile"))
}
