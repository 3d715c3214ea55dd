// Package events carries signals from command handlers to the page that
// renders the terminal.
package events

import (
	"path"
	"strings"
	"sync"
)

type Type string

const (
	TypeFileOpen    Type = "file-open"
	TypeNavigate    Type = "navigate"
	TypeClear       Type = "clear"
	TypeThemeChange Type = "theme-change"
)

// FileOpen asks the page to open a file in the editor.
type FileOpen struct {
	Filename      string `json:"filename"`
	Language      string `json:"language"`
	Content       string `json:"content"`
	IsNewFile     bool   `json:"isNewFile"`
	UseFileSystem bool   `json:"useFileSystem"`
}

type Event struct {
	Type     Type      `json:"type"`
	FileOpen *FileOpen `json:"fileOpen,omitempty"`
	URL      string    `json:"url,omitempty"`
	NewTab   bool      `json:"newTab,omitempty"`
	Theme    string    `json:"theme,omitempty"`
}

// Sink receives events. Emit must not block.
type Sink interface {
	Emit(Event)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// Queue is a buffered Sink. When the buffer is full the oldest pending
// event is dropped.
type Queue struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 16
	}
	return &Queue{ch: make(chan Event, size)}
}

func (q *Queue) Emit(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	for {
		select {
		case q.ch <- e:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// Events is the receive side, closed by Close.
func (q *Queue) Events() <-chan Event {
	return q.ch
}

func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

var languages = map[string]string{
	".js": "javascript", ".jsx": "javascript", ".mjs": "javascript",
	".ts": "typescript", ".tsx": "typescript",
	".py": "python", ".go": "go", ".rs": "rust", ".java": "java",
	".c": "c", ".h": "c", ".cpp": "cpp", ".hpp": "cpp", ".cs": "csharp",
	".rb": "ruby", ".php": "php", ".sh": "shell", ".bash": "shell",
	".json": "json", ".yaml": "yaml", ".yml": "yaml", ".toml": "toml",
	".xml": "xml", ".html": "html", ".htm": "html", ".css": "css",
	".scss": "scss", ".md": "markdown", ".markdown": "markdown",
	".sql": "sql", ".txt": "plaintext",
}

// LanguageFor guesses the editor language from a file name.
func LanguageFor(filename string) string {
	if lang, ok := languages[strings.ToLower(path.Ext(filename))]; ok {
		return lang
	}
	return "plaintext"
}
