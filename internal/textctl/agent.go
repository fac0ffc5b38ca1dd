package textctl

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"appagent/internal/metrics"
	"appagent/pkg/keyboard"
)

// AuditAbbreviation is the audit kind recorded for every replacement.
const AuditAbbreviation = "Abbreviation"

// AuditFunc records one audit event.
type AuditFunc func(kind, detail string)

// Agent is the text-behavior wrapper for the focused editable control
type Agent interface {
	ExpandAbbreviations() bool
	SupportsSpellCheck() bool

	// Pause suspends reaction to input until the matching Resume.
	Pause()
	Resume()
	Paused() bool

	// Observe feeds characters that reached the control.
	Observe(text string)

	// Type injects text one character at a time and observes it.
	Type(text string) error
}

// Deps are the collaborators shared by every control.
type Deps struct {
	Keyboard   keyboard.Synthesizer
	Dictionary *Dictionary
	Audit      AuditFunc
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// Control implements Agent for one focused element.
type Control struct {
	caps    Capabilities
	element uint32
	deps    Deps

	mu     sync.Mutex
	paused int
	word   []rune
}

// New wraps element. The behavior is consulted here and never again.
func New(b Behavior, element uint32, deps Deps) *Control {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Dictionary == nil {
		deps.Dictionary = NewDictionary(nil, nil)
	}
	return &Control{caps: capabilitiesOf(b), element: element, deps: deps}
}

func (c *Control) ExpandAbbreviations() bool  { return c.caps.ExpandAbbreviations }
func (c *Control) SupportsSpellCheck() bool   { return c.caps.SupportsSpellCheck }
func (c *Control) Capabilities() Capabilities { return c.caps }
func (c *Control) Element() uint32            { return c.element }

func (c *Control) Pause() {
	c.mu.Lock()
	c.paused++
	c.mu.Unlock()
}

func (c *Control) Resume() {
	c.mu.Lock()
	if c.paused > 0 {
		c.paused--
	}
	c.mu.Unlock()
}

func (c *Control) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused > 0
}

func (c *Control) Type(text string) error {
	for _, r := range text {
		if err := c.deps.Keyboard.Type(string(r)); err != nil {
			return err
		}
		c.Observe(string(r))
	}
	return nil
}

// Observe tracks the word being typed and replaces it at a word boundary.
// Input is dropped while paused.
func (c *Control) Observe(text string) {
	for _, r := range text {
		c.mu.Lock()
		if c.paused > 0 {
			c.word = c.word[:0]
			c.mu.Unlock()
			return
		}
		if isWordRune(r) {
			c.word = append(c.word, r)
			c.mu.Unlock()
			continue
		}
		if r == '\b' {
			if len(c.word) > 0 {
				c.word = c.word[:len(c.word)-1]
			}
			c.mu.Unlock()
			continue
		}
		word := string(c.word)
		c.word = c.word[:0]
		c.mu.Unlock()

		if word != "" {
			c.replace(word, r)
		}
	}
}

func (c *Control) replace(word string, boundary rune) {
	kind := ""
	replacement, ok := "", false
	if c.caps.ExpandAbbreviations {
		replacement, ok = c.deps.Dictionary.Abbreviation(word)
		kind = "abbreviation"
	}
	if !ok && c.caps.SupportsSpellCheck {
		replacement, ok = c.deps.Dictionary.Spelling(word)
		kind = "spelling"
	}
	if !ok || replacement == word {
		return
	}

	c.Pause()
	defer c.Resume()

	// The boundary character has already reached the control.
	erase := utf8.RuneCountInString(word) + 1
	for i := 0; i < erase; i++ {
		if err := c.deps.Keyboard.Send(keyboard.BackSpace); err != nil {
			c.deps.Logger.Warn("text replacement failed", zap.String("word", word), zap.Error(err))
			return
		}
	}
	if err := c.deps.Keyboard.Type(replacement + string(boundary)); err != nil {
		c.deps.Logger.Warn("text replacement failed", zap.String("word", word), zap.Error(err))
		return
	}

	mode := "punctuation"
	if unicode.IsSpace(boundary) {
		mode = "space"
	}
	c.deps.Metrics.RecordReplacement(kind)
	if c.deps.Audit != nil {
		c.deps.Audit(AuditAbbreviation, fmt.Sprintf("%s %s: %s -> %s", kind, mode, word, strings.TrimSpace(replacement)))
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}
