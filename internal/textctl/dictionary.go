package textctl

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Dictionary holds the abbreviation and spelling tables. Keys are matched
// case-insensitively and the table can be swapped while controls use it.
type Dictionary struct {
	mu            sync.RWMutex
	abbreviations map[string]string
	spellings     map[string]string
}

func NewDictionary(abbreviations, spellings map[string]string) *Dictionary {
	d := &Dictionary{}
	d.Replace(abbreviations, spellings)
	return d
}

// Replace swaps both tables.
func (d *Dictionary) Replace(abbreviations, spellings map[string]string) {
	abbr := lowerKeys(abbreviations)
	spell := lowerKeys(spellings)

	d.mu.Lock()
	d.abbreviations = abbr
	d.spellings = spell
	d.mu.Unlock()
}

func (d *Dictionary) Abbreviation(word string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lookup(d.abbreviations, word)
}

func (d *Dictionary) Spelling(word string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lookup(d.spellings, word)
}

func (d *Dictionary) Len() (abbreviations, spellings int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.abbreviations), len(d.spellings)
}

// lookup keeps the capitalization of the typed word's first letter.
func lookup(table map[string]string, word string) (string, bool) {
	if table == nil || word == "" {
		return "", false
	}
	replacement, ok := table[strings.ToLower(word)]
	if !ok || replacement == "" {
		return "", false
	}

	first, _ := utf8.DecodeRuneInString(word)
	if unicode.IsUpper(first) {
		r, size := utf8.DecodeRuneInString(replacement)
		replacement = string(unicode.ToUpper(r)) + replacement[size:]
	}
	return replacement, true
}

func lowerKeys(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[strings.ToLower(k)] = v
	}
	return dst
}
