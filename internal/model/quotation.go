package model

import (
	"strings"
	"time"
)

// Quotation is an AI-drafted project quote saved locally by the user.
type Quotation struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Prompt    string    `json:"prompt" db:"prompt"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// QuotationTitle pulls the "PROJECT TITLE:" line out of a drafted
// quotation, falling back to the first non-empty line.
func QuotationTitle(body string) string {
	var first string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*#"))
		if line == "" {
			continue
		}
		if first == "" {
			first = line
		}
		if rest, ok := cutPrefixFold(line, "PROJECT TITLE:"); ok {
			if t := strings.TrimSpace(strings.Trim(rest, "* ")); t != "" {
				return t
			}
		}
	}
	if len(first) > 60 {
		first = first[:60]
	}
	return first
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
