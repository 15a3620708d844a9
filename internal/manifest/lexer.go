// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the line scanner. Every parser in the package operates
// on the []Line it produces rather than on raw text, so indentation and
// comment handling live in exactly one place.
package manifest

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Line is one physical line of the manifest.
type Line struct {
	Num    int // 1-based
	Raw    string
	Text   string // Raw with surrounding whitespace removed
	Indent int
}

// IndentOf measures leading whitespace. A space counts one column and a tab
// counts two.
func IndentOf(raw string) int {
	n := 0
	for _, r := range raw {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 2
		default:
			return n
		}
	}
	return n
}

// Scan splits text into lines. It rejects input that is not valid UTF-8.
func Scan(text string) ([]Line, error) {
	if !utf8.ValidString(text) {
		return nil, &ParseError{Line: 0, Msg: "manifest is not valid UTF-8"}
	}
	text = strings.TrimPrefix(text, "\uFEFF")
	rawLines := strings.Split(text, "\n")
	lines := make([]Line, len(rawLines))
	for i, raw := range rawLines {
		raw = strings.TrimRight(raw, "\r")
		lines[i] = Line{
			Num:    i + 1,
			Raw:    raw,
			Text:   strings.TrimSpace(raw),
			Indent: IndentOf(raw),
		}
	}
	return lines, nil
}

// Blank reports whether the line has no content.
func (l Line) Blank() bool { return l.Text == "" }

// Comment reports whether the line is a comment.
func (l Line) Comment() bool { return strings.HasPrefix(l.Text, "#") }

// Skippable reports whether the line carries no data.
func (l Line) Skippable() bool { return l.Blank() || l.Comment() }

// IsItem reports whether the line is an array item ("- ...").
func (l Line) IsItem() bool { return l.Text == "-" || strings.HasPrefix(l.Text, "- ") }

// Body returns the line content with any leading "- " removed.
func (l Line) Body() string {
	if l.IsItem() {
		return strings.TrimSpace(strings.TrimPrefix(l.Text, "-"))
	}
	return l.Text
}

// HasKey reports whether the body is a "key: value" or "key:" pair. Bodies
// whose first colon is followed by something other than a space or the end
// of the line (for example "Narrative:Tag") are not pairs.
func (l Line) HasKey() bool {
	_, _, ok := splitPair(l.Body())
	return ok
}

// Key returns the key of a "key: value" body as written.
func (l Line) Key() string {
	k, _, _ := splitPair(l.Body())
	return k
}

// Field returns the key lower-cased, for matching against grammar keys.
func (l Line) Field() string { return strings.ToLower(l.Key()) }

// Value returns the unquoted value of a "key: value" body.
func (l Line) Value() string {
	_, v, _ := splitPair(l.Body())
	return v
}

// IsItemKey reports whether the line is an array item whose body starts with
// the given key, e.g. "- name: X".
func (l Line) IsItemKey(key string) bool {
	return l.IsItem() && l.HasKey() && strings.EqualFold(l.Key(), key)
}

// IsHeader reports whether the line opens a block: a non-item "key:" with
// an empty value.
func (l Line) IsHeader() bool {
	return !l.IsItem() && l.HasKey() && l.Value() == "" && strings.HasSuffix(l.Text, ":")
}

func splitPair(body string) (key, value string, ok bool) {
	idx := strings.Index(body, ":")
	if idx <= 0 {
		return "", "", false
	}
	if idx+1 < len(body) && body[idx+1] != ' ' && body[idx+1] != '\t' {
		return "", "", false
	}
	key = strings.TrimSpace(body[:idx])
	if strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, Unquote(strings.TrimSpace(body[idx+1:])), true
}

// Unquote removes one pair of matching surrounding double or single quotes.
func Unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// InlineList parses "[a, b, c]" into its trimmed, unquoted elements. Input
// without brackets is split on commas. "[]" and "" yield nil.
func InlineList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("unterminated inline list %q", s)
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = Unquote(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// SplitReplies splits a reply list written with ';' or ',' separators.
func SplitReplies(s string) []string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = Unquote(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
