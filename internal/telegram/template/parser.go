// Package template extracts submission fields from the free-text template
// users post in group chats.
package template

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxTitleRunes       = 100
	MaxDescriptionRunes = 5000
	MaxTags             = 30
)

// Parsed holds the fields found in a template. Any subset may be present.
type Parsed struct {
	SourceLink  string
	Channel     string
	Title       string
	Description string
	Tags        []string
}

// Complete reports whether the fields required for a submission are present
func (p *Parsed) Complete() bool {
	return p != nil && p.Title != "" && p.Description != "" && len(p.Tags) > 0
}

type section int

const (
	sectionNone section = iota
	sectionLink
	sectionChannel
	sectionTitle
	sectionDescription
	sectionTags
)

// headers maps normalized header spellings to their section.
// Keys are compared after normalizeHeader, so spacing, ZWNJ, punctuation and emoji do not matter.
var headers = map[string]section{}

func init() {
	table := []struct {
		section section
		aliases []string
	}{
		{sectionLink, []string{"لینک آپلود", "لینک", "آدرس آپلود", "upload link", "source link"}},
		{sectionChannel, []string{"کانال", "نام کانال", "channel name"}},
		{sectionTitle, []string{"عنوان", "عنوان ویدیو", "عنوان ویدئو", "title"}},
		{sectionDescription, []string{"توضیحات", "توضیح", "description"}},
		{sectionTags, []string{"تگ", "تگ‌ها", "تگها", "هشتگ", "هشتگ‌ها", "tags", "tag"}},
	}

	for _, row := range table {
		for _, alias := range row.aliases {
			headers[normalizeHeader(alias)] = row.section
		}
	}
}

// normalizeHeader keeps only lowercased letters and digits
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// headerLine is a line recognized as a section header
type headerLine struct {
	section section
	inline  string // content after the colon in "Title: My video"
	bare    bool   // the line holds nothing but the header
}

// matchHeader classifies a line. A header may carry its first content line after a colon.
func matchHeader(line string) (headerLine, bool) {
	if sec, ok := headers[normalizeHeader(line)]; ok {
		return headerLine{section: sec, bare: true}, true
	}

	idx := strings.IndexAny(line, ":：")
	if idx <= 0 {
		return headerLine{}, false
	}

	sec, ok := headers[normalizeHeader(line[:idx])]
	if !ok {
		return headerLine{}, false
	}

	_, size := utf8.DecodeRuneInString(line[idx:])
	inline := strings.TrimSpace(line[idx+size:])
	return headerLine{section: sec, inline: inline, bare: inline == ""}, true
}

type accumulator struct {
	link        string
	channel     []string
	title       string
	description []string
	tags        []string
}

// filled reports whether sec already holds content
func (a *accumulator) filled(sec section) bool {
	switch sec {
	case sectionLink:
		return a.link != ""
	case sectionChannel:
		return len(a.channel) > 0
	case sectionTitle:
		return a.title != ""
	case sectionDescription:
		return len(a.description) > 0
	case sectionTags:
		return len(a.tags) > 0
	}
	return false
}

// switches reports whether h moves the cursor away from cursor.
// Description text is free-form, so a "Header: value" line inside it only counts
// when that section is still empty; otherwise it is description content.
func (a *accumulator) switches(cursor section, h headerLine) bool {
	if cursor != sectionDescription || h.bare {
		return true
	}
	return !a.filled(h.section)
}

func (a *accumulator) add(sec section, line string) {
	switch sec {
	case sectionLink:
		if a.link == "" && isAbsoluteURL(line) {
			a.link = line
		}
	case sectionChannel:
		a.channel = append(a.channel, line)
	case sectionTitle:
		if a.title == "" {
			a.title = line
		}
	case sectionDescription:
		a.description = append(a.description, line)
	case sectionTags:
		a.tags = append(a.tags, line)
	}
}

// Parse extracts template fields from text. botHandle (with or without the
// leading '@') is removed from the text first. It returns nil when no title,
// description or tag is found.
func Parse(text, botHandle string) *Parsed {
	text = StripMention(text, botHandle)

	var (
		acc    accumulator
		cursor = sectionNone
	)

	for _, line := range splitLines(text) {
		if h, ok := matchHeader(line); ok && acc.switches(cursor, h) {
			cursor = h.section
			if h.inline != "" {
				acc.add(cursor, h.inline)
			}
			continue
		}
		acc.add(cursor, line)
	}

	parsed := &Parsed{
		SourceLink:  acc.link,
		Channel:     strings.Join(acc.channel, " "),
		Title:       Truncate(acc.title, MaxTitleRunes),
		Description: Truncate(strings.Join(acc.description, "\n"), MaxDescriptionRunes),
		Tags:        SplitTags(strings.Join(acc.tags, " ")),
	}

	if parsed.Title == "" && parsed.Description == "" && len(parsed.Tags) == 0 {
		return nil
	}

	return parsed
}

// StripMention removes every case-insensitive occurrence of @handle from text
func StripMention(text, botHandle string) string {
	handle := strings.TrimPrefix(strings.TrimSpace(botHandle), "@")
	if handle == "" {
		return text
	}

	mention := "@" + handle
	var b strings.Builder
	for {
		i := indexFold(text, mention)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		text = text[i+len(mention):]
	}
}

// indexFold is a case-insensitive strings.Index for ASCII needles such as Telegram usernames
func indexFold(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isAbsoluteURL(s string) bool {
	if strings.ContainsAny(s, " \t") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// tagSeparator matches a comma (ASCII or Arabic), a newline, or "و"/"and" between whitespace
var tagSeparator = regexp.MustCompile(`(?i),|،|\n|\s+و\s+|\s+and\s+`)

// SplitTags splits free text into at most MaxTags tags with one leading '#' removed from each
func SplitTags(text string) []string {
	var tags []string
	for _, piece := range tagSeparator.Split(text, -1) {
		tag := strings.TrimSpace(piece)
		tag = strings.TrimSpace(strings.TrimPrefix(tag, "#"))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
