// Package extract recovers a single text field from raw LLM output.
//
// Providers do not reliably return clean JSON: answers get cut off by token
// limits, wrapped in markdown fences, or carry the payload JSON-encoded a
// second time. Extract walks an ordered chain of extractors and returns the
// first usable text.
package extract

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"moodping/api/utils"
)

const (
	AnalysisKey      = "analysis_text"
	SummaryKey       = "summary_text"
	MaxAnalysisChars = 1500
	MaxSummaryChars  = 3000
)

// Source tells which extractor produced a Result.
type Source string

const (
	SourceField          Source = "field"
	SourceTruncatedField Source = "truncated_field"
	SourceJSON           Source = "json"
	SourceRaw            Source = "raw"
)

type Result struct {
	Text   string
	Source Source
}

type outcome int

const (
	noMatch outcome = iota
	matched
	// stop ends the chain without a result.
	stop
)

type extractor func(raw, key string, maxChars int) (Result, outcome)

var chain = []extractor{
	closedField,
	unclosedField,
	jsonDocument,
}

var (
	fencePattern  = regexp.MustCompile("(?i)```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("(?m)```\\s*$")
	knownPatterns = map[string][2]*regexp.Regexp{
		AnalysisKey: compileFieldPatterns(AnalysisKey),
		SummaryKey:  compileFieldPatterns(SummaryKey),
	}
)

// Extract returns the text stored under key in raw, truncated to maxChars
// characters. ok is false only when nothing usable was recovered.
func Extract(raw, key string, maxChars int) (Result, bool) {
	if raw == "" {
		return Result{}, false
	}
	for _, ex := range chain {
		res, out := ex(raw, key, maxChars)
		switch out {
		case matched:
			return res, true
		case stop:
			return Result{}, false
		}
	}
	return Result{Text: utils.Truncate(raw, maxChars), Source: SourceRaw}, true
}

// AnalysisText extracts the per-record analysis.
func AnalysisText(raw string) (Result, bool) {
	return Extract(raw, AnalysisKey, MaxAnalysisChars)
}

// SummaryText extracts the weekly report summary.
func SummaryText(raw string) (Result, bool) {
	return Extract(raw, SummaryKey, MaxSummaryChars)
}

func closedField(raw, key string, maxChars int) (Result, outcome) {
	return regexField(fieldPatterns(key)[0], SourceField, raw, maxChars)
}

func unclosedField(raw, key string, maxChars int) (Result, outcome) {
	return regexField(fieldPatterns(key)[1], SourceTruncatedField, raw, maxChars)
}

func regexField(re *regexp.Regexp, src Source, raw string, maxChars int) (Result, outcome) {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return Result{}, noMatch
	}
	text := unescape(m[1])
	if strings.TrimSpace(text) == "" {
		return Result{}, noMatch
	}
	return Result{Text: utils.Truncate(text, maxChars), Source: src}, matched
}

// jsonDocument parses the whole (fence-stripped) response. A document whose
// field is blank ends the chain. One that does not parse, or whose field is
// null or not a string, falls through to the raw passthrough.
func jsonDocument(raw, key string, maxChars int) (Result, outcome) {
	cleaned := fencePattern.ReplaceAllString(raw, "")
	cleaned = strings.TrimSpace(trailingFence.ReplaceAllString(cleaned, ""))
	if !gjson.Valid(cleaned) {
		return Result{}, noMatch
	}
	doc := gjson.Parse(cleaned)
	if !doc.IsObject() {
		return Result{}, noMatch
	}

	field := doc.Get(escapePath(key))
	if field.Exists() && field.Type != gjson.String {
		return Result{}, noMatch
	}
	text := field.String()

	if strings.HasPrefix(strings.TrimSpace(text), "{") && gjson.Valid(text) {
		inner := gjson.Parse(text)
		if inner.IsObject() {
			if nested := inner.Get(escapePath(key)); nested.Type == gjson.String {
				text = nested.String()
			}
		}
	}

	if strings.TrimSpace(text) == "" {
		return Result{}, stop
	}
	return Result{Text: utils.Truncate(text, maxChars), Source: SourceJSON}, matched
}

// unescape undoes the escapes LLMs emit inside a JSON string. The
// replacements run one after another, backslashes last.
func unescape(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}

func fieldPatterns(key string) [2]*regexp.Regexp {
	if p, ok := knownPatterns[key]; ok {
		return p
	}
	return compileFieldPatterns(key)
}

// compileFieldPatterns returns the closed-quote and unclosed variants.
func compileFieldPatterns(key string) [2]*regexp.Regexp {
	prefix := `(?s)"` + regexp.QuoteMeta(key) + `"\s*:\s*"((?:[^"\\]|\\.)*)`
	return [2]*regexp.Regexp{
		regexp.MustCompile(prefix + `"`),
		regexp.MustCompile(prefix),
	}
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

func escapePath(key string) string {
	return pathEscaper.Replace(key)
}
