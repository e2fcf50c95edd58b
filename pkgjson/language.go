package pkgjson

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Language identifies how a module's source text is to be interpreted by
// downstream tooling.
type Language string

// Recognized languages.
const (
	LanguageMJS   Language = "mjs"
	LanguageCJS   Language = "cjs"
	LanguageJSON  Language = "json"
	LanguageText  Language = "text"
	LanguageBytes Language = "bytes"
)

var recognizedLanguages = map[Language]bool{
	LanguageMJS:   true,
	LanguageCJS:   true,
	LanguageJSON:  true,
	LanguageText:  true,
	LanguageBytes: true,
}

// RecognizedLanguage reports whether tag names a supported language.
func RecognizedLanguage(tag string) bool {
	return recognizedLanguages[Language(tag)]
}

// RecognizedLanguages returns the sorted list of supported language tags.
func RecognizedLanguages() []string {
	tags := make([]string, 0, len(recognizedLanguages))
	for tag := range recognizedLanguages {
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)
	return tags
}

// ParserOverrides splits the manifest's parsers table into per-extension
// and per-path language overrides.
//
// Keys beginning with "./" name individual modules; all other keys name
// bare file extensions. Every value must be a JSON string naming a
// recognized language: a non-string value is a malformed parser map, and
// an unrecognized language tag is rejected.
func (m *Manifest) ParserOverrides() (perExtension, perPath map[string]string, err error) {
	if len(m.Parsers) == 0 {
		return nil, nil, nil
	}
	perExtension = make(map[string]string)
	perPath = make(map[string]string)
	for key, raw := range m.Parsers {
		var tag string
		if err := json.Unmarshal(raw, &tag); err != nil {
			return nil, nil, &ParserMapError{Package: m.Name, Key: key, Reason: "value is not a string"}
		}
		if !RecognizedLanguage(tag) {
			return nil, nil, &UnknownLanguageError{Package: m.Name, Key: key, Language: tag}
		}
		if strings.HasPrefix(key, "./") {
			perPath[key] = tag
		} else {
			perExtension[strings.TrimPrefix(key, ".")] = tag
		}
	}
	return perExtension, perPath, nil
}

// ParserMapError indicates a package's parsers table is not a well-formed
// mapping from extensions or module paths to language tags.
type ParserMapError struct {
	// Package is the self-declared name of the offending package.
	Package string
	// Key is the parsers-table key whose value is malformed.
	Key string
	// Reason describes the malformation.
	Reason string
}

func (e *ParserMapError) Error() string {
	return fmt.Sprintf("malformed parsers entry %q in package %q: %s", e.Key, e.Package, e.Reason)
}

// UnknownLanguageError indicates a parsers-table value names a language
// outside the recognized set.
type UnknownLanguageError struct {
	// Package is the self-declared name of the offending package.
	Package string
	// Key is the parsers-table key carrying the unknown language.
	Key string
	// Language is the unrecognized tag.
	Language string
}

func (e *UnknownLanguageError) Error() string {
	return fmt.Sprintf("unknown language %q for parsers entry %q in package %q (recognized: %s)",
		e.Language, e.Key, e.Package, strings.Join(RecognizedLanguages(), ", "))
}
