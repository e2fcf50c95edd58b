// Package exports infers a package's module aliases from its manifest.
//
// External aliases describe what other packages may import from this one:
// each exported specifier ("." or "./subpath", possibly a "./*" wildcard)
// maps to a target path within the package. Internal aliases realize the
// manifest's imports declaration ("#name" specifiers).
//
// Conditional exports are resolved against a set of condition tags. An
// exports condition object is walked in source order and the first key
// that is an active tag (or "default") wins, matching package-manager
// resolution semantics. Array values take the first resolvable element.
package exports

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"

	"github.com/hardenedjs/go-compartmap/pkgjson"
)

// Aliases is the inferred alias set for one package.
type Aliases struct {
	// External maps exported specifiers to target paths within the
	// package. Wildcard entries ("./*") are preserved verbatim.
	External map[string]string

	// Internal maps "#name" specifiers to their targets. Targets may be
	// relative paths within the package or bare dependency specifiers.
	Internal map[string]string

	// Explicit reports whether the manifest declared an exports map at
	// all. Packages without one are importable through an open scope
	// instead of an enumerated module list.
	Explicit bool
}

// Infer computes the alias set for a manifest under the given condition
// tags.
func Infer(m *pkgjson.Manifest, tags map[string]bool) Aliases {
	a := Aliases{
		External: make(map[string]string),
		Internal: make(map[string]string),
	}

	if explicitExports(m.Exports) {
		a.Explicit = true
		inferExternal(m.Exports, tags, a.External)
	} else if m.Main != "" {
		// main is always a path within the package, never a bare
		// dependency specifier; manifests commonly omit the ./ prefix.
		a.External["."] = normalizeTarget("./" + strings.TrimPrefix(m.Main, "./"))
	}

	for specifier, raw := range m.Imports {
		if !strings.HasPrefix(specifier, "#") {
			continue
		}
		if target, ok := interpret(raw, tags); ok {
			a.Internal[specifier] = target
		}
	}

	return a
}

// explicitExports reports whether raw carries a usable exports declaration.
func explicitExports(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && string(trimmed) != "null"
}

// inferExternal interprets an exports declaration into external aliases.
//
// Shapes handled:
//   - "./main.js"                        single target for "."
//   - {"import": …, "default": …}        condition object for "."
//   - {".": …, "./sub": …, "./*": …}     subpath map, values conditional
func inferExternal(raw json.RawMessage, tags map[string]bool, out map[string]string) {
	entries, isObject := objectEntries(raw)
	if !isObject {
		if target, ok := interpret(raw, tags); ok {
			out["."] = target
		}
		return
	}

	subpaths := len(entries) > 0
	for _, e := range entries {
		if !strings.HasPrefix(e.key, ".") {
			subpaths = false
			break
		}
	}

	if !subpaths {
		// Conditions object applying to the root specifier.
		if target, ok := interpretConditions(entries, tags); ok {
			out["."] = target
		}
		return
	}

	for _, e := range entries {
		if target, ok := interpret(e.value, tags); ok {
			out[normalizeSpecifier(e.key)] = target
		}
	}
}

// interpret resolves one exports value against the condition tags.
// Returns false if the value does not resolve (null, no matching
// condition, or an unusable shape).
func interpret(raw json.RawMessage, tags map[string]bool) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return "", false
	}

	switch trimmed[0] {
	case '"':
		var target string
		if err := json.Unmarshal(trimmed, &target); err != nil {
			return "", false
		}
		return normalizeTarget(target), true
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return "", false
		}
		for _, element := range elements {
			if target, ok := interpret(element, tags); ok {
				return target, true
			}
		}
		return "", false
	case '{':
		entries, ok := objectEntries(trimmed)
		if !ok {
			return "", false
		}
		return interpretConditions(entries, tags)
	default:
		return "", false
	}
}

// interpretConditions walks condition entries in source order; the first
// entry whose key is an active tag (or "default") and whose value
// resolves wins.
func interpretConditions(entries []objectEntry, tags map[string]bool) (string, bool) {
	for _, e := range entries {
		if e.key != "default" && !tags[e.key] {
			continue
		}
		if target, ok := interpret(e.value, tags); ok {
			return target, true
		}
	}
	return "", false
}

// objectEntry is one key/value pair of a JSON object, in source order.
type objectEntry struct {
	key   string
	value json.RawMessage
}

// objectEntries decodes a JSON object preserving key order. Condition
// matching depends on source order, which map decoding would destroy.
func objectEntries(raw json.RawMessage) ([]objectEntry, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	var entries []objectEntry
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		entries = append(entries, objectEntry{key: key, value: value})
	}
	return entries, true
}

// normalizeSpecifier cleans an exported subpath key. "." is preserved;
// other keys keep their "./" prefix.
func normalizeSpecifier(specifier string) string {
	if specifier == "." || specifier == "./" {
		return "."
	}
	if strings.HasPrefix(specifier, "./") {
		return "./" + strings.TrimPrefix(specifier, "./")
	}
	return specifier
}

// normalizeTarget cleans an alias target. Relative targets keep a "./"
// prefix; bare dependency specifiers pass through untouched. Wildcard
// targets are preserved verbatim so the consumer can substitute.
func normalizeTarget(target string) string {
	if target == "." || target == "./" {
		return "./"
	}
	if strings.HasPrefix(target, "./") {
		if strings.Contains(target, "*") {
			return target
		}
		return "./" + path.Clean(strings.TrimPrefix(target, "./"))
	}
	return target
}

// DefaultLanguageForExtension returns the language table implied by a
// manifest's type field: ESM packages interpret .js as mjs, everything
// else as cjs. The fixed extensions are the same either way.
func DefaultLanguageForExtension(packageType string) map[string]string {
	table := map[string]string{
		"mjs":   string(pkgjson.LanguageMJS),
		"cjs":   string(pkgjson.LanguageCJS),
		"json":  string(pkgjson.LanguageJSON),
		"text":  string(pkgjson.LanguageText),
		"bytes": string(pkgjson.LanguageBytes),
	}
	if packageType == "module" {
		table["js"] = string(pkgjson.LanguageMJS)
	} else {
		table["js"] = string(pkgjson.LanguageCJS)
	}
	return table
}
