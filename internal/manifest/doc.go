// Package manifest loads the extension manifest: a JSON or YAML document that
// lists "publisher.name" identifiers per platform category. Documents are
// validated against an embedded JSON Schema before they are decoded.
package manifest
