package logger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// messager describes an error that can report its own message without the
// chain. Matches zerr.Error's Message() method (go.trai.ch/zerr v0.3.0+).
type messager interface {
	Message() string
}

// metadataer describes an error that can return structured metadata.
// Matches zerr.Error's Metadata() method.
type metadataer interface {
	Metadata() map[string]any
}

// errorEntry holds a message and its associated metadata for formatting.
type errorEntry struct {
	message  string
	metadata map[string]any
}

// FormatError renders err's full zerr chain (message + metadata per link)
// into a human-readable, arrow-linked form suitable for Logger.Error, e.g.
// "Error: build failed\n\n  Caused by:\n    → task-failed\n      task: compile".
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	entries := collectErrorEntries(err)
	return formatErrorEntries(entries)
}

func collectErrorEntries(err error) []errorEntry {
	entries := make([]errorEntry, 0, 4)
	current := err

	for current != nil {
		entry := errorEntry{}

		if md, ok := current.(metadataer); ok {
			entry.metadata = md.Metadata()
		}

		if m, ok := current.(messager); ok {
			entry.message = m.Message()
			current = errors.Unwrap(current)
		} else {
			entry.message = current.Error()
			current = nil
		}

		entries = append(entries, entry)
	}

	return entries
}

func formatErrorEntries(entries []errorEntry) string {
	var formattedLines []string

	for i, entry := range entries {
		lines := strings.Split(entry.message, "\n")
		formattedLines = append(formattedLines, formatErrorMessage(i, lines)...)
		formattedLines = append(formattedLines, formatErrorMetadata(i, entry.metadata)...)
	}

	return strings.Join(formattedLines, "\n")
}

func formatErrorMessage(index int, lines []string) []string {
	var result []string

	if index == 0 {
		result = append(result, "Error: "+lines[0])
		for _, line := range lines[1:] {
			result = append(result, "       "+line)
		}
	} else {
		if index == 1 {
			result = append(result, "", "  Caused by:")
		}
		result = append(result, "    → "+lines[0])
		for _, line := range lines[1:] {
			result = append(result, "      "+line)
		}
	}

	return result
}

func formatErrorMetadata(index int, metadata map[string]any) []string {
	if len(metadata) == 0 {
		return nil
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var result []string
	for _, k := range keys {
		v := metadata[k]
		if index == 0 {
			result = append(result, fmt.Sprintf("       %s: %v", k, v))
		} else {
			result = append(result, fmt.Sprintf("      %s: %v", k, v))
		}
	}

	return result
}
