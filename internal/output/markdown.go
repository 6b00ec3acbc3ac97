package output

import (
	"docgen/internal/core/errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InjectDiagram rewrites the region between the docgen markers of filePath.
// The file is replaced atomically through a temp file in the same directory.
func InjectDiagram(filePath, marker, diagram string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeFileRead, "read markdown file"), errors.CtxPath, filePath)
	}

	next, err := ReplaceBetweenMarkers(string(content), marker, diagram)
	if err != nil {
		return errors.AddContext(err, errors.CtxPath, filePath)
	}

	dir := filepath.Dir(filePath)
	tmp, err := os.CreateTemp(dir, ".markdown-inject-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", filePath, err)
	}
	tmpName := tmp.Name()

	writeErr := error(nil)
	if _, err := tmp.WriteString(next); err != nil {
		writeErr = fmt.Errorf("write temp markdown file %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("close temp markdown file %q: %w", tmpName, err)
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return writeErr
	}

	if err := os.Rename(tmpName, filePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace markdown file %q: %w", filePath, err)
	}
	return nil
}

// MarkdownBlock fences a rendered diagram for embedding: mermaid output gets
// a mermaid fence, anything else a plain text fence.
func MarkdownBlock(format, body string) string {
	lang := "text"
	if format == "mermaid" {
		lang = "mermaid"
	}
	return "```" + lang + "\n" + strings.TrimRight(body, "\r\n") + "\n```"
}

func ReplaceBetweenMarkers(content, marker, replacement string) (string, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return "", errors.New(errors.CodeValidationError, "markdown marker must not be empty")
	}

	newline := "\n"
	if strings.Contains(content, "\r\n") {
		newline = "\r\n"
	}

	start := fmt.Sprintf("<!-- docgen:%s:start -->", marker)
	end := fmt.Sprintf("<!-- docgen:%s:end -->", marker)

	if strings.Count(content, start) != 1 || strings.Count(content, end) != 1 {
		return "", errors.New(errors.CodeValidationError,
			fmt.Sprintf("markdown marker %q must appear exactly once for start and end", marker))
	}

	startIdx := strings.Index(content, start)
	endIdx := strings.Index(content, end)
	if endIdx < startIdx {
		return "", errors.New(errors.CodeValidationError, fmt.Sprintf("invalid marker order for %q", marker))
	}

	prefix := content[:startIdx+len(start)]
	suffix := content[endIdx:]
	cleanReplacement := strings.TrimRight(replacement, "\r\n")
	if newline == "\r\n" {
		cleanReplacement = strings.ReplaceAll(strings.ReplaceAll(cleanReplacement, "\r\n", "\n"), "\n", "\r\n")
	}

	return prefix + newline + cleanReplacement + newline + suffix, nil
}
