package validation

import "github.com/talk2dom/web/internal/highlight"

// maxHTMLBytes bounds the documents the playground accepts.
const maxHTMLBytes = 2 << 20

// LocateRequest mirrors the fields needed for locate validation.
type LocateRequest struct {
	URL         string
	HTML        string
	Instruction string
}

// ValidateLocateRequest validates a playground locate.
func ValidateLocateRequest(req LocateRequest) []FieldError {
	var errs []FieldError
	errs = document(errs, req.HTML)
	errs, ok := required(errs, "instruction", req.Instruction)
	if ok {
		errs = maxLen(errs, "instruction", req.Instruction, 1000)
	}
	return errs
}

// HighlightRequest mirrors the fields needed for highlight validation.
type HighlightRequest struct {
	HTML          string
	SelectorType  string
	SelectorValue string
}

// ValidateHighlightRequest validates a playground highlight.
func ValidateHighlightRequest(req HighlightRequest) []FieldError {
	var errs []FieldError
	errs = document(errs, req.HTML)
	errs, ok := required(errs, "selectorType", req.SelectorType)
	if ok && !highlight.Supported(req.SelectorType) {
		errs = append(errs, FieldError{Field: "selectorType", Message: "selectorType is not supported"})
	}
	errs, _ = required(errs, "selectorValue", req.SelectorValue)
	return errs
}

func document(errs []FieldError, html string) []FieldError {
	errs, ok := required(errs, "html", html)
	if ok && len(html) > maxHTMLBytes {
		errs = append(errs, FieldError{Field: "html", Message: "html must be at most 2 MiB"})
	}
	return errs
}
