package patents

import (
	"fmt"
	"sort"
	"strings"
)

const (
	maxPublicationNumberLength = 0xFF
	maxCpcCodeLength           = 0xFF
	maxCpcCodes                = 0xFFFF
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks that p fits the record format.
func Validate(p *Patent) error {
	errs := make(map[string]string)

	pn := strings.TrimSpace(p.PublicationNumber)
	if pn == "" {
		errs["publication_number"] = "publication number is required"
	} else if len(pn) > maxPublicationNumberLength {
		errs["publication_number"] = fmt.Sprintf("publication number must be at most %d bytes", maxPublicationNumberLength)
	}
	if len(p.CpcCodes) > maxCpcCodes {
		errs["cpc_codes"] = fmt.Sprintf("at most %d classification codes allowed, got %d", maxCpcCodes, len(p.CpcCodes))
	} else {
		for _, code := range p.CpcCodes {
			if code == "" || len(code) > maxCpcCodeLength {
				errs["cpc_codes"] = fmt.Sprintf("classification code %q must be 1 to %d bytes", code, maxCpcCodeLength)
				break
			}
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
