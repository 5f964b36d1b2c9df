package adapter

import (
	"strings"

	"github.com/polisai/pdforge-adapter/pkg/domain"
)

// ParseHeaders builds a HeaderMap from raw transport fields. Invalid UTF-8 is
// replaced rather than rejected, so parsing never fails.
func ParseHeaders(fields []HeaderField) domain.HeaderMap {
	headers := make(domain.HeaderMap, len(fields))
	for _, field := range fields {
		headers.Add(field.Name, strings.ToValidUTF8(string(field.Value), "\uFFFD"))
	}
	return headers
}
