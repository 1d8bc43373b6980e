package domain

import (
	"strings"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// Metadata is the auxiliary description of an issue sent with a generation
// request. Absent fields are omitted from the serialized form.
type Metadata struct {
	Label       string            `yaml:"label,omitempty"`
	ElementType string            `yaml:"elementType,omitempty"`
	Rect        *m.Rect           `yaml:"rect,omitempty"`
	Extra       map[string]string `yaml:"extra,omitempty"`
}

// MetadataCollector projects descriptive facts off an issue.
type MetadataCollector interface {
	Collect(issue m.Issue) Metadata
}

type metadataCollector struct{}

// NewMetadataCollector constructs the default collector.
func NewMetadataCollector() MetadataCollector {
	return &metadataCollector{}
}

// Collect trims the descriptive strings and copies the rect. A rect with no
// area is dropped.
func (c *metadataCollector) Collect(issue m.Issue) Metadata {
	md := Metadata{
		Label:       strings.TrimSpace(issue.Label),
		ElementType: strings.TrimSpace(issue.ElementType),
	}

	if issue.Rect != nil && issue.Rect.Width > 0 && issue.Rect.Height > 0 {
		rect := *issue.Rect
		md.Rect = &rect
	}

	return md
}
