package model

import (
	"slices"

	"github.com/docket-lab/docket/pkg/domain/types"
)

// Metadata holds entities extracted from message text that refine an action's
// identity and expected deliverable
type Metadata struct {
	PANNumber   string `masq:"secret"`
	URLs        []string
	Deliverable types.DeliverableType
}

// IsEmpty reports whether no entity was extracted
func (m Metadata) IsEmpty() bool {
	return m.PANNumber == "" && len(m.URLs) == 0 && m.Deliverable == ""
}

// Merge combines freshly extracted metadata into existing metadata. URLs are
// unioned, the newest PAN number and deliverable type win when present.
func (m Metadata) Merge(fresh Metadata) Metadata {
	merged := m

	if fresh.PANNumber != "" {
		merged.PANNumber = fresh.PANNumber
	}
	if fresh.Deliverable != "" {
		merged.Deliverable = fresh.Deliverable
	}

	if len(fresh.URLs) > 0 {
		urls := make([]string, 0, len(m.URLs)+len(fresh.URLs))
		urls = append(urls, m.URLs...)
		for _, u := range fresh.URLs {
			if !slices.Contains(urls, u) {
				urls = append(urls, u)
			}
		}
		merged.URLs = urls
	}

	return merged
}

// Clone returns a deep copy of the metadata
func (m Metadata) Clone() Metadata {
	c := m
	if m.URLs != nil {
		c.URLs = slices.Clone(m.URLs)
	}
	return c
}
