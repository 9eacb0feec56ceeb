package source

import (
	"strings"

	"golang.org/x/text/cases"

	"bookreview-backend/internal/domains/author/model"
)

// FoldName is the case-insensitive identity of an author name within a
// single response.
func FoldName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// Collector accumulates records in arrival order, dropping repeated names.
type Collector struct {
	max     int
	seen    map[string]struct{}
	records []model.ExternalAuthorRecord
}

// NewCollector creates a collector that stops accepting after max records
func NewCollector(max int) *Collector {
	return &Collector{
		max:  max,
		seen: make(map[string]struct{}),
	}
}

// Add appends rec unless its name was already collected. Returns false once
// the collector is full.
func (c *Collector) Add(rec model.ExternalAuthorRecord) bool {
	if c.Full() {
		return false
	}
	key := FoldName(rec.DisplayName())
	if key == "" {
		return true
	}
	if _, dup := c.seen[key]; dup {
		return true
	}
	c.seen[key] = struct{}{}
	c.records = append(c.records, rec)
	return !c.Full()
}

func (c *Collector) Full() bool {
	return c.max > 0 && len(c.records) >= c.max
}

func (c *Collector) Records() []model.ExternalAuthorRecord {
	return c.records
}
