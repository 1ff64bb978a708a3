package memory

import (
	"sync"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driven"
)

// Ensure the caches implement their interfaces.
var (
	_ driven.ConstraintCache = (*ConstraintCache)(nil)
	_ driven.ReportCache     = (*ReportCache)(nil)
)

// ConstraintCache is an in-memory implementation of
// driven.ConstraintCache. Compiled tables live until Clear.
type ConstraintCache struct {
	mu     sync.RWMutex
	tables map[string]domain.ConstraintTable
}

// NewConstraintCache creates a new constraint table cache.
func NewConstraintCache() *ConstraintCache {
	return &ConstraintCache{
		tables: make(map[string]domain.ConstraintTable),
	}
}

// Get returns the cached table for a schema ID.
func (c *ConstraintCache) Get(schemaID string) (domain.ConstraintTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table, ok := c.tables[schemaID]
	return table, ok
}

// Put stores a compiled table.
func (c *ConstraintCache) Put(schemaID string, table domain.ConstraintTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[schemaID] = table
}

// Clear drops every entry.
func (c *ConstraintCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]domain.ConstraintTable)
}

// ReportCache is an in-memory implementation of driven.ReportCache.
// Reports are keyed by schema, document, and revision.
type ReportCache struct {
	mu      sync.RWMutex
	reports map[domain.ReportKey]domain.ValidationReport
}

// NewReportCache creates a new validation report cache.
func NewReportCache() *ReportCache {
	return &ReportCache{
		reports: make(map[domain.ReportKey]domain.ValidationReport),
	}
}

// Get returns the cached report for a key.
func (c *ReportCache) Get(key domain.ReportKey) (domain.ValidationReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	report, ok := c.reports[key]
	return report, ok
}

// Put stores a report.
func (c *ReportCache) Put(key domain.ReportKey, report domain.ValidationReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[key] = report
}

// Clear drops every entry.
func (c *ReportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = make(map[domain.ReportKey]domain.ValidationReport)
}
