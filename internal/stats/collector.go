// Package stats provides a small metrics interface so the build and
// import paths do not depend on a particular metrics backend.
package stats

// Metric names.
const (
	MetricBuildsSubmitted = "openingtree_builds_submitted_total"
	MetricBuildsCompleted = "openingtree_builds_completed_total"
	MetricBuildsFailed    = "openingtree_builds_failed_total"
	MetricBuildSeconds    = "openingtree_build_duration_seconds"
	MetricGamesFetched    = "openingtree_games_fetched_total"
	MetricGamesRetained   = "openingtree_games_retained_total"
	MetricTreeNodes       = "openingtree_last_tree_nodes"
	MetricTreesCached     = "openingtree_trees_cached"

	MetricGamesImported = "openingtree_games_imported_total"
	MetricImportErrors  = "openingtree_import_errors_total"
)

var help = map[string]string{
	MetricBuildsSubmitted: "Tree builds accepted for execution.",
	MetricBuildsCompleted: "Tree builds that finished successfully.",
	MetricBuildsFailed:    "Tree builds that ended with an error.",
	MetricBuildSeconds:    "Wall time of completed tree builds.",
	MetricGamesFetched:    "Games read from the store by tree builds.",
	MetricGamesRetained:   "Games that passed the filter during tree builds.",
	MetricTreeNodes:       "Node count of the most recently built tree.",
	MetricTreesCached:     "Trees currently held in the registry.",
	MetricGamesImported:   "Games written to the store by imports.",
	MetricImportErrors:    "PGN records rejected during imports.",
}

// Help returns the description registered for a metric name, or the
// name itself when none is known.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
