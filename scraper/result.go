package scraper

import "github.com/use-agent/rerascrape/models"

// RunResult summarizes one collection run.
type RunResult struct {
	// Records are the accepted records, in acceptance order.
	Records []models.ProjectRecord

	// Strategy is the listing locator that produced the initial candidates.
	Strategy string

	Candidates int
	Processed  int
	Succeeded  int
	Skipped    int
	Reloads    int
}
