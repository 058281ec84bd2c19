package service

import (
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"

	"github.com/quadapp/quad/internal/domain"
)

// FilterItem is an entry in the local filter index
type FilterItem struct {
	ID    string
	Title string // Searchable display title
	Kind  string // "event" or "club"
	Event *domain.Event
	Club  *domain.Club
}

// FilterResult is a match with metadata for highlighting
type FilterResult struct {
	FilterItem
	MatchedIndexes []int // Character positions that matched
	Score          int   // Match score (higher is better)
}

// filterIndex implements sahilm/fuzzy.Source for zero-allocation matching
type filterIndex struct {
	items       []FilterItem
	lowerTitles []string // Pre-computed lowercase titles
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *filterIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *filterIndex) Len() int { return len(idx.items) }

// FilterService provides fuzzy filtering over the mirrored catalogs. The
// index is rebuilt from each catalog snapshot; queries never touch the
// network.
type FilterService struct {
	mu    sync.RWMutex
	index *filterIndex
}

// NewFilterService creates an empty filter service
func NewFilterService() *FilterService {
	return &FilterService{index: &filterIndex{}}
}

// Reindex rebuilds the filter index from catalog snapshots
func (s *FilterService) Reindex(events []domain.Event, clubs []domain.Club) {
	idx := &filterIndex{
		items:       make([]FilterItem, 0, len(events)+len(clubs)),
		lowerTitles: make([]string, 0, len(events)+len(clubs)),
	}

	for i := range events {
		e := &events[i]
		idx.items = append(idx.items, FilterItem{ID: e.ID, Title: e.Title, Kind: "event", Event: e})
		idx.lowerTitles = append(idx.lowerTitles, strings.ToLower(e.Title))
	}
	for i := range clubs {
		c := &clubs[i]
		idx.items = append(idx.items, FilterItem{ID: c.ID, Title: c.Name, Kind: "club", Club: c})
		idx.lowerTitles = append(idx.lowerTitles, strings.ToLower(c.Name))
	}

	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()
}

// Filter returns ranked matches for query across both catalogs
func (s *FilterService) Filter(query string) []FilterResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()

	matches := sahilm.FindFrom(query, idx)

	results := make([]FilterResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, FilterResult{
			FilterItem:     idx.items[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// MatchesEvent reports whether an event title loosely matches query.
// Used for cheap per-row filtering without building result metadata.
func (s *FilterService) MatchesEvent(query string, e domain.Event) bool {
	if query == "" {
		return true
	}
	return fuzzy.MatchNormalizedFold(query, e.Title)
}

// MatchesClub reports whether a club name loosely matches query
func (s *FilterService) MatchesClub(query string, c domain.Club) bool {
	if query == "" {
		return true
	}
	return fuzzy.MatchNormalizedFold(query, c.Name)
}
