package feed

// Feed source categories. The set is open: unrecognized values flow through
// and resolve to the default placeholder image downstream.
const (
	CategoryGeneral       = "general"
	CategorySports        = "sports"
	CategoryEntertainment = "entertainment"
)

// Source is a single configured feed endpoint with its assigned category.
type Source struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// Draft is an article assembled from a feed entry, not yet persisted.
type Draft struct {
	Title         string
	Description   string
	Link          string
	PublishedDate string // feed-supplied string, ingestion time when absent
	Source        string
	Category      string

	ImageURL       string // candidate image URL from the entry, "" when none
	LocalImagePath string // cache or placeholder reference, set during ingestion
}
