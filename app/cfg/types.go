package cfg

type Cfg struct {
	// Storage configuration
	DBPath    string
	ImagesDir string

	// Application configuration
	FeedsFile       string
	Port            string
	WorkerCount     int
	RefreshInterval int
	FetchTimeout    int

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
