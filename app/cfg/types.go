package cfg

type Cfg struct {
	// Storage
	DBPath string

	// Summarization service
	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	// Raindrop.io bookmarking
	RaindropToken string

	// Ingestion
	MaxConcurrentFetches int
	FetchTimeout         int // seconds, whole request
	ConnectTimeout       int // seconds
	RetentionDays        int
	BlocklistPath        string

	// Operating mode
	ImportPath string
	Refresh    bool

	// Application metadata
	UserAgent string
	LogPath   string
	Debug     bool
	Version   string
}
