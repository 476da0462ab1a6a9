package cfg

type Cfg struct {
	// Provider API keys
	GuardianAPIKey string
	NewsAPIKey     string
	NYTimesAPIKey  string

	// Application configuration
	DBPath            string
	SourcesDir        string
	Port              string
	BaseUrl           string
	RedisAddr         string
	CacheTTL          int
	WorkerCount       int
	SchedulerInterval int
	RequestTimeout    int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
