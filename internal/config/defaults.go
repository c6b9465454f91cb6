package config

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultElasticsearchHost       = "localhost"
	DefaultElasticsearchPort       = 9200
	DefaultElasticsearchScheme     = "http"
	DefaultElasticsearchMaxRetries = 3

	DefaultChunkIndex   = "course-chunks"
	DefaultCatalogIndex = "course-catalog"

	DefaultMaxResults = 5
	DefaultMaxHistory = 2

	DefaultAnthropicModel = "claude-sonnet-4-0"
	DefaultMaxRounds      = 2
	DefaultAgentTimeout   = 120 // seconds
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}
