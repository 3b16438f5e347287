package research

// Config holds runtime configuration for the research engine.
type Config struct {
	LLMApiKey     string
	Model         string
	DefaultFormat string
	MaxRetries    int
}

// Request is the body of POST /research.
type Request struct {
	Topic  string `json:"topic"`
	Format string `json:"format"`
}

// Response is the envelope returned by the research service. Success reports
// application-level success; transport-level success is the HTTP status.
type Response struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}
