package api

// Response is the invocation result returned to the hosting trigger.
// StatusCode is 200 or 500; on failure Body carries the error description.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}
