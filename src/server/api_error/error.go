package api_error

// JSONAPIError is the error body every endpoint returns to the
// dashboard. Code is one of the api.ErrorCode values the dashboard
// branches on, Msg is safe to show the user.
type JSONAPIError struct {
	Code         string `json:"code"`
	Msg          string `json:"msg"`
	ErrorDetails string `json:"error_details"`
}
