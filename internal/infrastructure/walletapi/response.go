package walletapi

import "net/http"

// Response is the status code and body of a wallet store response
type Response struct {
	StatusCode int
	Body       string
}

// NewResponse ...
func NewResponse(statusCode int, body string) Response {
	return Response{statusCode, body}
}

func (r Response) IsSuccessful() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

func (r Response) GetStatusCode() int {
	return r.StatusCode
}

func (r Response) GetBody() string {
	return r.Body
}
