package middleware

import (
	"net/http"

	"github.com/healthhive/server/internal/api/problem"
)

func writeTooLarge(w http.ResponseWriter, r *http.Request) {
	problem.WriteProblem(w, problem.ProblemDetails{
		Type:      problem.TypeTooLarge,
		Title:     "Payload too large",
		Status:    http.StatusRequestEntityTooLarge,
		Detail:    "request body exceeds the allowed size",
		Instance:  r.URL.Path,
		RequestID: GetRequestID(r.Context()),
	})
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	problem.WriteProblem(w, problem.ProblemDetails{
		Type:      problem.TypeRateLimited,
		Title:     "Too many requests",
		Status:    http.StatusTooManyRequests,
		Detail:    "rate limit exceeded, retry later",
		Instance:  r.URL.Path,
		RequestID: GetRequestID(r.Context()),
	})
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="healthhive"`)
	problem.WriteProblem(w, problem.ProblemDetails{
		Type:      problem.TypeUnauthorized,
		Title:     "Unauthorized",
		Status:    http.StatusUnauthorized,
		Detail:    detail,
		Instance:  r.URL.Path,
		RequestID: GetRequestID(r.Context()),
	})
}
