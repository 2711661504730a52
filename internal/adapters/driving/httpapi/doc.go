// Package httpapi exposes the chat orchestrator over HTTP.
//
// Endpoints:
//
//	POST /api/chat          {"messages":[{"role","content"}], "message": "..."} -> {"reply": "..."}
//	GET  /api/transcripts   recent answered questions (when recording is enabled)
//	GET  /healthz           liveness
//
// Errors are returned as {"error": "..."} with 400 for missing or invalid
// input, 405 for a wrong method, 502 when no reply could be generated and
// 504 when generation timed out. Provider error text is logged, never returned.
package httpapi
