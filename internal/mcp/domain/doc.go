// Package domain translates MCP tool calls into derby engine runs.
//
// Each tool pairs a schema constructor with a handler factory bound to
// the in-process derby service: typed inputs come from the MCP client,
// the service races the request, and the handler returns both a short
// text summary and the structured result.
package domain
