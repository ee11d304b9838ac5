// Package mcpserver exposes a metric engine to MCP clients over SSE.
//
// The refresh and inject tools block until the engine settles a result for
// the cycle they started, bounded by a timeout argument.
package mcpserver
