// Package tools exposes irename operations as callable tools.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/irename/pkg/tools/toolbox] — Tool type and ToolBox for registering, listing, and calling tools
//   - [github.com/germanamz/irename/pkg/tools/mcpserver] — MCP server using the official MCP Go SDK for exposing tools over stdio
//
// The toolbox sub-package is the foundation layer; mcpserver depends on it for
// the Tool type and is a thin wrapper around the official MCP Go SDK
// (github.com/modelcontextprotocol/go-sdk).
package tools
