// Package mcp implements the tool-invocation protocol: a JSON-RPC shaped
// request envelope carried over HTTP POST, dispatched against a registry of
// named tools, and answered with a single server-sent-event frame.
package mcp

import "encoding/json"

// Version is the protocol version marker carried on every response.
const Version = "2.0"

// MethodCallTool is the only method the bridge recognizes.
const MethodCallTool = "callTool"

// JSON-RPC error codes. The -327xx/-326xx codes are standard JSON-RPC 2.0;
// -32000 and -32001 are server-defined.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeToolExecutionFailed = -32000
	CodeToolNotFound        = -32001
)

// Request is one decoded invocation envelope. The id is kept as raw JSON so
// it echoes back unchanged, including null and absent ids.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  *CallParams     `json:"params"`
}

// CallParams names the tool to invoke and carries its raw arguments.
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Response is the outbound envelope. Exactly one of Result or Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  *ToolResult     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToolResult carries the content blocks produced by a tool handler.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextResult wraps text in a single text content block.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func NewResultResponse(id json.RawMessage, result *ToolResult) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

func NewErrorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: message}}
}
