package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stablebuilds/quoter/internal/errors"
)

// decode unmarshals tool arguments into a request struct. Malformed
// arguments are reported as INVALID_REQUEST naming the tool.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, errors.NewInvalidRequest(fmt.Sprintf("%s: arguments are not valid JSON: %v", req.Params.Name, err))
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, errors.NewInvalidRequest(fmt.Sprintf("%s: invalid arguments: %v", req.Params.Name, err))
	}
	return result, nil
}
