package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"
	"github.com/urmzd/homeagent/pkg/history"
	"github.com/urmzd/homeagent/pkg/tools"
)

const defaultHistoryLimit = 20

// catalogHandler runs a catalog tool. A failed tool is a tool error, not a
// protocol error, so the calling agent sees the message.
func (s *Server) catalogHandler(name tools.Name) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := s.tools.Invoke(ctx, string(name), request.GetArguments())
		if !res.Success {
			return mcp.NewToolResultError(res.Message), nil
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

func (s *Server) handleProcessCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := requiredString(request, "command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	obs := s.pipeline.Run(ctx, strings.TrimSpace(command))
	out := ProcessCommandOutput{
		Response:    obs.Response,
		Tier:        string(obs.Tier),
		ToolResults: obs.ToolResults,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := s.tools.Registry()
	devices := reg.List()

	if room := strings.TrimSpace(cast.ToString(request.GetArguments()["room"])); room != "" {
		matched, ok := reg.MatchRoom(room)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown room %q", room)), nil
		}
		devices = reg.ListByRoom(matched)
	}

	infos := make([]DeviceInfo, 0, len(devices))
	for i := range devices {
		infos = append(infos, DeviceToInfo(&devices[i]))
	}
	return mcp.NewToolResultText(formatJSON(ListDevicesOutput{Devices: infos, Count: len(infos)})), nil
}

func (s *Server) handleGetDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.tools.Registry().Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device %s not found", id)), nil
	}
	return mcp.NewToolResultText(formatJSON(GetDeviceOutput{Device: DeviceToInfo(d)})), nil
}

func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := defaultHistoryLimit
	if raw, ok := request.GetArguments()["limit"]; ok {
		n, err := cast.ToIntE(raw)
		if err != nil || n < 1 {
			return mcp.NewToolResultError("limit must be a positive number"), nil
		}
		limit = n
	}

	entries := s.pipeline.History().Recent(limit)
	if entries == nil {
		entries = []history.Entry{}
	}
	return mcp.NewToolResultText(formatJSON(GetHistoryOutput{Entries: entries, Count: len(entries)})), nil
}

// --- helpers ---

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
