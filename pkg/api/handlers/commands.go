package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homeagent/pkg/api/types"
	"github.com/urmzd/homeagent/pkg/pipeline"
)

// Assistant runs natural-language commands.
type Assistant interface {
	Run(ctx context.Context, text string) pipeline.Observation
	Snapshot() pipeline.Observation
	Memory() []pipeline.Message
}

// CommandsHandler handles the natural-language command endpoints
type CommandsHandler struct {
	assistant Assistant
}

// NewCommandsHandler creates a new commands handler
func NewCommandsHandler(a Assistant) *CommandsHandler {
	return &CommandsHandler{assistant: a}
}

func commandResponse(obs pipeline.Observation) types.CommandResponse {
	return types.CommandResponse{
		Command:     obs.Command,
		Response:    obs.Response,
		Tier:        string(obs.Tier),
		Intent:      obs.Intent,
		ToolResults: obs.ToolResults,
		Steps:       obs.Steps,
		At:          obs.At,
	}
}

// Submit handles POST /commands
// @Summary      Run a command
// @Description  Resolves a natural-language command against the home and returns the response. Failures are reported in the response text, never as HTTP errors.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        request  body      types.CommandRequest  true  "Command text"
// @Success      200      {object}  types.CommandResponse
// @Failure      400      {object}  types.ErrorResponse  "Missing command"
// @Router       /commands [post]
func (h *CommandsHandler) Submit(c *gin.Context) {
	var req types.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Command) == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "command is required",
		})
		return
	}

	obs := h.assistant.Run(c.Request.Context(), strings.TrimSpace(req.Command))
	c.JSON(http.StatusOK, commandResponse(obs))
}

// Last handles GET /commands/last
// @Summary      Last command
// @Description  Returns the observation of the most recently finished command
// @Tags         commands
// @Produce      json
// @Success      200  {object}  types.CommandResponse
// @Failure      404  {object}  types.ErrorResponse  "No command processed yet"
// @Router       /commands/last [get]
func (h *CommandsHandler) Last(c *gin.Context) {
	obs := h.assistant.Snapshot()
	if obs.At.IsZero() {
		notFound(c, "Command")
		return
	}
	c.JSON(http.StatusOK, commandResponse(obs))
}

// Memory handles GET /commands/memory
// @Summary      Conversation memory
// @Description  Returns the rolling user/assistant conversation, oldest first
// @Tags         commands
// @Produce      json
// @Success      200  {array}  pipeline.Message
// @Router       /commands/memory [get]
func (h *CommandsHandler) Memory(c *gin.Context) {
	mem := h.assistant.Memory()
	if mem == nil {
		mem = []pipeline.Message{}
	}
	c.JSON(http.StatusOK, mem)
}
