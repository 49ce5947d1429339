package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homeagent/pkg/api/types"
	"github.com/urmzd/homeagent/pkg/tools"
)

// ToolsHandler exposes the tool catalog
type ToolsHandler struct {
	tools *tools.Set
}

// NewToolsHandler creates a new tools handler
func NewToolsHandler(set *tools.Set) *ToolsHandler {
	return &ToolsHandler{tools: set}
}

// List handles GET /tools
// @Summary      List tools
// @Tags         tools
// @Produce      json
// @Success      200  {object}  types.ToolsResponse
// @Router       /tools [get]
func (h *ToolsHandler) List(c *gin.Context) {
	catalog := tools.Catalog()
	c.JSON(http.StatusOK, types.ToolsResponse{Tools: catalog, Count: len(catalog)})
}

// Invoke handles POST /tools/:name
// @Summary      Invoke a tool
// @Description  Runs one tool with the given arguments. A failed tool is still a 200 with success=false.
// @Tags         tools
// @Accept       json
// @Produce      json
// @Param        name     path      string                   true   "Tool name"
// @Param        request  body      types.InvokeToolRequest  false  "Tool arguments"
// @Success      200      {object}  tools.Result
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Unknown tool"
// @Router       /tools/{name} [post]
func (h *ToolsHandler) Invoke(c *gin.Context) {
	name := c.Param("name")
	if _, ok := tools.Lookup(name); !ok {
		notFound(c, "Tool")
		return
	}

	var req types.InvokeToolRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, h.tools.Invoke(c.Request.Context(), name, req.Arguments))
}
