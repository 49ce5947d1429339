package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homeagent/pkg/api/types"
	"github.com/urmzd/homeagent/pkg/history"
)

const defaultHistoryLimit = 50

// HistoryHandler serves the command history
type HistoryHandler struct {
	log *history.Log
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(l *history.Log) *HistoryHandler {
	return &HistoryHandler{log: l}
}

// List handles GET /history
// @Summary      Command history
// @Tags         history
// @Produce      json
// @Param        limit  query     int  false  "Most recent entries to return (default 50)"
// @Success      200    {object}  types.HistoryResponse
// @Failure      400    {object}  types.ErrorResponse  "Invalid limit"
// @Router       /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	entries := h.log.Recent(limit)
	if entries == nil {
		entries = []history.Entry{}
	}
	c.JSON(http.StatusOK, types.HistoryResponse{Entries: entries, Count: len(entries)})
}

// Patterns handles GET /history/patterns
// @Summary      Usage patterns
// @Description  Commands of the recent history bucketed by hour of day. Empty until enough history exists.
// @Tags         history
// @Produce      json
// @Success      200  {object}  types.PatternsResponse
// @Router       /history/patterns [get]
func (h *HistoryHandler) Patterns(c *gin.Context) {
	patterns := h.log.Learn()
	if patterns == nil {
		patterns = map[int][]string{}
	}
	c.JSON(http.StatusOK, types.PatternsResponse{Patterns: patterns})
}
