package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	synclogdomain "github.com/smallbiznis/taxbridge/internal/synclog/domain"
)

func (s *Server) ListSyncLogs(c *gin.Context) {
	var query struct {
		Kind      string `form:"kind"`
		Status    string `form:"status"`
		PageToken string `form:"page_token"`
		PageSize  int    `form:"page_size,default=50"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.logs.List(c.Request.Context(), synclogdomain.ListRequest{
		Kind:      strings.TrimSpace(query.Kind),
		Status:    strings.TrimSpace(query.Status),
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExportSyncLogs(c *gin.Context) {
	var query struct {
		Kind   string `form:"kind"`
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	data, err := s.logs.ExportCSV(c.Request.Context(), synclogdomain.ListFilter{
		Kind:   strings.TrimSpace(query.Kind),
		Status: strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := "sync-logs-" + time.Now().UTC().Format("20060102-150405") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}
