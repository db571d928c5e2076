package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/roster-refiner/pkg/database"
	"github.com/arnavshah/roster-refiner/pkg/export"
	"github.com/arnavshah/roster-refiner/pkg/models"
	"github.com/arnavshah/roster-refiner/pkg/refinement"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListRuns returns the most recent stored runs
func (h *Handler) ListRuns(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	runs, err := h.Store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.log().Errorf("list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun returns one stored run with its report and iteration history
func (h *Handler) GetRun(c *gin.Context) {
	rec, res, _, ok := h.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run":       rec,
		"report":    res.Report,
		"history":   res.History,
		"blacklist": res.Blacklist,
		"unfilled":  res.Unfilled,
	})
}

// ExportCSV downloads a stored roster as CSV
func (h *Handler) ExportCSV(c *gin.Context) {
	_, res, ds, ok := h.loadRun(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, res.Schedule, ds); err != nil {
		h.log().Errorf("export csv for run %s: %v", res.RunID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not export roster"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="roster-`+res.RunID+`.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportXLSX downloads a stored roster as an Excel workbook
func (h *Handler) ExportXLSX(c *gin.Context) {
	_, res, ds, ok := h.loadRun(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, res.Schedule, ds); err != nil {
		h.log().Errorf("export xlsx for run %s: %v", res.RunID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not export roster"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="roster-`+res.RunID+`.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) loadRun(c *gin.Context) (*database.RunRecord, *refinement.Result, *models.Dataset, bool) {
	if !h.requireStore(c) {
		return nil, nil, nil, false
	}
	id := c.Param("id")
	rec, err := h.Store.GetRun(c.Request.Context(), id)
	if errors.Is(err, database.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return nil, nil, nil, false
	}
	if err != nil {
		h.log().Errorf("get run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch run"})
		return nil, nil, nil, false
	}
	res, err := rec.Result()
	if err == nil {
		var ds *models.Dataset
		if ds, err = rec.Dataset(); err == nil {
			return rec, res, ds, true
		}
	}
	h.log().Errorf("decode run %s: %v", id, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored run is unreadable"})
	return nil, nil, nil, false
}
