package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/roster-refiner/pkg/dataset"
	"github.com/arnavshah/roster-refiner/pkg/models"
)

// ValidateDataset checks a dataset without running the refinement loop
func (h *Handler) ValidateDataset(c *gin.Context) {
	var ds models.Dataset
	if err := c.ShouldBindJSON(&ds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}
	if ds.HorizonDays == 0 {
		ds.HorizonDays = h.config().HorizonDays
	}

	if len(ds.Employees) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one employee is required"})
		return
	}
	if len(ds.Stores) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one store is required"})
		return
	}
	if err := dataset.Validate(&ds); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": dataset.Summarise(&ds),
	})
}
