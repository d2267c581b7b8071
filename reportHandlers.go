package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/cabinet_inventory/middlewares"
	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/models/reports"
)

func registerReportRoutes(api *gin.RouterGroup) {
	read := middlewares.RequirePermission(models.OperationRead)

	r := api.Group("/reports", read)
	r.GET("/inventory", inventoryReportHandler)
	r.GET("/purchase-history", purchaseHistoryHandler)
	r.GET("/usage-by-job", usageByJobHandler)

	api.GET("/dashboard/stats", read, dashboardStatsHandler)
}

func queryDateRange(c *gin.Context) (reports.DateRange, error) {
	from, err := queryTime(c, "from", false)
	if err != nil {
		return reports.DateRange{}, err
	}
	to, err := queryTime(c, "to", true)
	if err != nil {
		return reports.DateRange{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return reports.DateRange{}, fmt.Errorf("%w: to is before from", models.ErrInvalidInput)
	}
	return reports.DateRange{From: from, To: to}, nil
}

func inventoryReportHandler(c *gin.Context) {
	category, err := queryCategory(c)
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := reports.GetInventoryReport(c.Request.Context(), strings.TrimSpace(c.Query("locationId")), category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": rows})
}

func purchaseHistoryHandler(c *gin.Context) {
	dateRange, err := queryDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	vendors, err := reports.GetPurchaseHistoryReport(c.Request.Context(), dateRange)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors})
}

func usageByJobHandler(c *gin.Context) {
	dateRange, err := queryDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	jobs, err := reports.GetUsageByJobReport(c.Request.Context(), dateRange)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func dashboardStatsHandler(c *gin.Context) {
	stats, err := reports.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
