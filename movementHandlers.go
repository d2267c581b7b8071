package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/cabinet_inventory/middlewares"
	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/workflow"
	"github.com/sirupsen/logrus"
)

const maxHistoryLimit = 500

func registerMovementRoutes(api *gin.RouterGroup, logger *logrus.Logger) {
	tx := api.Group("/transactions")
	tx.POST("/receive", middlewares.RequirePermission(models.OperationReceive), receiveHandler)
	tx.POST("/transfer", middlewares.RequirePermission(models.OperationTransfer), transferHandler)
	tx.POST("/issue", middlewares.RequirePermission(models.OperationIssue), issueHandler)
	tx.POST("/adjustment", middlewares.RequirePermission(models.OperationAdjust), adjustHandler)
	tx.GET("/history", middlewares.RequirePermission(models.OperationRead), historyHandler)
	tx.GET("/:id", middlewares.RequirePermission(models.OperationRead), transactionHandler)

	admin := api.Group("/admin", middlewares.RequirePermission(models.OperationRebuildTotals))
	admin.POST("/rebuild-totals", rebuildTotalsHandler(logger))
	admin.GET("/verify-totals", verifyTotalsHandler(logger))
}

func receiveHandler(c *gin.Context) {
	var input models.ReceiveInput
	if !bindJSON(c, &input) {
		return
	}
	record, err := models.Receive(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": record})
}

func transferHandler(c *gin.Context) {
	var input models.TransferInput
	if !bindJSON(c, &input) {
		return
	}
	record, err := models.Transfer(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": record})
}

func issueHandler(c *gin.Context) {
	var input models.IssueInput
	if !bindJSON(c, &input) {
		return
	}
	record, err := models.Issue(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": record})
}

func adjustHandler(c *gin.Context) {
	var input models.AdjustInput
	if !bindJSON(c, &input) {
		return
	}
	record, err := models.Adjust(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": record})
}

func historyHandler(c *gin.Context) {
	filter := models.TransactionHistoryFilter{
		MaterialId: strings.TrimSpace(c.Query("materialId")),
		LocationId: strings.TrimSpace(c.Query("locationId")),
	}
	if v := strings.TrimSpace(c.Query("type")); v != "" {
		t := models.TransactionType(strings.ToUpper(v))
		if !t.IsValid() {
			respondError(c, fmt.Errorf("%w: invalid transaction type %q", models.ErrInvalidInput, v))
			return
		}
		filter.Type = &t
	}
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(c, fmt.Errorf("%w: limit must be a non-negative integer", models.ErrInvalidInput))
			return
		}
		filter.Limit = min(n, maxHistoryLimit)
	}

	rows, err := models.GetTransactionHistory(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": rows})
}

func transactionHandler(c *gin.Context) {
	record, err := models.GetTransactionRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": record})
}

func rebuildTotalsHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := workflow.RebuildTotals(c.Request.Context(), logger)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func verifyTotalsHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := workflow.VerifyTotals(c.Request.Context(), logger)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
