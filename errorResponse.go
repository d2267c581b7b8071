package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/cabinet_inventory/models"
)

var kindStatus = map[models.ErrorKind]int{
	models.KindNotFound:                  http.StatusNotFound,
	models.KindInvalidInput:              http.StatusBadRequest,
	models.KindInsufficientInventory:     http.StatusConflict,
	models.KindNegativeInventoryRejected: http.StatusConflict,
	models.KindNoShopLocation:            http.StatusConflict,
	models.KindReferentialConflict:       http.StatusConflict,
	models.KindUnauthenticated:           http.StatusUnauthorized,
	models.KindForbidden:                 http.StatusForbidden,
}

// respondError writes {"error", "code"} for err. Stock rejections also carry the balances involved.
func respondError(c *gin.Context, err error) {
	kind := models.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := gin.H{"error": err.Error(), "code": kind}
	var insufficient *models.InsufficientInventoryError
	var negative *models.NegativeInventoryError
	switch {
	case errors.As(err, &insufficient):
		body["currentBalance"] = insufficient.Available
		body["requested"] = insufficient.Requested
		body["locationId"] = insufficient.LocationId
	case errors.As(err, &negative):
		body["currentBalance"] = negative.Current
		body["requested"] = negative.Delta
		body["locationId"] = negative.LocationId
	case status == http.StatusInternalServerError:
		_ = c.Error(err)
		body["error"] = "internal server error"
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the request body. A quantity that is not an integer is reported
// as an invalid quantity rather than a generic decode failure.
func bindJSON(c *gin.Context, dest any) bool {
	err := c.ShouldBindJSON(dest)
	if err == nil {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case "quantity":
			respondError(c, models.ErrInvalidQuantity)
			return false
		case "quantityDelta":
			respondError(c, models.ErrInvalidDelta)
			return false
		}
	}
	respondError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
	return false
}

func queryCategory(c *gin.Context) (*models.MaterialCategory, error) {
	v := strings.TrimSpace(c.Query("category"))
	if v == "" {
		return nil, nil
	}
	category := models.MaterialCategory(v)
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: invalid category %q", models.ErrInvalidInput, v)
	}
	return &category, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", models.ErrInvalidInput, key)
	}
	return b, nil
}

// queryTime accepts RFC3339 or a plain date. A plain date used as an upper bound covers the whole day.
func queryTime(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a date", models.ErrInvalidInput, key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
