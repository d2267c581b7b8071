package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/cabinet_inventory/middlewares"
	"github.com/mmdatafocus/cabinet_inventory/models"
)

func registerReferenceRoutes(api *gin.RouterGroup) {
	read := middlewares.RequirePermission(models.OperationRead)

	materials := api.Group("/materials")
	materials.GET("", read, listMaterialsHandler)
	materials.GET("/:id", read, getMaterialHandler)
	materials.POST("", middlewares.RequirePermission(models.OperationManageMaterials), createMaterialHandler)
	materials.PUT("/:id", middlewares.RequirePermission(models.OperationManageMaterials), updateMaterialHandler)
	materials.DELETE("/:id", middlewares.RequirePermission(models.OperationDeleteMaterial), deleteMaterialHandler)

	locations := api.Group("/locations")
	locations.GET("", read, listLocationsHandler)
	locations.GET("/:id", read, getLocationHandler)
	locations.POST("", middlewares.RequirePermission(models.OperationManageLocations), createLocationHandler)
	locations.PUT("/:id", middlewares.RequirePermission(models.OperationManageLocations), updateLocationHandler)

	inventory := api.Group("/inventory", read)
	inventory.GET("", inventoryHandler)
	inventory.GET("/balance", balanceHandler)
}

func listMaterialsHandler(c *gin.Context) {
	category, err := queryCategory(c)
	if err != nil {
		respondError(c, err)
		return
	}
	materials, err := models.ListMaterials(c.Request.Context(), category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials})
}

func getMaterialHandler(c *gin.Context) {
	material, err := models.GetMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": material})
}

func createMaterialHandler(c *gin.Context) {
	var input models.NewMaterial
	if !bindJSON(c, &input) {
		return
	}
	material, err := models.CreateMaterial(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"material": material})
}

func updateMaterialHandler(c *gin.Context) {
	var input models.UpdateMaterialInput
	if !bindJSON(c, &input) {
		return
	}
	material, err := models.UpdateMaterial(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": material})
}

func deleteMaterialHandler(c *gin.Context) {
	material, err := models.DeleteMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": material})
}

func listLocationsHandler(c *gin.Context) {
	var filter models.LocationFilter
	if v := strings.TrimSpace(c.Query("type")); v != "" {
		t := models.LocationType(strings.ToUpper(v))
		if !t.IsValid() {
			respondError(c, fmt.Errorf("%w: invalid location type %q", models.ErrInvalidInput, v))
			return
		}
		filter.Type = &t
	}
	activeOnly, err := queryBool(c, "active")
	if err != nil {
		respondError(c, err)
		return
	}
	filter.ActiveOnly = activeOnly
	includeInventory, err := queryBool(c, "includeInventory")
	if err != nil {
		respondError(c, err)
		return
	}
	filter.IncludeInventory = includeInventory

	locations, err := models.ListLocations(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

func getLocationHandler(c *gin.Context) {
	location, err := models.GetLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": location})
}

func createLocationHandler(c *gin.Context) {
	var input models.NewLocation
	if !bindJSON(c, &input) {
		return
	}
	location, err := models.CreateLocation(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": location})
}

func updateLocationHandler(c *gin.Context) {
	var input models.UpdateLocationInput
	if !bindJSON(c, &input) {
		return
	}
	location, err := models.UpdateLocation(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": location})
}

func inventoryHandler(c *gin.Context) {
	category, err := queryCategory(c)
	if err != nil {
		respondError(c, err)
		return
	}
	lowStock, err := queryBool(c, "lowStock")
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := models.GetInventory(c.Request.Context(), models.InventoryFilter{
		LocationId: strings.TrimSpace(c.Query("locationId")),
		MaterialId: strings.TrimSpace(c.Query("materialId")),
		Category:   category,
		LowStock:   lowStock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": rows})
}

func balanceHandler(c *gin.Context) {
	materialId := strings.TrimSpace(c.Query("materialId"))
	locationId := strings.TrimSpace(c.Query("locationId"))
	if materialId == "" || locationId == "" {
		respondError(c, fmt.Errorf("%w: materialId and locationId are required", models.ErrInvalidInput))
		return
	}
	balance, err := models.GetInventoryBalance(c.Request.Context(), materialId, locationId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
