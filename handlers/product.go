package handlers

import (
	"net/http"
	"strconv"

	"patisserie-backend/models"
	"patisserie-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProductHandler struct {
	DB *gorm.DB
}

// GetProducts lists active products for the storefront, with optional
// category filtering and pagination.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	query := h.DB.Model(&models.Product{}).Where("is_active = ?", true).Preload("Category")

	if categoryID := c.Query("category_id"); categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id"})
			return
		}
		query = query.Where("category_id = ?", id)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	query.Count(&total)

	var products []models.Product
	if err := query.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var product models.Product
	if err := h.DB.Preload("Category").Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

type productRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       float64          `json:"price" binding:"required,gt=0"`
	CategoryID  string           `json:"category_id" binding:"required"`
	Images      []string         `json:"images"`
	Variants    []models.Variant `json:"variants"`
	IsVegan     bool             `json:"is_vegan"`
	IsEggless   bool             `json:"is_eggless"`
	IsActive    *bool            `json:"is_active"`
}

func (r *productRequest) validate() (uuid.UUID, string, bool) {
	categoryID, err := uuid.Parse(r.CategoryID)
	if err != nil {
		return uuid.Nil, "Invalid category_id", false
	}
	for _, v := range r.Variants {
		if v.Price <= 0 {
			return uuid.Nil, "Variant prices must be positive", false
		}
		if v.Stock < 0 {
			return uuid.Nil, "Variant stock cannot be negative", false
		}
	}
	return categoryID, "", true
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	categoryID, msg, ok := req.validate()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	var category models.Category
	if err := h.DB.Where("id = ?", categoryID).First(&category).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	product := models.Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  categoryID,
		Images:      datatypes.NewJSONSlice(req.Images),
		Variants:    datatypes.NewJSONSlice(req.Variants),
		IsVegan:     req.IsVegan,
		IsEggless:   req.IsEggless,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	categoryID, msg, ok := req.validate()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.CategoryID = categoryID
	product.Images = datatypes.NewJSONSlice(req.Images)
	product.Variants = datatypes.NewJSONSlice(req.Variants)
	product.IsVegan = req.IsVegan
	product.IsEggless = req.IsEggless
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	if err := h.DB.Where("id = ?", id).Delete(&models.Product{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
