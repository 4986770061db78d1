package handlers

import (
	"net/http"

	"patisserie-backend/models"
	"patisserie-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BannerHandler struct {
	DB *gorm.DB
}

func (h *BannerHandler) GetBanners(c *gin.Context) {
	var banners []models.Banner
	if err := h.DB.Where("is_active = ?", true).Order("sort_order asc").Find(&banners).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch banners"})
		return
	}
	c.JSON(http.StatusOK, banners)
}

type bannerRequest struct {
	Title     string `json:"title" binding:"required"`
	Image     string `json:"image" binding:"required"`
	Link      string `json:"link"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

func (h *BannerHandler) CreateBanner(c *gin.Context) {
	var req bannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	banner := models.Banner{
		ID:        uuid.New(),
		Title:     req.Title,
		Image:     req.Image,
		Link:      req.Link,
		SortOrder: req.SortOrder,
		IsActive:  true,
	}
	if req.IsActive != nil {
		banner.IsActive = *req.IsActive
	}

	if err := h.DB.Create(&banner).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create banner"})
		return
	}
	c.JSON(http.StatusCreated, banner)
}

func (h *BannerHandler) UpdateBanner(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid banner id"})
		return
	}

	var banner models.Banner
	if err := h.DB.Where("id = ?", id).First(&banner).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Banner not found"})
		return
	}

	var req bannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	banner.Title = req.Title
	banner.Image = req.Image
	banner.Link = req.Link
	banner.SortOrder = req.SortOrder
	if req.IsActive != nil {
		banner.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&banner).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update banner"})
		return
	}
	c.JSON(http.StatusOK, banner)
}

func (h *BannerHandler) DeleteBanner(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid banner id"})
		return
	}

	if err := h.DB.Where("id = ?", id).Delete(&models.Banner{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete banner"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Banner deleted"})
}
