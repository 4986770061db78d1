package handlers

import (
	"net/http"
	"time"

	"patisserie-backend/database"
	"patisserie-backend/models"
	"patisserie-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SettingsHandler manages the singleton shop-hours configuration.
type SettingsHandler struct {
	DB *gorm.DB
}

func (h *SettingsHandler) GetTimeSettings(c *gin.Context) {
	settings, err := database.EnsureTimeSettings(h.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) UpdateTimeSettings(c *gin.Context) {
	var req struct {
		Weekday      models.DaySchedule   `json:"weekday" binding:"required"`
		Weekend      models.DaySchedule   `json:"weekend" binding:"required"`
		Timezone     string               `json:"timezone" binding:"required"`
		SpecialDays  []models.SpecialDay  `json:"special_days"`
		PauseWindows []models.PauseWindow `json:"pause_windows"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if msg, ok := validateTimeSettings(req.Weekday, req.Weekend, req.Timezone, req.SpecialDays, req.PauseWindows); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	settings, err := database.EnsureTimeSettings(h.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}

	settings.Weekday = req.Weekday
	settings.Weekend = req.Weekend
	settings.Timezone = req.Timezone
	settings.SpecialDays = req.SpecialDays
	settings.PauseWindows = req.PauseWindows

	if err := h.DB.Save(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func validateTimeSettings(weekday, weekend models.DaySchedule, timezone string, specials []models.SpecialDay, pauses []models.PauseWindow) (string, bool) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return "Invalid timezone", false
	}
	for _, s := range []models.DaySchedule{weekday, weekend} {
		if !utils.IsHHMM(s.StartTime) || !utils.IsHHMM(s.EndTime) {
			return "Schedule times must be HH:MM", false
		}
	}
	for _, sp := range specials {
		if _, err := time.Parse("2006-01-02", sp.Date); err != nil {
			return "Special day dates must be YYYY-MM-DD", false
		}
		if !sp.IsClosed {
			if sp.StartTime != "" && !utils.IsHHMM(sp.StartTime) {
				return "Special day times must be HH:MM", false
			}
			if sp.EndTime != "" && !utils.IsHHMM(sp.EndTime) {
				return "Special day times must be HH:MM", false
			}
		}
	}
	for _, p := range pauses {
		if !utils.IsHHMM(p.StartTime) || !utils.IsHHMM(p.EndTime) {
			return "Pause window times must be HH:MM", false
		}
	}
	return "", true
}
