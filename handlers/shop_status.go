package handlers

import (
	"net/http"
	"time"

	"patisserie-backend/database"
	"patisserie-backend/shopstatus"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ShopStatusHandler struct {
	DB *gorm.DB
}

// GetShopStatus reports whether the shop currently accepts orders. A
// settings lookup failure degrades to the default-open status with a
// warning marker instead of failing the request, so a transient
// database issue never blocks browsing.
func (h *ShopStatusHandler) GetShopStatus(c *gin.Context) {
	now := time.Now()

	settings, err := database.EnsureTimeSettings(h.DB)
	if err != nil {
		logrus.WithError(err).Warn("shop settings unavailable, serving default-open status")
		c.JSON(http.StatusOK, statusResponse(shopstatus.DefaultStatus(now), true))
		return
	}

	st, err := shopstatus.Calculate(settings, now)
	if err != nil {
		logrus.WithError(err).Warn("shop status calculation failed, serving default-open status")
		c.JSON(http.StatusOK, statusResponse(shopstatus.DefaultStatus(now), true))
		return
	}

	c.JSON(http.StatusOK, statusResponse(st, false))
}

func statusResponse(st shopstatus.Status, degraded bool) gin.H {
	resp := gin.H{
		"is_open":         st.IsOpen,
		"current_time":    st.CurrentTime,
		"timezone":        st.Timezone,
		"operating_hours": st.OperatingHours,
		"message":         st.Message,
	}
	if st.NextOpenTime != nil {
		resp["next_open_time"] = st.NextOpenTime
	}
	if st.ClosingTime != nil {
		resp["closing_time"] = st.ClosingTime
	}
	if degraded {
		resp["degraded"] = true
	}
	return resp
}
