package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/web/service"
)

// SettingController reads and updates the panel Setting singleton.
type SettingController struct {
	settingService service.SettingService
}

// NewSettingController creates the controller and registers its routes.
func NewSettingController(g *gin.RouterGroup) *SettingController {
	ctrl := &SettingController{}

	g.GET("/panel/settings", ctrl.getSettings)
	g.POST("/panel/settings", ctrl.updateSettings)

	return ctrl
}

func (ctrl *SettingController) getSettings(c *gin.Context) {
	settings, err := ctrl.settingService.GetSettings()
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, settings)
}

func (ctrl *SettingController) updateSettings(c *gin.Context) {
	patch := &model.SettingPatch{}
	if err := c.ShouldBindJSON(patch); err != nil {
		jsonBadRequest(c, err)
		return
	}

	settings, err := ctrl.settingService.UpdateSettings(patch)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, settings)
}
