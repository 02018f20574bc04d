package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sorooshm/sx-ui/logger"
	"github.com/sorooshm/sx-ui/util/common"
	"github.com/sorooshm/sx-ui/web/service"
)

// ServerController exposes host status, Xray lifecycle control, the recent
// panel log buffer, and the on-demand traffic reconciliation endpoint.
type ServerController struct {
	serverService  *service.ServerService
	trafficService *service.TrafficService
	xrayService    *service.XrayService
}

// NewServerController creates the controller and registers its routes.
func NewServerController(g *gin.RouterGroup, serverService *service.ServerService,
	trafficService *service.TrafficService, xrayService *service.XrayService) *ServerController {
	ctrl := &ServerController{
		serverService:  serverService,
		trafficService: trafficService,
		xrayService:    xrayService,
	}

	g.GET("/server/status", ctrl.getStatus)
	g.GET("/server/logs", ctrl.getLogs)
	g.GET("/traffic", ctrl.getTraffic)
	g.POST("/xray/start", ctrl.startXray)
	g.POST("/xray/stop", ctrl.stopXray)
	g.POST("/xray/restart", ctrl.restartXray)

	return ctrl
}

func (ctrl *ServerController) getStatus(c *gin.Context) {
	jsonObj(c, ctrl.serverService.GetStatus())
}

func (ctrl *ServerController) getLogs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "100"))
	if err != nil || count < 1 {
		count = 100
	}
	jsonObj(c, logger.GetLogs(count))
}

// getTraffic triggers one reconciliation cycle. When the stats source is
// unavailable the last persisted counters are returned with success=false.
func (ctrl *ServerController) getTraffic(c *gin.Context) {
	result, err := ctrl.trafficService.Reconcile()
	if err != nil {
		if errors.Is(err, common.ErrStatsUnavailable) && result != nil {
			c.JSON(statusFor(err), response{Success: false, Msg: err.Error(), Obj: result})
			return
		}
		jsonError(c, err)
		return
	}
	jsonObj(c, result)
}

func (ctrl *ServerController) startXray(c *gin.Context) {
	if err := ctrl.xrayService.Process().Start(); err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, "xray started")
}

func (ctrl *ServerController) stopXray(c *gin.Context) {
	if err := ctrl.xrayService.Process().Stop(); err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, "xray stopped")
}

func (ctrl *ServerController) restartXray(c *gin.Context) {
	if err := ctrl.xrayService.Process().Restart(); err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, "xray restarted")
}
