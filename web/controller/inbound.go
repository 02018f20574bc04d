package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/sub"
	"github.com/sorooshm/sx-ui/web/service"
)

// InboundController handles inbound and client management. Every mutation
// that can change the eligible-client set triggers a config apply and the
// response surfaces its outcome.
type InboundController struct {
	inboundService service.InboundService
	clientService  service.ClientService
	settingService service.SettingService
	linkService    sub.LinkService
	xrayService    *service.XrayService
}

// NewInboundController creates the controller and registers its routes.
func NewInboundController(g *gin.RouterGroup, xrayService *service.XrayService) *InboundController {
	ctrl := &InboundController{xrayService: xrayService}

	g.GET("/inbounds", ctrl.getInbounds)
	g.POST("/inbounds", ctrl.addInbound)
	g.PUT("/inbounds/:id", ctrl.updateInbound)
	g.DELETE("/inbounds/:id", ctrl.delInbound)

	g.GET("/inbounds/:id/clients", ctrl.getClients)
	g.POST("/inbounds/:id/clients", ctrl.addClient)
	g.PUT("/clients/:id", ctrl.updateClient)
	g.DELETE("/clients/:id", ctrl.delClient)
	g.GET("/clients/:id/qr", ctrl.getClientQR)

	return ctrl
}

func (ctrl *InboundController) getInbounds(c *gin.Context) {
	inbounds, err := ctrl.inboundService.GetInbounds()
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, inbounds)
}

func (ctrl *InboundController) addInbound(c *gin.Context) {
	inbound := &model.Inbound{}
	if err := c.ShouldBindJSON(inbound); err != nil {
		jsonBadRequest(c, err)
		return
	}

	if err := ctrl.inboundService.AddInbound(inbound); err != nil {
		jsonError(c, err)
		return
	}
	jsonApplied(c, inbound, ctrl.xrayService.Apply())
}

func (ctrl *InboundController) updateInbound(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}
	patch := &model.InboundPatch{}
	if err := c.ShouldBindJSON(patch); err != nil {
		jsonBadRequest(c, err)
		return
	}

	inbound, err := ctrl.inboundService.UpdateInbound(id, patch)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonApplied(c, inbound, ctrl.xrayService.Apply())
}

func (ctrl *InboundController) delInbound(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}

	if err := ctrl.inboundService.DelInbound(id); err != nil {
		jsonError(c, err)
		return
	}
	jsonApplied(c, id, ctrl.xrayService.Apply())
}

type clientWithLink struct {
	*model.Client
	Link string `json:"link"`
}

func (ctrl *InboundController) getClients(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}

	inbound, err := ctrl.inboundService.GetInbound(id)
	if err != nil {
		jsonError(c, err)
		return
	}
	clients, err := ctrl.clientService.GetClients(id)
	if err != nil {
		jsonError(c, err)
		return
	}

	address := resolveAddress(c, &ctrl.settingService)
	result := make([]clientWithLink, 0, len(clients))
	for _, client := range clients {
		result = append(result, clientWithLink{
			Client: client,
			Link:   ctrl.linkService.ShareLink(inbound, client, address),
		})
	}
	jsonObj(c, result)
}

type addClientRequest struct {
	Remark             string `json:"remark"`
	SubscriptionId     int    `json:"subscriptionId"`
	SubscriptionRemark string `json:"subscriptionRemark"`
}

func (ctrl *InboundController) addClient(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}
	req := &addClientRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	client, err := ctrl.clientService.AddClient(id, req.Remark, req.SubscriptionId, req.SubscriptionRemark)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonApplied(c, client, ctrl.xrayService.Apply())
}

func (ctrl *InboundController) updateClient(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}
	patch := &model.ClientPatch{}
	if err := c.ShouldBindJSON(patch); err != nil {
		jsonBadRequest(c, err)
		return
	}

	client, err := ctrl.clientService.UpdateClient(id, patch)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonApplied(c, client, ctrl.xrayService.Apply())
}

func (ctrl *InboundController) delClient(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}

	if err := ctrl.clientService.DelClient(id); err != nil {
		jsonError(c, err)
		return
	}
	jsonApplied(c, id, ctrl.xrayService.Apply())
}

func (ctrl *InboundController) getClientQR(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}

	client, err := ctrl.clientService.GetClient(id)
	if err != nil {
		jsonError(c, err)
		return
	}
	inbound, err := ctrl.inboundService.GetInbound(client.InboundId)
	if err != nil {
		jsonError(c, err)
		return
	}

	link := ctrl.linkService.ShareLink(inbound, client, resolveAddress(c, &ctrl.settingService))
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
