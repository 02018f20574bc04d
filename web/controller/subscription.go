package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/web/service"
)

// SubscriptionController manages quota/expiry policy groups.
type SubscriptionController struct {
	subscriptionService service.SubscriptionService
	xrayService         *service.XrayService
}

// NewSubscriptionController creates the controller and registers its routes.
func NewSubscriptionController(g *gin.RouterGroup, xrayService *service.XrayService) *SubscriptionController {
	ctrl := &SubscriptionController{xrayService: xrayService}

	g.GET("/subscriptions", ctrl.getSubscriptions)
	g.POST("/subscriptions", ctrl.addSubscription)
	g.PUT("/subscriptions/:id", ctrl.updateSubscription)
	g.DELETE("/subscriptions/:id", ctrl.delSubscription)
	g.GET("/subscriptions/:id/usage", ctrl.getUsage)

	return ctrl
}

func (ctrl *SubscriptionController) getSubscriptions(c *gin.Context) {
	subs, err := ctrl.subscriptionService.GetSubscriptions()
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, subs)
}

func (ctrl *SubscriptionController) addSubscription(c *gin.Context) {
	sub := &model.Subscription{Enable: true}
	if err := c.ShouldBindJSON(sub); err != nil {
		jsonBadRequest(c, err)
		return
	}

	if err := ctrl.subscriptionService.AddSubscription(sub); err != nil {
		jsonError(c, err)
		return
	}
	// A fresh subscription has no clients yet, so the eligible set is
	// unchanged; no apply needed.
	jsonObj(c, sub)
}

func (ctrl *SubscriptionController) updateSubscription(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}
	patch := &model.SubscriptionPatch{}
	if err := c.ShouldBindJSON(patch); err != nil {
		jsonBadRequest(c, err)
		return
	}

	sub, err := ctrl.subscriptionService.UpdateSubscription(id, patch)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonApplied(c, sub, ctrl.xrayService.Apply())
}

func (ctrl *SubscriptionController) delSubscription(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}

	if err := ctrl.subscriptionService.DelSubscription(id); err != nil {
		jsonError(c, err)
		return
	}
	// Deletion is only allowed with zero clients, so no apply needed.
	jsonObj(c, id)
}

func (ctrl *SubscriptionController) getUsage(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		jsonBadRequest(c, err)
		return
	}

	if _, err := ctrl.subscriptionService.GetSubscription(id); err != nil {
		jsonError(c, err)
		return
	}
	usage, err := ctrl.subscriptionService.GetUsage(id)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, gin.H{"usage": usage})
}
