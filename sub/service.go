package sub

import (
	"time"

	"github.com/sorooshm/sx-ui/database"
	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/util/common"
	"github.com/sorooshm/sx-ui/web/service"
)

// Bundle is a rendered subscription response.
type Bundle struct {
	// Body is the base64-encoded newline-joined link list.
	Body string
	// UserInfo is the Subscription-Userinfo header value.
	UserInfo string
	// Links are the plain entries, for the browser-facing status page.
	Links []string
	// Subscription is the resolved policy group.
	Subscription *model.Subscription
}

// SubService assembles subscription bundles from store state.
type SubService struct {
	subscriptionService service.SubscriptionService
	clientService       service.ClientService
	linkService         LinkService
}

// GetBundle resolves a subscription access token into its bundle. Unknown
// and disabled subscriptions both surface as not-found so the token leaks
// nothing about disabled groups.
func (s *SubService) GetBundle(token string, address string) (*Bundle, error) {
	sub, err := s.subscriptionService.GetSubscriptionByToken(token)
	if err != nil {
		return nil, err
	}
	if !sub.Enable {
		return nil, common.NotFoundf("subscription token %q", token)
	}

	clients, err := s.clientService.GetClientsForSubscription(sub.Id)
	if err != nil {
		return nil, err
	}

	var up, down int64
	for _, client := range clients {
		up += client.Up
		down += client.Down
	}

	links := []string{s.linkService.InfoEntry(sub, up+down, time.Now())}
	db := database.GetDB()
	for _, client := range clients {
		inbound := &model.Inbound{}
		if err := db.First(inbound, client.InboundId).Error; err != nil {
			return nil, err
		}
		links = append(links, s.linkService.ShareLink(inbound, client, address))
	}

	return &Bundle{
		Body:         s.linkService.Bundle(links),
		UserInfo:     s.linkService.UserInfoHeader(sub, up, down),
		Links:        links,
		Subscription: sub,
	}, nil
}
