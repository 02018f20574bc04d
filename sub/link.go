// Package sub derives shareable connection URIs and subscription bundles
// from inbound transport settings and client identities.
package sub

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/xray"
)

// nullIdentity is the identity used by the synthetic informational entry
// prepended to subscription bundles. Client apps render its remark and never
// connect with it.
const nullIdentity = "00000000-0000-0000-0000-000000000000"

// LinkService builds connection URIs. Pure functions, no store access.
type LinkService struct{}

// ShareLink builds the connection URI for one (inbound, client, address)
// triple: protocol://identity@address:port?transport-params#remark.
func (s *LinkService) ShareLink(inbound *model.Inbound, client *model.Client, address string) string {
	params := url.Values{}
	stream := inbound.StreamSettings

	params.Set("type", stream.Network)
	params.Set("security", stream.Security)
	switch stream.Network {
	case xray.NetworkWebSocket:
		if stream.WSSettings != nil {
			params.Set("path", stream.WSSettings.Path)
			if stream.WSSettings.Host != "" {
				params.Set("host", stream.WSSettings.Host)
			}
		}
	case xray.NetworkGRPC:
		if stream.GRPCSettings != nil {
			params.Set("serviceName", stream.GRPCSettings.ServiceName)
		}
	case xray.NetworkHTTP:
		if stream.HTTPSettings != nil {
			params.Set("path", stream.HTTPSettings.Path)
		}
	}

	return fmt.Sprintf("%s://%s@%s:%d?%s#%s",
		inbound.Protocol, client.UUID, address, inbound.Port,
		params.Encode(), url.PathEscape(client.Remark))
}

// InfoEntry builds the synthetic first bundle entry whose remark shows
// remaining quota and days until expiry at a glance.
func (s *LinkService) InfoEntry(sub *model.Subscription, usage int64, now time.Time) string {
	var parts []string
	if sub.Total > 0 {
		remaining := sub.Total - usage
		if remaining < 0 {
			remaining = 0
		}
		parts = append(parts, formatTraffic(remaining)+" 📊")
	}
	if sub.ExpiryTime > 0 {
		days := (sub.ExpiryTime - now.Unix()) / 86400
		if days < 0 {
			days = 0
		}
		parts = append(parts, fmt.Sprintf("%d Days ⏳", days))
	}

	label := "♾"
	if len(parts) > 0 {
		label = strings.Join(parts, " ")
	}

	return fmt.Sprintf("vless://%s@127.0.0.1:0?security=none&type=tcp#%s",
		nullIdentity, url.PathEscape(label))
}

// Bundle joins links with newlines and base64-encodes the result as the
// subscription response body.
func (s *LinkService) Bundle(links []string) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(links, "\n")))
}

// UserInfoHeader builds the machine-readable usage header for consumers
// that parse it instead of the informational entry.
func (s *LinkService) UserInfoHeader(sub *model.Subscription, up, down int64) string {
	return fmt.Sprintf("upload=%d; download=%d; total=%d; expire=%d",
		up, down, sub.Total, sub.ExpiryTime)
}

func formatTraffic(bytes int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f%s", value, units[unit])
}
