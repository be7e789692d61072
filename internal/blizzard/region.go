package blizzard

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// euRealms lists realm slugs known to live on the EU partition. Realms
// not listed here resolve to the client's configured region.
var euRealms = map[string]bool{
	"tarren-mill":        true,
	"draenor":            true,
	"kazzak":             true,
	"argent-dawn":        true,
	"silvermoon":         true,
	"stormrage-eu":       true,
	"ragnaros-eu":        true,
	"twisting-nether":    true,
	"outland":            true,
	"frostmane":          true,
	"ravencrest":         true,
	"chamber-of-aspects": true,
	"defias-brotherhood": true,
}

// DetectRegion guesses the region hosting a realm slug, falling back to
// the client's configured region when the slug is unknown.
func (c *Client) DetectRegion(realmSlug string) string {
	if euRealms[strings.ToLower(realmSlug)] {
		return "eu"
	}
	return c.region
}

func alternateRegion(region string) string {
	if region == "eu" {
		return "us"
	}
	return "eu"
}

// executeWithFallback runs a request and, when the caller did not pin a
// region and the request comes back forbidden, retries once on the
// alternate region. Realm slugs shared across regions trip 403s when
// the guess is wrong. Returns the region that actually served the
// response; if both regions fail, the first error stands.
func (c *Client) executeWithFallback(ctx context.Context, region string, pinned bool, endpoint string, params url.Values) ([]byte, string, error) {
	body, err := c.Execute(ctx, region, endpoint, params)
	if err == nil {
		return body, region, nil
	}

	var forbidden *ForbiddenError
	if pinned || !errors.As(err, &forbidden) {
		return nil, region, err
	}

	alternate := alternateRegion(region)
	c.logger.Warn("forbidden in detected region, retrying on alternate",
		"endpoint", endpoint, "region", region, "alternate", alternate)

	body, altErr := c.Execute(ctx, alternate, endpoint, params)
	if altErr != nil {
		return nil, region, err
	}
	return body, alternate, nil
}
