package blizzard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/guarzo/wowecon/internal/model"
)

// RealmInfo describes a realm and the connected-realm group hosting its
// auction house. Region is the region that actually served the lookup,
// which may differ from the caller's guess after fallback.
type RealmInfo struct {
	ID               int64
	Name             string
	Slug             string
	Region           string
	ConnectedRealmID int64
}

// ItemInfo is static item metadata.
type ItemInfo struct {
	ID            int64
	Name          string
	Quality       string
	Level         int
	PurchasePrice int64
	SellPrice     int64
}

type realmResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	ConnectedRealm struct {
		Href string `json:"href"`
	} `json:"connected_realm"`
}

type auctionsResponse struct {
	Auctions []auctionEntry `json:"auctions"`
}

type auctionEntry struct {
	Item struct {
		ID int64 `json:"id"`
	} `json:"item"`
	Buyout   int64 `json:"buyout"`
	Quantity int64 `json:"quantity"`
}

type tokenResponse struct {
	LastUpdatedTimestamp int64 `json:"last_updated_timestamp"`
	Price                int64 `json:"price"`
}

type itemResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Quality struct {
		Name string `json:"name"`
	} `json:"quality"`
	Level         int   `json:"level"`
	PurchasePrice int64 `json:"purchase_price"`
	SellPrice     int64 `json:"sell_price"`
}

// Realm looks up a realm by slug. An empty region auto-detects from the
// slug and allows one fallback to the alternate region on a 403; a
// non-empty region pins the lookup.
func (c *Client) Realm(ctx context.Context, region, slug string) (RealmInfo, error) {
	slug = strings.ToLower(slug)
	pinned := region != ""
	if !pinned {
		region = c.DetectRegion(slug)
	}

	endpoint := "/data/wow/realm/" + slug
	body, usedRegion, err := c.executeWithFallback(ctx, region, pinned, endpoint, nil)
	if err != nil {
		return RealmInfo{}, err
	}

	var payload realmResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return RealmInfo{}, fmt.Errorf("parsing realm response: %w", err)
	}

	connectedID, err := connectedRealmIDFromHref(payload.ConnectedRealm.Href)
	if err != nil {
		return RealmInfo{}, fmt.Errorf("parsing connected realm reference: %w", err)
	}

	return RealmInfo{
		ID:               payload.ID,
		Name:             payload.Name,
		Slug:             payload.Slug,
		Region:           usedRegion,
		ConnectedRealmID: connectedID,
	}, nil
}

// ConnectedRealmID resolves the connected-realm group for a realm slug.
// Returns the id and the region that served the lookup.
func (c *Client) ConnectedRealmID(ctx context.Context, region, slug string) (int64, string, error) {
	info, err := c.Realm(ctx, region, slug)
	if err != nil {
		return 0, "", err
	}
	return info.ConnectedRealmID, info.Region, nil
}

// Auctions fetches the current auction snapshot for a connected realm.
// Listings with no buyout or no quantity are dropped at the boundary.
func (c *Client) Auctions(ctx context.Context, region string, connectedRealmID int64) ([]model.AuctionListing, error) {
	endpoint := fmt.Sprintf("/data/wow/connected-realm/%d/auctions", connectedRealmID)
	body, err := c.Execute(ctx, region, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload auctionsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing auctions response: %w", err)
	}

	listings := make([]model.AuctionListing, 0, len(payload.Auctions))
	for _, entry := range payload.Auctions {
		if entry.Buyout <= 0 || entry.Quantity <= 0 {
			continue
		}
		listings = append(listings, model.AuctionListing{
			ItemID:    entry.Item.ID,
			Buyout:    entry.Buyout,
			Quantity:  entry.Quantity,
			UnitPrice: float64(entry.Buyout) / float64(entry.Quantity),
		})
	}
	return listings, nil
}

// TokenIndex fetches the region-wide game-token price.
func (c *Client) TokenIndex(ctx context.Context, region string) (model.TokenPrice, error) {
	body, err := c.Execute(ctx, region, "/data/wow/token/index", nil)
	if err != nil {
		return model.TokenPrice{}, err
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.TokenPrice{}, fmt.Errorf("parsing token response: %w", err)
	}

	return model.TokenPrice{
		Price:     payload.Price,
		UpdatedAt: time.UnixMilli(payload.LastUpdatedTimestamp),
	}, nil
}

// Item fetches static item metadata.
func (c *Client) Item(ctx context.Context, region string, itemID int64) (ItemInfo, error) {
	params := url.Values{}
	params.Set("namespace", "static")

	endpoint := fmt.Sprintf("/data/wow/item/%d", itemID)
	body, err := c.Execute(ctx, region, endpoint, params)
	if err != nil {
		return ItemInfo{}, err
	}

	var payload itemResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return ItemInfo{}, fmt.Errorf("parsing item response: %w", err)
	}

	return ItemInfo{
		ID:            payload.ID,
		Name:          payload.Name,
		Quality:       payload.Quality.Name,
		Level:         payload.Level,
		PurchasePrice: payload.PurchasePrice,
		SellPrice:     payload.SellPrice,
	}, nil
}

// connectedRealmIDFromHref extracts the trailing numeric id from a
// connected-realm href like
// https://us.api.blizzard.com/data/wow/connected-realm/60?namespace=dynamic-us.
func connectedRealmIDFromHref(href string) (int64, error) {
	if href == "" {
		return 0, fmt.Errorf("empty connected realm href")
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(path.Base(parsed.Path), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("connected realm href %q has no trailing id", href)
	}
	return id, nil
}
