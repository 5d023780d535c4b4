package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"homesite_sync/config"
)

// CommsResponse is the payload of the site's comms endpoint for a state
// slug or an area path.
type CommsResponse struct {
	MetaData      MetaData        `json:"MetaData"`
	CommunityData []CommunityData `json:"CommunityData"`
}

type MetaData struct {
	AreaInfoData *AreaInfoData `json:"AreaInfoData"`
	RteData      *RteData      `json:"RteData"`
}

type AreaInfoData struct {
	Name            string `json:"Name"`
	Title           string `json:"Title"`
	URL             string `json:"Url"`
	ItemPath        string `json:"ItemPath"`
	OwningTeam      string `json:"OwningTeam"`
	Breadcrumb      string `json:"Breadcrumb"`
	Latitude        Number `json:"Latitude"`
	Longitude       Number `json:"Longitude"`
	Radius          Number `json:"Radius"`
	ZoomLevel       Number `json:"ZoomLevel"`
	AreaInfoContent string `json:"AreaInfoContent"`
}

type RteData struct {
	Status    string `json:"Status"`
	CountDown string `json:"CountDown"`
}

type CommunityData struct {
	Name           string   `json:"commName"`
	Address        string   `json:"commAddress"`
	Brand          string   `json:"commBrand"`
	PageLink       string   `json:"commPageLink"`
	ImageLink      string   `json:"commImageLink"`
	SellingStatus  string   `json:"commSellingStatus"`
	AvailableHomes Number   `json:"commAvailableHomes"`
	MinBeds        Number   `json:"commMinBeds"`
	MaxBeds        Number   `json:"commMaxBeds"`
	MinBaths       Number   `json:"commMinBaths"`
	MaxBaths       Number   `json:"commMaxBaths"`
	MinCars        Number   `json:"commMinCars"`
	MaxCars        Number   `json:"commMaxCars"`
	MinStories     Number   `json:"commMinStories"`
	MaxStories     Number   `json:"commMaxStories"`
	MinSqft        Number   `json:"commMinSqft"`
	MaxSqft        Number   `json:"commMaxSqft"`
	MinPrice       Number   `json:"commMinPrice"`
	MaxPrice       Number   `json:"commMaxPrice"`
	CallForPrice   Flag     `json:"commCallForPrice"`
	Amenities      []string `json:"commAmenitiesList"`
	PropertyType   string   `json:"commPropertyType"`
}

// AreaLink is one market entry from the homepage footer.
type AreaLink struct {
	Href string
	Name string
}

// CommsClient reads the builder site's JSON endpoint and homepage.
type CommsClient struct {
	site    *config.SiteConfig
	fetcher Fetcher
}

func NewCommsClient(site *config.SiteConfig, fetcher Fetcher) *CommsClient {
	return &CommsClient{site: site, fetcher: fetcher}
}

func (c *CommsClient) State(ctx context.Context, slug string) (*CommsResponse, error) {
	return c.comms(ctx, slug)
}

func (c *CommsClient) Area(ctx context.Context, path string) (*CommsResponse, error) {
	return c.comms(ctx, path)
}

func (c *CommsClient) comms(ctx context.Context, path string) (*CommsResponse, error) {
	body, err := c.fetcher.Fetch(ctx, c.site.APIURL(path))
	if err != nil {
		return nil, err
	}
	return ParseComms(body)
}

// ParseComms decodes a comms payload.
func ParseComms(body []byte) (*CommsResponse, error) {
	var resp CommsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode comms response: %w", err)
	}
	return &resp, nil
}

// AreaLinks lists the market links in the homepage footer.
func (c *CommsClient) AreaLinks(ctx context.Context) ([]AreaLink, error) {
	body, err := c.fetcher.Fetch(ctx, c.site.BaseURL)
	if err != nil {
		return nil, err
	}
	return ParseAreaLinks(body)
}

func ParseAreaLinks(html []byte) ([]AreaLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}

	var links []AreaLink
	doc.Find("a.market-footer-item").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		name := strings.TrimSpace(s.Text())
		if href != "" && name != "" {
			links = append(links, AreaLink{Href: href, Name: name})
		}
	})
	return links, nil
}
