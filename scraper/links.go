package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"homesite_sync/config"
)

// FloorPlanLinks lists the plan detail pages linked from a community page.
func FloorPlanLinks(site *config.SiteConfig, html []byte) ([]string, error) {
	return collectLinks(site, html, `a[href*="/floor-plans/"]`, func(href string) bool {
		return !strings.HasSuffix(href, "/floor-plans/") && !strings.HasSuffix(href, "/floor-plans")
	})
}

// HouseLinks lists the quick move-in home pages linked from a community page.
func HouseLinks(site *config.SiteConfig, html []byte) ([]string, error) {
	return collectLinks(site, html, `a[href*="/qmis/"]`, nil)
}

func collectLinks(site *config.SiteConfig, html []byte, selector string, keep func(string) bool) ([]string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("parse community page: %w", err)
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.Contains(href, "#") {
			return
		}
		if keep != nil && !keep(href) {
			return
		}
		link := site.Absolute(href)
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links, nil
}
