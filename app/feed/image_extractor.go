package feed

import (
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
)

var imgTagPattern = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)

// ExtractImageURL extracts the best candidate image URL from a feed entry.
// Priority: media:content > media:thumbnail > image enclosure > first <img>
// tag in the content body > first <img> tag in the description. Structured
// metadata is preferred over HTML scraping; the ordering must stay fixed.
// Returns "" when no candidate is found.
func ExtractImageURL(item *gofeed.Item) string {
	if mediaExt, ok := item.Extensions["media"]; ok {
		if contents, ok := mediaExt["content"]; ok {
			for _, content := range contents {
				if u := content.Attrs["url"]; u != "" {
					return u
				}
			}
		}

		if thumbnails, ok := mediaExt["thumbnail"]; ok {
			for _, thumb := range thumbnails {
				if u := thumb.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if strings.HasPrefix(enclosure.Type, "image/") && enclosure.URL != "" {
			return enclosure.URL
		}
	}

	if u := firstImgSrc(item.Content); u != "" {
		return u
	}

	return firstImgSrc(item.Description)
}

func firstImgSrc(html string) string {
	if html == "" {
		return ""
	}
	match := imgTagPattern.FindStringSubmatch(html)
	if match == nil {
		return ""
	}
	return match[1]
}
