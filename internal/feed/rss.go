package feed

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"curius-feed/internal/curius"
)

// RenderRSS renders a built feed as an RSS channel for the given root
// handle and hop bound.
func RenderRSS(handle string, order int, items []curius.Content) (string, error) {
	channel := &feeds.Feed{
		Title: fmt.Sprintf("Curius - %s - %d order feed", handle, order),
		Link:  &feeds.Link{Href: "https://curius.app/" + handle},
		Description: fmt.Sprintf(
			"The curius network feed for %s and their connections within the network (distance <= %d)",
			handle, order),
		Created: time.Now(),
	}

	for _, item := range items {
		channel.Items = append(channel.Items, &feeds.Item{
			Id:          fmt.Sprintf("curius-%d", item.ID),
			Title:       item.Title,
			Link:        &feeds.Link{Href: item.Link},
			Description: itemDescription(item),
			Author:      &feeds.Author{Name: sourceDomain(item.Link)},
			Created:     parseDate(item.CreatedDate),
		})
	}
	return channel.ToRss()
}

// itemDescription lists the savers as profile links, then the snippet.
func itemDescription(item curius.Content) string {
	var b strings.Builder
	if len(item.SavedBy) > 0 {
		anchors := make([]string, len(item.SavedBy))
		for i, edge := range item.SavedBy {
			anchors[i] = fmt.Sprintf(`<a href="https://curius.app/%s">%s %s</a>`,
				edge.FollowingUser.UserLink,
				edge.FollowingUser.FirstName,
				edge.FollowingUser.LastName)
		}
		fmt.Fprintf(&b, "<p>Saved by: %s </p>", strings.Join(anchors, ", "))
	}
	if item.Snippet != nil && *item.Snippet != "" {
		fmt.Fprintf(&b, "<p>%s</p>", *item.Snippet)
	}
	return b.String()
}

// sourceDomain attributes an item to its link host, falling back to the
// raw link when it does not parse.
func sourceDomain(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	return u.Host
}

// parseDate converts the upstream's timestamp string. The value is opaque
// by contract, so a non-RFC3339 value just renders without a pubDate.
func parseDate(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
