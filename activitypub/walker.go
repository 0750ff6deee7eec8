package activitypub

import (
	"fmt"
	"log"

	"github.com/deemkeen/trunk/domain"
)

// Hard caps against hostile or runaway collections
const (
	maxCollectionPages = 50
	maxCollectionItems = 1000
)

var activityTypes = map[string]bool{
	"Create":   true,
	"Announce": true,
	"Update":   true,
	"Question": true,
}

// RemoteActivity is one usable activity pulled out of a remote outbox
type RemoteActivity struct {
	Id        string
	Type      string
	ActorIRI  string
	Published string
	To        []string
	CC        []string
	Object    map[string]any
}

// WalkOutbox pages through an actor's outbox and returns the
// activities that carry a resolvable object. Non-activity items and
// items whose object cannot be fetched are dropped with a log line,
// never an error; only a completely unreachable collection fails.
func (c *Client) WalkOutbox(actor *Actor) ([]RemoteActivity, error) {
	if actor.Outbox == "" {
		return nil, fmt.Errorf("%w: actor %s has no outbox", domain.ErrCollectionUnavailable, actor.IRI)
	}

	collection, err := c.fetchJSON(actor.Outbox)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCollectionUnavailable, err)
	}

	var activities []RemoteActivity
	pages := 0

	items, ok := collection["orderedItems"].([]any)
	if ok {
		activities = c.appendActivities(activities, items)
	} else {
		// Paged collection: follow first, then next until exhausted
		pageURL := stringProp(collection, "first")
		if first, ok := collection["first"].(map[string]any); ok {
			// Some servers inline the first page
			activities = c.appendActivities(activities, itemsOf(first))
			pageURL = stringProp(first, "next")
			pages++
		}

		for pageURL != "" && pages < maxCollectionPages && len(activities) < maxCollectionItems {
			page, err := c.fetchJSON(pageURL)
			if err != nil {
				log.Printf("Walker: giving up on page %s: %v", pageURL, err)
				break
			}
			activities = c.appendActivities(activities, itemsOf(page))
			next := stringProp(page, "next")
			if next == pageURL {
				break
			}
			pageURL = next
			pages++
		}
	}

	if len(activities) > maxCollectionItems {
		activities = activities[:maxCollectionItems]
	}

	log.Printf("Walker: collected %d activities from %s", len(activities), actor.Outbox)
	return activities, nil
}

func (c *Client) appendActivities(activities []RemoteActivity, items []any) []RemoteActivity {
	for _, raw := range items {
		if len(activities) >= maxCollectionItems {
			break
		}
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		activityType := stringProp(item, "type")
		if !activityTypes[activityType] {
			// Likes, follows and friends have no place in an outbox capture
			continue
		}

		object, ok := c.resolveObject(item["object"])
		if !ok {
			log.Printf("Walker: skipping %s %s, object unresolvable", activityType, stringProp(item, "id"))
			continue
		}

		activities = append(activities, RemoteActivity{
			Id:        stringProp(item, "id"),
			Type:      activityType,
			ActorIRI:  stringProp(item, "actor"),
			Published: stringProp(item, "published"),
			To:        stringListProp(item, "to"),
			CC:        stringListProp(item, "cc"),
			Object:    object,
		})
	}
	return activities
}

// resolveObject turns the object field into a map, fetching it when
// the activity only carries a reference
func (c *Client) resolveObject(raw any) (map[string]any, bool) {
	switch obj := raw.(type) {
	case map[string]any:
		return obj, true
	case string:
		doc, err := c.fetchJSON(obj)
		if err != nil {
			return nil, false
		}
		return doc, true
	default:
		return nil, false
	}
}

func itemsOf(page map[string]any) []any {
	if items, ok := page["orderedItems"].([]any); ok {
		return items
	}
	if items, ok := page["items"].([]any); ok {
		return items
	}
	return nil
}
