package activitypub

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/deemkeen/trunk/util"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Responses larger than this are cut off while decoding
const maxResponseBytes = 5 * 1024 * 1024

const actorCacheSize = 256

// Actor is a resolved remote actor
type Actor struct {
	IRI    string
	Handle string // user@domain
	Name   string
	Inbox  string
	Outbox string
	Raw    map[string]any
}

// Client fetches remote actors and collections with signed requests.
// Resolved actors are kept in an LRU cache keyed by handle and IRI.
type Client struct {
	http       HTTPClient
	conf       *util.AppConfig
	keyID      string
	privateKey *rsa.PrivateKey
	actors     *lru.Cache[string, *Actor]
}

// NewClient creates a federation client signing as keyID
func NewClient(httpClient HTTPClient, conf *util.AppConfig, keyID string, privateKey *rsa.PrivateKey) (*Client, error) {
	cache, err := lru.New[string, *Actor](actorCacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:       httpClient,
		conf:       conf,
		keyID:      keyID,
		privateKey: privateKey,
		actors:     cache,
	}, nil
}

// ResolveActor resolves user@domain through webfinger and fetches the
// actor document. Cached actors skip the network entirely.
func (c *Client) ResolveActor(handle string) (*Actor, error) {
	user, domainPart, err := util.SplitHandle(handle)
	if err != nil {
		return nil, err
	}
	if ok, reason := util.IsValidWebFingerUsername(user); !ok {
		return nil, fmt.Errorf("invalid handle %q: %s", handle, reason)
	}

	cacheKey := fmt.Sprintf("%s@%s", user, domainPart)
	if actor, ok := c.actors.Get(cacheKey); ok {
		return actor, nil
	}

	webfingerURL := fmt.Sprintf("https://%s/.well-known/webfinger?resource=acct:%s",
		domainPart, url.QueryEscape(cacheKey))
	wf, err := c.fetchJSON(webfingerURL)
	if err != nil {
		return nil, fmt.Errorf("webfinger lookup for %s failed: %w", cacheKey, err)
	}

	actorIRI := selfLink(wf)
	if actorIRI == "" {
		return nil, fmt.Errorf("webfinger for %s has no self link", cacheKey)
	}

	actor, err := c.FetchActor(actorIRI)
	if err != nil {
		return nil, err
	}
	actor.Handle = cacheKey

	c.actors.Add(cacheKey, actor)
	c.actors.Add(actor.IRI, actor)
	return actor, nil
}

// FetchActor fetches an actor document by IRI
func (c *Client) FetchActor(iri string) (*Actor, error) {
	if actor, ok := c.actors.Get(iri); ok {
		return actor, nil
	}

	doc, err := c.fetchJSON(iri)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch actor %s: %w", iri, err)
	}

	actor := &Actor{
		IRI:    stringProp(doc, "id"),
		Name:   stringProp(doc, "name"),
		Inbox:  stringProp(doc, "inbox"),
		Outbox: stringProp(doc, "outbox"),
		Raw:    doc,
	}
	if actor.IRI == "" {
		actor.IRI = iri
	}
	if user := stringProp(doc, "preferredUsername"); user != "" {
		if host, err := util.HostOf(actor.IRI); err == nil {
			actor.Handle = fmt.Sprintf("%s@%s", user, host)
		}
	}

	c.actors.Add(actor.IRI, actor)
	return actor, nil
}

// fetchJSON performs a signed GET against a federation endpoint
func (c *Client) fetchJSON(rawURL string) (map[string]any, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/activity+json, application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("%s ActivityPub", util.GetNameAndVersion()))
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("Host", req.URL.Host)

	if c.privateKey != nil {
		if err := SignRequest(req, c.privateKey, c.keyID, nil); err != nil {
			return nil, err
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remote server returned status: %d", resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return doc, nil
}

// selfLink picks the activity+json self link from a webfinger document
func selfLink(wf map[string]any) string {
	links, ok := wf["links"].([]any)
	if !ok {
		return ""
	}
	for _, raw := range links {
		link, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if stringProp(link, "rel") != "self" {
			continue
		}
		mediaType := stringProp(link, "type")
		if mediaType == "application/activity+json" ||
			mediaType == `application/ld+json; profile="https://www.w3.org/ns/activitystreams"` {
			return stringProp(link, "href")
		}
	}
	log.Println("Walker: webfinger document carries links but no activity+json self")
	return ""
}
