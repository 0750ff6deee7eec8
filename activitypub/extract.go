package activitypub

import "github.com/deemkeen/trunk/domain"

// The extractors below tolerate absence in every form a remote server
// can produce it: a missing key, a null, a bare string where an array
// is expected, or a sub-collection without items.

func stringProp(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

func boolProp(obj map[string]any, key string) bool {
	if b, ok := obj[key].(bool); ok {
		return b
	}
	return false
}

func stringListProp(obj map[string]any, key string) []string {
	switch v := obj[key].(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Tag is a hashtag, mention or emoji reference on a remote object
type Tag struct {
	Type string
	Name string
	Href string
}

func tagListProp(obj map[string]any) []Tag {
	raw, ok := obj["tag"].([]any)
	if !ok {
		// A single tag may arrive as a bare object
		if single, ok := obj["tag"].(map[string]any); ok {
			raw = []any{single}
		} else {
			return nil
		}
	}

	var tags []Tag
	for _, item := range raw {
		tag, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tags = append(tags, Tag{
			Type: stringProp(tag, "type"),
			Name: stringProp(tag, "name"),
			Href: stringProp(tag, "href"),
		})
	}
	return tags
}

// Attachment is a media reference on a remote object
type Attachment struct {
	Type      string
	URL       string
	MediaType string
	Name      string
	Width     int
	Height    int
}

func attachmentListProp(obj map[string]any) []Attachment {
	raw, ok := obj["attachment"].([]any)
	if !ok {
		if single, ok := obj["attachment"].(map[string]any); ok {
			raw = []any{single}
		} else {
			return nil
		}
	}

	var attachments []Attachment
	for _, item := range raw {
		att, ok := item.(map[string]any)
		if !ok {
			continue
		}
		url := stringProp(att, "url")
		if url == "" {
			continue
		}
		attachments = append(attachments, Attachment{
			Type:      stringProp(att, "type"),
			URL:       url,
			MediaType: stringProp(att, "mediaType"),
			Name:      stringProp(att, "name"),
			Width:     intProp(att, "width"),
			Height:    intProp(att, "height"),
		})
	}
	return attachments
}

// subCollectionCount returns totalItems of a nested collection such as
// replies, likes or shares. Absent or malformed collections count zero.
func subCollectionCount(obj map[string]any, key string) int {
	switch v := obj[key].(type) {
	case map[string]any:
		return intProp(v, "totalItems")
	default:
		return 0
	}
}

func intProp(obj map[string]any, key string) int {
	if f, ok := obj[key].(float64); ok {
		return int(f)
	}
	return 0
}

// ActivityDocument renders a walked activity as an archive-shaped
// document. Empty optionals are omitted; a summary key that exists on
// the source object stays, even when null.
func ActivityDocument(act *RemoteActivity) *domain.Document {
	obj := domain.NewDocument().
		Set("id", stringProp(act.Object, "id")).
		Set("type", stringProp(act.Object, "type")).
		Set("published", stringProp(act.Object, "published")).
		Set("content", stringProp(act.Object, "content"))

	if _, present := act.Object["summary"]; present {
		obj.Set("summary", act.Object["summary"])
	}
	obj.SetOmitEmpty("url", stringProp(act.Object, "url"))
	obj.SetOmitEmpty("inReplyTo", stringProp(act.Object, "inReplyTo"))
	obj.SetOmitEmpty("attributedTo", stringProp(act.Object, "attributedTo"))
	if boolProp(act.Object, "sensitive") {
		obj.Set("sensitive", true)
	}

	if tags := tagListProp(act.Object); len(tags) > 0 {
		var tagDocs []*domain.Document
		for _, tag := range tags {
			tagDocs = append(tagDocs, domain.NewDocument().
				Set("type", tag.Type).
				Set("name", tag.Name).
				Set("href", tag.Href))
		}
		obj.Set("tag", tagDocs)
	}

	if attachments := attachmentListProp(act.Object); len(attachments) > 0 {
		var attDocs []*domain.Document
		for _, att := range attachments {
			doc := domain.NewDocument().
				Set("type", att.Type).
				Set("url", att.URL)
			doc.SetOmitEmpty("mediaType", att.MediaType)
			doc.SetOmitEmpty("name", att.Name)
			attDocs = append(attDocs, doc)
		}
		obj.Set("attachment", attDocs)
	}

	if replies := subCollectionCount(act.Object, "replies"); replies > 0 {
		obj.Set("replies", domain.NewDocument().Set("type", "Collection").Set("totalItems", replies))
	}

	doc := domain.NewDocument().
		Set("id", act.Id).
		Set("type", act.Type).
		Set("actor", act.ActorIRI).
		Set("published", act.Published)
	doc.SetOmitEmpty("to", act.To)
	doc.SetOmitEmpty("cc", act.CC)
	doc.Set("object", obj)
	return doc
}
