package exporter

import (
	"fmt"
	"time"

	"github.com/deemkeen/trunk/domain"
	"github.com/deemkeen/trunk/util"
)

const activityStreamsContext = "https://www.w3.org/ns/activitystreams"
const publicAudience = "https://www.w3.org/ns/activitystreams#Public"

// The serializers are pure: rows in, archive documents out. Optionals
// that were never set are omitted; business-nullable values (summary,
// approved, duration) are written as explicit nulls.

func serializeAccount(acc *domain.Account, owner *domain.AccountOwner, base string) *domain.Document {
	user := acc.Handle
	if u, _, err := util.SplitHandle(acc.Handle); err == nil {
		user = u
	}

	doc := domain.NewDocument().
		Set("@context", activityStreamsContext).
		Set("id", acc.IRI).
		Set("type", "Person").
		Set("preferredUsername", user).
		Set("name", acc.DisplayName).
		Set("summary", acc.Bio).
		Set("published", fmtRFC3339(acc.Published)).
		Set("manuallyApprovesFollowers", acc.Protected)

	doc.SetOmitEmpty("url", util.NormalizeURL(base, acc.IRI))

	if acc.AvatarURL != "" {
		doc.Set("icon", domain.NewDocument().
			Set("type", "Image").
			Set("url", util.NormalizeURL(base, acc.AvatarURL)))
	}
	if acc.CoverURL != "" {
		doc.Set("image", domain.NewDocument().
			Set("type", "Image").
			Set("url", util.NormalizeURL(base, acc.CoverURL)))
	}

	if len(acc.FieldHtmls) > 0 {
		var fields []*domain.Document
		for name, value := range acc.FieldHtmls {
			fields = append(fields, domain.NewDocument().
				Set("type", "PropertyValue").
				Set("name", name).
				Set("value", value))
		}
		doc.Set("attachment", fields)
	}

	doc.Set("followersCount", acc.FollowersCount)
	doc.Set("followingCount", acc.FollowingCount)
	doc.Set("postsCount", acc.PostsCount)

	if owner != nil {
		settings := domain.NewDocument().
			Set("language", owner.Language).
			Set("visibility", owner.Visibility).
			Set("discoverable", owner.DiscoverableByDefault)
		settings.SetOmitEmpty("followedTags", owner.FollowedTags)
		doc.Set("ownerSettings", settings)
	}

	return doc
}

// serializePost renders a post as a Create activity wrapping the note
func serializePost(post *domain.Post, media []domain.MediaAttachment, accountIRI, base string) *domain.Document {
	noteURL := post.URL
	if noteURL == "" {
		noteURL = fmt.Sprintf("%s/posts/%s", base, post.Id)
	}

	note := domain.NewDocument().
		Set("id", post.IRI).
		Set("type", post.Type).
		Set("attributedTo", accountIRI).
		Set("published", fmtRFC3339(post.Published)).
		Set("content", post.ContentHtml).
		Set("url", util.NormalizeURL(base, noteURL))

	if post.Summary != nil {
		note.Set("summary", *post.Summary)
	} else {
		note.Set("summary", nil)
	}

	note.SetOmitEmpty("contentMap", contentMap(post))
	if post.ReplyTargetId != nil {
		note.Set("inReplyTo", fmt.Sprintf("%s/posts/%s", base, *post.ReplyTargetId))
	}
	if post.Sensitive {
		note.Set("sensitive", true)
	}

	if len(media) > 0 {
		var attachments []*domain.Document
		for _, m := range media {
			att := domain.NewDocument().
				Set("type", m.Type).
				Set("url", util.NormalizeURL(base, m.URL))
			att.SetOmitEmpty("mediaType", m.ContentType)
			att.SetOmitEmpty("name", m.Description)
			if m.Width > 0 {
				att.Set("width", m.Width)
			}
			if m.Height > 0 {
				att.Set("height", m.Height)
			}
			attachments = append(attachments, att)
		}
		note.Set("attachment", attachments)
	}

	note.Set("replies", countCollection(post.RepliesCount))
	note.Set("shares", countCollection(post.SharesCount))
	note.Set("likes", countCollection(post.LikesCount))

	activity := domain.NewDocument().
		Set("id", post.IRI+"#activity").
		Set("type", "Create").
		Set("actor", accountIRI).
		Set("published", fmtRFC3339(post.Published))

	to, cc := audience(post.Visibility, accountIRI)
	activity.SetOmitEmpty("to", to)
	activity.SetOmitEmpty("cc", cc)
	activity.Set("object", note)
	return activity
}

func contentMap(post *domain.Post) map[string]string {
	if post.Language == "" {
		return nil
	}
	return map[string]string{post.Language: post.ContentHtml}
}

func countCollection(total int) *domain.Document {
	return domain.NewDocument().
		Set("type", "Collection").
		Set("totalItems", total)
}

func audience(visibility, accountIRI string) ([]string, []string) {
	followers := accountIRI + "/followers"
	switch visibility {
	case "unlisted":
		return []string{followers}, []string{publicAudience}
	case "followers":
		return []string{followers}, nil
	case "direct":
		return nil, nil
	default:
		return []string{publicAudience}, []string{followers}
	}
}

func serializeFollow(follow *domain.Follow) *domain.Document {
	doc := domain.NewDocument().
		Set("followerId", follow.FollowerId.String()).
		Set("followingId", follow.FollowingId.String())
	doc.SetOmitEmpty("iri", follow.IRI)
	doc.Set("shares", follow.Shares)
	doc.Set("notify", follow.Notify)
	doc.SetOmitEmpty("languages", follow.Languages)
	if follow.Approved != nil {
		doc.Set("approved", fmtRFC3339(*follow.Approved))
	} else {
		doc.Set("approved", nil)
	}
	doc.Set("created", fmtRFC3339(follow.CreatedAt))
	return doc
}

func serializeLike(like *domain.Like) *domain.Document {
	return domain.NewDocument().
		Set("postId", like.PostId.String()).
		Set("created", fmtRFC3339(like.CreatedAt))
}

func serializeBookmark(bookmark *domain.Bookmark) *domain.Document {
	return domain.NewDocument().
		Set("postId", bookmark.PostId.String()).
		Set("created", fmtRFC3339(bookmark.CreatedAt))
}

func serializeMute(mute *domain.Mute) *domain.Document {
	doc := domain.NewDocument().
		Set("id", mute.Id.String()).
		Set("mutedAccountId", mute.MutedAccountId.String()).
		Set("notifications", mute.Notifications)
	if mute.DurationSeconds != nil {
		doc.Set("duration", *mute.DurationSeconds)
	} else {
		doc.Set("duration", nil)
	}
	doc.Set("created", fmtRFC3339(mute.CreatedAt))
	return doc
}

func serializeBlock(block *domain.Block) *domain.Document {
	return domain.NewDocument().
		Set("blockedAccountId", block.BlockedAccountId.String()).
		Set("created", fmtRFC3339(block.CreatedAt))
}

func serializeList(list *domain.List) *domain.Document {
	return domain.NewDocument().
		Set("id", list.Id.String()).
		Set("title", list.Title).
		Set("repliesPolicy", list.RepliesPolicy).
		Set("exclusive", list.Exclusive).
		Set("created", fmtRFC3339(list.CreatedAt))
}

// serializeCollection wraps items in an OrderedCollection document
func serializeCollection(items []*domain.Document) *domain.Document {
	if items == nil {
		items = []*domain.Document{}
	}
	return domain.NewDocument().
		Set("@context", activityStreamsContext).
		Set("type", "OrderedCollection").
		Set("totalItems", len(items)).
		Set("orderedItems", items)
}

func fmtRFC3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
