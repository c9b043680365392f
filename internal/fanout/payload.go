package fanout

import (
	"github.com/koinonia-app/backend/internal/models"
)

const (
	fallbackActorName = "Someone"
	previewLimit      = 100
)

type payload struct {
	Title string
	Body  string
	Data  map[string]string
}

func buildPayload(ev models.NotificationEvent, actorName string) payload {
	var title, body string
	switch ev.Kind {
	case models.KindAmen:
		title = "Amen"
		body = actorName + " said Amen to your post"
	case models.KindLightbulb:
		title = "Lightbulb"
		body = actorName + " found your post insightful"
	case models.KindRepost:
		title = "Repost"
		body = actorName + " shared your post"
	case models.KindFollow:
		title = "New follower"
		body = actorName + " started following you"
	case models.KindComment:
		title = "New comment"
		body = actorName + " commented on your post"
	case models.KindReply:
		title = "New reply"
		body = actorName + " replied to your comment"
	case models.KindMention:
		title = "Mention"
		body = actorName + " mentioned you"
	default:
		title = "Notification"
		body = actorName + " interacted with your post"
	}

	if preview := truncate(ev.Preview, previewLimit); preview != "" {
		body += ": " + preview
	}

	return payload{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"kind":      string(ev.Kind),
			"entity_id": ev.EntityID,
			"actor_id":  ev.ActorID,
		},
	}
}

// truncate cuts s to at most n runes, never splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
