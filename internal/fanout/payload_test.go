package fanout

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/koinonia-app/backend/internal/models"
)

func TestBuildPayloadPerKind(t *testing.T) {
	tests := []struct {
		kind      models.InteractionKind
		wantTitle string
		wantBody  string
	}{
		{models.KindAmen, "Amen", "Grace said Amen to your post"},
		{models.KindLightbulb, "Lightbulb", "Grace found your post insightful"},
		{models.KindRepost, "Repost", "Grace shared your post"},
		{models.KindFollow, "New follower", "Grace started following you"},
		{models.KindComment, "New comment", "Grace commented on your post"},
		{models.KindReply, "New reply", "Grace replied to your comment"},
		{models.KindMention, "Mention", "Grace mentioned you"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p := buildPayload(models.NotificationEvent{
				ActorID:  "actor-1",
				EntityID: "post-1",
				Kind:     tt.kind,
			}, "Grace")
			if p.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", p.Title, tt.wantTitle)
			}
			if p.Body != tt.wantBody {
				t.Errorf("body = %q, want %q", p.Body, tt.wantBody)
			}
			wantData := map[string]string{
				"kind":      string(tt.kind),
				"entity_id": "post-1",
				"actor_id":  "actor-1",
			}
			if diff := cmp.Diff(wantData, p.Data); diff != "" {
				t.Errorf("data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildPayloadAppendsPreview(t *testing.T) {
	p := buildPayload(models.NotificationEvent{
		Kind:    models.KindComment,
		Preview: "what a thought",
	}, "Grace")
	want := "Grace commented on your post: what a thought"
	if p.Body != want {
		t.Errorf("body = %q, want %q", p.Body, want)
	}
}

func TestTruncateIsRuneSafe(t *testing.T) {
	long := strings.Repeat("é", 150)
	got := truncate(long, previewLimit)
	if n := utf8.RuneCountInString(got); n != previewLimit {
		t.Errorf("rune count = %d, want %d", n, previewLimit)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}

	short := "short"
	if got := truncate(short, previewLimit); got != short {
		t.Errorf("got %q, want %q unchanged", got, short)
	}
	if got := truncate("anything", 0); got != "" {
		t.Errorf("got %q, want empty for zero limit", got)
	}
}
