package composer

import (
	"testing"

	"postdeck/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func image(id string) models.MediaItem {
	return models.MediaItem{ID: id, Filename: id + ".png", ContentType: "image/png", Size: 10, Kind: models.MediaKindImage}
}

func video(id string) models.MediaItem {
	return models.MediaItem{ID: id, Filename: id + ".mp4", ContentType: "video/mp4", Size: 10, Kind: models.MediaKindVideo}
}

func TestNewDraft_Defaults(t *testing.T) {
	d := NewDraft()
	assert.Equal(t, models.PostTypePost, d.PostType())
	assert.Empty(t, d.Platforms())
	assert.Empty(t, d.Media())
	assert.Empty(t, d.Tags())
	assert.Nil(t, d.Thumbnail())
	assert.False(t, d.IsPublishable())
}

func TestTogglePlatform_OddCountSelects(t *testing.T) {
	d := NewDraft()
	sequence := []models.Platform{
		models.PlatformFacebook, models.PlatformX, models.PlatformFacebook,
		models.PlatformThreads, models.PlatformX, models.PlatformX,
		models.PlatformFacebook,
	}
	counts := map[models.Platform]int{}
	for _, p := range sequence {
		d.TogglePlatform(p)
		counts[p]++
	}
	for p, n := range counts {
		assert.Equal(t, n%2 == 1, d.IsSelected(p), "platform %s toggled %d times", p, n)
	}
}

func TestTogglePlatform_PreservesInsertionOrder(t *testing.T) {
	d := NewDraft()
	d.TogglePlatform(models.PlatformYouTube)
	d.TogglePlatform(models.PlatformInstagram)
	d.TogglePlatform(models.PlatformLinkedIn)
	d.TogglePlatform(models.PlatformInstagram)
	d.TogglePlatform(models.PlatformInstagram)

	assert.Equal(t, []models.Platform{models.PlatformYouTube, models.PlatformLinkedIn, models.PlatformInstagram}, d.Platforms())
}

func TestTogglePlatform_DoesNotTouchOtherFields(t *testing.T) {
	d := NewDraft()
	d.SetBody("hello")
	d.AddTag("go")
	d.AddMedia(image("a"))
	d.TogglePlatform(models.PlatformPinterest)

	assert.Equal(t, "hello", d.Body())
	assert.Equal(t, []string{"go"}, d.Tags())
	assert.Len(t, d.Media(), 1)
}

func TestSetPostType_PreservesInput(t *testing.T) {
	d := NewDraft()
	d.AddMedia(video("v"))
	d.SetTitle("Launch")
	d.AddTag("news")

	d.SetPostType(models.PostTypeReel)
	assert.Equal(t, models.PostTypeReel, d.PostType())
	assert.Len(t, d.Media(), 1)
	assert.Equal(t, "Launch", d.Metadata().Title)
	assert.Equal(t, []string{"news"}, d.Tags())

	d.SetPostType("carousel")
	assert.Equal(t, models.PostTypeReel, d.PostType())
}

func TestRemoveMedia(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		removed bool
		left    []string
	}{
		{name: "first", index: 0, removed: true, left: []string{"b", "c"}},
		{name: "middle", index: 1, removed: true, left: []string{"a", "c"}},
		{name: "last", index: 2, removed: true, left: []string{"a", "b"}},
		{name: "negative", index: -1, removed: false, left: []string{"a", "b", "c"}},
		{name: "past end", index: 3, removed: false, left: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft()
			d.AddMedia(image("a"), video("b"), image("c"))

			_, ok := d.RemoveMedia(tt.index)
			assert.Equal(t, tt.removed, ok)

			var ids []string
			for _, m := range d.Media() {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.left, ids)
		})
	}
}

func TestSetThumbnail_RejectsNonImage(t *testing.T) {
	d := NewDraft()
	_, ok := d.SetThumbnail(image("thumb"))
	require.True(t, ok)

	_, ok = d.SetThumbnail(video("clip"))
	assert.False(t, ok)
	require.NotNil(t, d.Thumbnail())
	assert.Equal(t, "thumb", d.Thumbnail().ID)
}

func TestSetThumbnail_ReturnsReplaced(t *testing.T) {
	d := NewDraft()
	d.SetThumbnail(image("one"))
	prev, ok := d.SetThumbnail(image("two"))
	require.True(t, ok)
	require.NotNil(t, prev)
	assert.Equal(t, "one", prev.ID)

	cleared := d.ClearThumbnail()
	require.NotNil(t, cleared)
	assert.Equal(t, "two", cleared.ID)
	assert.Nil(t, d.Thumbnail())
	assert.Nil(t, d.ClearThumbnail())
}

func TestAddTag(t *testing.T) {
	d := NewDraft()
	assert.True(t, d.AddTag("  travel "))
	assert.False(t, d.AddTag("travel"))
	assert.False(t, d.AddTag("travel  "))
	assert.True(t, d.AddTag("Travel"))
	assert.False(t, d.AddTag(""))
	assert.False(t, d.AddTag("   "))

	assert.Equal(t, []string{"travel", "Travel"}, d.Tags())
}

func TestAddTag_Idempotent(t *testing.T) {
	once := NewDraft()
	once.AddTag("food")

	twice := NewDraft()
	twice.AddTag("food")
	twice.AddTag("food")

	assert.Equal(t, once.Tags(), twice.Tags())
}

func TestRemoveTag(t *testing.T) {
	d := NewDraft()
	d.AddTag("a")
	d.AddTag("b")
	d.AddTag("c")

	assert.False(t, d.RemoveTag("B"))
	assert.True(t, d.RemoveTag("b"))
	assert.Equal(t, []string{"a", "c"}, d.Tags())
}

func TestIsPublishable_Post(t *testing.T) {
	d := NewDraft()
	d.TogglePlatform(models.PlatformFacebook)
	assert.False(t, d.IsPublishable())

	d.SetBody("   ")
	assert.False(t, d.IsPublishable())

	d.SetBody("hello")
	assert.True(t, d.IsPublishable())

	d.SetBody("")
	d.AddMedia(image("a"))
	assert.True(t, d.IsPublishable())
}

func TestIsPublishable_RequiresPlatform(t *testing.T) {
	d := NewDraft()
	d.SetBody("hello")
	assert.True(t, d.HasValidContent())
	assert.False(t, d.IsPublishable())

	d.TogglePlatform(models.PlatformThreads)
	assert.True(t, d.IsPublishable())
}

func TestIsPublishable_Reel(t *testing.T) {
	d := NewDraft()
	d.TogglePlatform(models.PlatformInstagram)
	d.SetPostType(models.PostTypeReel)
	d.AddMedia(video("clip"))
	assert.False(t, d.IsPublishable())

	d.SetTitle("x")
	assert.True(t, d.IsPublishable())
}

func TestIsPublishable_StoryNeedsMedia(t *testing.T) {
	d := NewDraft()
	d.TogglePlatform(models.PlatformInstagram)
	d.SetPostType(models.PostTypeStory)
	d.SetTitle("Behind the scenes")
	d.SetBody("caption alone is not enough")
	assert.False(t, d.IsPublishable())

	d.AddMedia(image("a"))
	assert.True(t, d.IsPublishable())

	d.RemoveMedia(0)
	assert.False(t, d.IsPublishable())
}

func TestSnapshot_IsDetached(t *testing.T) {
	d := NewDraft()
	d.TogglePlatform(models.PlatformX)
	d.AddTag("one")
	d.AddMedia(image("a"))

	snap := d.Snapshot()
	snap.Tags[0] = "mutated"
	snap.Platforms[0] = models.PlatformFacebook
	snap.Media[0].ID = "zzz"

	assert.Equal(t, []string{"one"}, d.Tags())
	assert.Equal(t, []models.Platform{models.PlatformX}, d.Platforms())
	assert.Equal(t, "a", d.Media()[0].ID)
}

func TestSnapshot_EmptyCollectionsAreNotNil(t *testing.T) {
	snap := NewDraft().Snapshot()
	assert.NotNil(t, snap.Platforms)
	assert.NotNil(t, snap.Media)
	assert.NotNil(t, snap.Tags)
	assert.False(t, snap.Publishable)
}
