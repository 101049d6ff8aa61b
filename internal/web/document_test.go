package web

import (
	"sync"
	"testing"

	"github.com/2beens/blogbox/internal/notify"
	"github.com/2beens/blogbox/internal/view"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Page(t *testing.T) {
	doc := NewDocument()

	page := doc.Page()
	assert.Equal(t, view.ListView, page.View)
	assert.Empty(t, page.List)
	assert.Equal(t, "No blogs found. Create one to get started!", page.EmptyMessage)
	assert.Equal(t, []MoodButton{
		{Key: "happy", Label: "Happy"},
		{Key: "inspired", Label: "Inspired"},
		{Key: "curious", Label: "Curious"},
		{Key: "calm", Label: "Calm"},
	}, page.Moods)

	doc.RenderList([]view.Summary{{ID: "a", Title: "t", Snippet: "s"}})
	doc.RenderDetail(view.Detail{Title: "t", Published: "Published on 1/2/2025", Content: "c"})
	doc.ShowView(view.DetailView)
	doc.RenderMood("calm text")

	page = doc.Page()
	assert.Equal(t, view.DetailView, page.View)
	assert.Equal(t, []view.Summary{{ID: "a", Title: "t", Snippet: "s"}}, page.List)
	assert.Empty(t, page.EmptyMessage)
	assert.Equal(t, "Published on 1/2/2025", page.Detail.Published)
	assert.Equal(t, "calm text", page.Mood)
}

func TestDocument_BannerAndOverlay(t *testing.T) {
	doc := NewDocument()

	doc.ShowBanner("Blog not found!", notify.KindError)
	assert.Equal(t, Banner{Text: "Blog not found!", Kind: notify.KindError, Visible: true}, doc.Page().Banner)

	doc.HideBanner()
	assert.False(t, doc.Page().Banner.Visible)

	doc.ShowOverlay("sure?")
	page := doc.Page()
	assert.True(t, page.OverlayActive)
	assert.Equal(t, "sure?", page.Overlay)

	doc.RemoveOverlay()
	page = doc.Page()
	assert.False(t, page.OverlayActive)
	assert.Empty(t, page.Overlay)
}

func TestDocument_ListIsCopied(t *testing.T) {
	doc := NewDocument()
	summaries := []view.Summary{{ID: "a"}}
	doc.RenderList(summaries)
	summaries[0].ID = "changed"

	page := doc.Page()
	assert.Equal(t, "a", page.List[0].ID)
	page.List[0].ID = "changed again"
	assert.Equal(t, "a", doc.Page().List[0].ID)
}

func TestDocument_ConcurrentAccess(t *testing.T) {
	doc := NewDocument()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			doc.ShowBanner("msg", notify.KindSuccess)
			doc.HideBanner()
		}()
		go func() {
			defer wg.Done()
			_ = doc.Page()
		}()
	}
	wg.Wait()
}
