//go:build integration_test || all_tests

package test

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/blogbox/internal/mood"
	"github.com/2beens/blogbox/internal/view"
	"github.com/2beens/blogbox/internal/web"
)

func (s *IntegrationTestSuite) webPage(ctx context.Context, browser *http.Client) string {
	req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/", nil)
	s.Require().NoError(err)

	resp, err := browser.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return string(body)
}

func (s *IntegrationTestSuite) webAction(ctx context.Context, browser *http.Client, path string, form url.Values) {
	req, err := http.NewRequestWithContext(ctx, "POST", serverEndpoint+path, strings.NewReader(form.Encode()))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// same origin form posts carry an Origin header
	req.Header.Set("Origin", serverEndpoint)

	resp, err := browser.Do(req)
	s.Require().NoError(err)
	s.Require().NoError(resp.Body.Close())
	s.Require().Equal(http.StatusSeeOther, resp.StatusCode, path)
	s.Equal("/", resp.Header.Get("Location"))
}

func (s *IntegrationTestSuite) TestWeb_BlogLifecycle() {
	ctx := context.Background()
	defer s.deleteAllBlogs(ctx)
	browser := s.newBrowser()

	page := s.webPage(ctx, browser)
	s.Contains(page, view.MsgNoBlogs)

	serverURL, err := url.Parse(serverEndpoint)
	s.Require().NoError(err)
	cookies := browser.Jar.Cookies(serverURL)
	s.Require().Len(cookies, 1)
	s.Equal(web.SessionCookieName, cookies[0].Name)

	s.webAction(ctx, browser, "/blogs/add", nil)
	s.Contains(s.webPage(ctx, browser), view.HeadingCreate)

	s.webAction(ctx, browser, "/blogs/submit", url.Values{
		"id":      {""},
		"title":   {"<b>web post</b>"},
		"content": {"written in a browser"},
	})
	page = s.webPage(ctx, browser)
	s.Contains(page, view.MsgCreated)
	s.Contains(page, "&lt;b&gt;web post&lt;/b&gt;")
	s.NotContains(page, "<b>web post</b>")

	blogs := s.allBlogsRequest(ctx)
	s.Require().Len(blogs, 1)
	id := blogs[0].ID

	s.webAction(ctx, browser, "/blogs/"+id+"/open", nil)
	page = s.webPage(ctx, browser)
	s.Contains(page, "Published on "+blogs[0].Date)
	s.Contains(page, "written in a browser")

	s.webAction(ctx, browser, "/blogs/edit", nil)
	s.Contains(s.webPage(ctx, browser), view.HeadingEdit)
	s.webAction(ctx, browser, "/blogs/submit", url.Values{
		"id":      {id},
		"title":   {"edited"},
		"content": {"edited content"},
	})
	s.Contains(s.webPage(ctx, browser), view.MsgUpdated)

	blogs = s.allBlogsRequest(ctx)
	s.Require().Len(blogs, 1)
	s.Equal(id, blogs[0].ID)
	s.Equal("edited", blogs[0].Title)

	// dismissed delete keeps the blog
	s.webAction(ctx, browser, "/blogs/"+id+"/open", nil)
	s.webAction(ctx, browser, "/blogs/delete", nil)
	s.Contains(s.webPage(ctx, browser), view.MsgConfirmDelete)
	s.webAction(ctx, browser, "/modal/cancel", nil)
	s.Len(s.allBlogsRequest(ctx), 1)

	s.webAction(ctx, browser, "/blogs/delete", nil)
	s.webAction(ctx, browser, "/modal/confirm", nil)
	page = s.webPage(ctx, browser)
	s.Contains(page, view.MsgDeleted)
	s.Contains(page, view.MsgNoBlogs)
	s.Empty(s.allBlogsRequest(ctx))
}

func (s *IntegrationTestSuite) TestWeb_SessionsAreIsolated() {
	ctx := context.Background()
	defer s.deleteAllBlogs(ctx)
	alice := s.newBrowser()
	bob := s.newBrowser()

	s.webAction(ctx, alice, "/blogs/add", nil)
	s.Contains(s.webPage(ctx, alice), view.HeadingCreate)
	s.NotContains(s.webPage(ctx, bob), view.HeadingCreate)

	// both sessions share the repository
	s.newBlogRequest(ctx, "shared", "seen by everyone")
	s.webAction(ctx, bob, "/home", nil)
	s.Contains(s.webPage(ctx, bob), "shared")
}

func (s *IntegrationTestSuite) TestWeb_Mood() {
	ctx := context.Background()
	browser := s.newBrowser()

	want, ok := mood.Response(mood.Calm)
	s.Require().True(ok)

	s.webAction(ctx, browser, "/mood/"+mood.Calm, nil)
	s.Contains(s.webPage(ctx, browser), want)
}
