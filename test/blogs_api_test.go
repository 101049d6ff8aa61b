//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/2beens/blogbox/internal/blog"

	"github.com/brianvoe/gofakeit/v6"
)

func (s *IntegrationTestSuite) allBlogsRequest(ctx context.Context) []blog.Blog {
	req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/api/blogs", nil)
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var blogs []blog.Blog
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&blogs))
	return blogs
}

func (s *IntegrationTestSuite) newBlogRequest(ctx context.Context, title, content string) blog.Blog {
	reqJson, err := json.Marshal(map[string]string{
		"title":   title,
		"content": content,
	})
	s.Require().NoError(err)

	req, err := http.NewRequestWithContext(ctx, "POST", serverEndpoint+"/api/blogs", bytes.NewReader(reqJson))
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created blog.Blog
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&created))
	return created
}

func (s *IntegrationTestSuite) updateBlogRequest(ctx context.Context, id, title, content string) int {
	reqJson, err := json.Marshal(map[string]string{
		"id":      id,
		"title":   title,
		"content": content,
	})
	s.Require().NoError(err)

	req, err := http.NewRequestWithContext(ctx, "PUT", serverEndpoint+"/api/blogs", bytes.NewReader(reqJson))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func (s *IntegrationTestSuite) deleteBlogRequest(ctx context.Context, id string) string {
	req, err := http.NewRequestWithContext(ctx, "DELETE", fmt.Sprintf("%s/api/blogs/%s", serverEndpoint, id), nil)
	s.Require().NoError(err)

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return string(body)
}

func (s *IntegrationTestSuite) deleteAllBlogs(ctx context.Context) {
	for _, b := range s.allBlogsRequest(ctx) {
		s.deleteBlogRequest(ctx, b.ID)
	}
}

func (s *IntegrationTestSuite) TestBlogsAPI() {
	ctx := context.Background()
	defer s.deleteAllBlogs(ctx)

	s.Empty(s.allBlogsRequest(ctx))

	titles := make([]string, 0, 5)
	created := make([]blog.Blog, 0, 5)
	for i := 0; i < 5; i++ {
		title := gofakeit.Sentence(4)
		titles = append(titles, title)
		created = append(created, s.newBlogRequest(ctx, title, gofakeit.Paragraph(2, 3, 20, " ")))
	}

	// insertion order is kept, ids are unique
	blogs := s.allBlogsRequest(ctx)
	s.Require().Len(blogs, 5)
	ids := make(map[string]bool)
	for i, b := range blogs {
		s.Equal(titles[i], b.Title)
		s.Equal(created[i].ID, b.ID)
		s.NotEmpty(b.Date)
		ids[b.ID] = true
	}
	s.Len(ids, 5)

	// the whole collection is one json array under one postgres row
	var stored []blog.Blog
	s.Require().NoError(json.Unmarshal([]byte(s.storedBlogs(ctx)), &stored))
	s.Equal(blogs, stored)

	// get one
	req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/api/blogs/"+created[2].ID, nil)
	s.Require().NoError(err)
	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	var got blog.Blog
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&got))
	s.Require().NoError(resp.Body.Close())
	s.Equal(created[2], got)

	// update keeps id, date and position
	s.Equal(http.StatusOK, s.updateBlogRequest(ctx, created[1].ID, "updated title", "updated content"))
	s.Equal(http.StatusNotFound, s.updateBlogRequest(ctx, "no-such-id", "x", "y"))
	blogs = s.allBlogsRequest(ctx)
	s.Require().Len(blogs, 5)
	s.Equal(created[1].ID, blogs[1].ID)
	s.Equal(created[1].Date, blogs[1].Date)
	s.Equal("updated title", blogs[1].Title)
	s.Equal("updated content", blogs[1].Content)

	// delete, missing id is a no-op
	s.Equal("deleted:"+created[0].ID, s.deleteBlogRequest(ctx, created[0].ID))
	s.deleteBlogRequest(ctx, "no-such-id")
	blogs = s.allBlogsRequest(ctx)
	s.Require().Len(blogs, 4)
	s.Equal(created[1].ID, blogs[0].ID)

	s.deleteAllBlogs(ctx)
	s.Empty(s.allBlogsRequest(ctx))
	s.Equal("[]", s.storedBlogs(ctx))
}

func (s *IntegrationTestSuite) TestBlogsAPI_Cors() {
	ctx := context.Background()

	req, err := http.NewRequestWithContext(ctx, "OPTIONS", serverEndpoint+"/api/blogs", nil)
	s.Require().NoError(err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	s.Require().NoError(resp.Body.Close())
	s.Equal("http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequestWithContext(ctx, "POST", serverEndpoint+"/api/blogs", strings.NewReader(`{"title":"x"}`))
	s.Require().NoError(err)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = s.httpClient.Do(req)
	s.Require().NoError(err)
	s.Require().NoError(resp.Body.Close())
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Empty(s.allBlogsRequest(ctx))
}

func (s *IntegrationTestSuite) TestMetrics() {
	ctx := context.Background()
	s.allBlogsRequest(ctx)

	req, err := http.NewRequestWithContext(ctx, "GET", metricsEndpoint, nil)
	s.Require().NoError(err)
	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), "blogbox_main_life_signal 1")
	s.Contains(string(body), "blogbox_main_request_duration_seconds")
	s.Contains(string(body), `db_name="blogbox"`)
}
