package blog

import (
	"errors"
)

const SnippetLength = 150

var ErrBlogNotFound = errors.New("blog not found")

type Blog struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	// Date is the formatted creation date, set once and never touched on edit.
	Date string `json:"date"`
}

// Snippet returns the content preview shown in the blog list: the first
// SnippetLength characters, with "..." appended only when something was cut.
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= SnippetLength {
		return content
	}
	return string(runes[:SnippetLength]) + "..."
}
