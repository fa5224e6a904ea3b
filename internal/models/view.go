package models

// PostView is a post with every embedded user reference resolved to its
// current directory summary. The Author and Comments fields shadow the
// raw ids on the embedded Post for JSON rendering.
type PostView struct {
	Post
	Author   UserSummary   `json:"author"`
	Comments []CommentView `json:"comments"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	Comment
	Author UserSummary `json:"author"`
}

// StoryView is a story with its author resolved.
type StoryView struct {
	Story
	Author UserSummary `json:"author"`
}
