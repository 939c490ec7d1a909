package models

import "time"

// Article is a published blog post.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"titulo"`
	Content     string     `json:"conteudo"`
	ImagePath   *string    `json:"image_url,omitempty"`
	AuthorID    int64      `json:"autor_id"`
	AuthorName  string     `json:"autor_nome"`
	Likes       int64      `json:"likes"`
	PublishedAt time.Time  `json:"data_publicacao"`
	UpdatedAt   *time.Time `json:"data_alteracao,omitempty"`
	Status      int        `json:"status"`
}

// ImageURL resolves the cover image against base, or "" if there is none.
func (a *Article) ImageURL(base string) string {
	if a.ImagePath == nil || *a.ImagePath == "" {
		return ""
	}
	return ResolveAsset(base, *a.ImagePath)
}

// NewArticle is the payload of POST /articles.
type NewArticle struct {
	Title   string
	Content string
	Image   *Upload
}

// PublishResult is the response of POST /articles.
type PublishResult struct {
	Message   string `json:"message"`
	ArticleID int64  `json:"articleId"`
}
