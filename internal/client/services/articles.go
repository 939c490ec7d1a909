package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gophblog/internal/client/client"
	"github.com/dmitrijs2005/gophblog/internal/client/models"
	"github.com/dmitrijs2005/gophblog/internal/common"
)

type ArticleService interface {
	// List returns articles newest first.
	List(ctx context.Context) ([]models.Article, error)
	Get(ctx context.Context, id int64) (*models.Article, error)
	Publish(ctx context.Context, a models.NewArticle) (*models.PublishResult, error)
}

type articleService struct {
	client  client.Client
	session Session
}

func NewArticleService(c client.Client, s Session) ArticleService {
	return &articleService{client: c, session: s}
}

func (s *articleService) List(ctx context.Context) ([]models.Article, error) {
	list, err := s.client.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].PublishedAt.After(list[j].PublishedAt)
	})
	return list, nil
}

func (s *articleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid article id %d", common.ErrorValidation, id)
	}
	a, err := s.client.GetArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}
	return a, nil
}

func (s *articleService) Publish(ctx context.Context, a models.NewArticle) (*models.PublishResult, error) {
	if !s.session.Snapshot().IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" || strings.TrimSpace(a.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", common.ErrorValidation)
	}

	res, err := s.client.PublishArticle(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("publish article: %w", err)
	}
	return res, nil
}
