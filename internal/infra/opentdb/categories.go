package opentdb

import (
	"context"
	"fmt"
	"strconv"

	"cogniquiz-service/internal/domain"
)

type categoriesResponse struct {
	TriviaCategories []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"trivia_categories"`
}

// LoadCategories fetches the live category list.
func (c *Client) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	var body categoriesResponse
	if err := c.getJSON(ctx, "/api_category.php", nil, &body); err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	out := make([]domain.Category, 0, len(body.TriviaCategories))
	for _, cat := range body.TriviaCategories {
		out = append(out, domain.Category{ID: strconv.Itoa(cat.ID), Name: cat.Name})
	}
	domain.SortCategories(out)
	return out, nil
}
