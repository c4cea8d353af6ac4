package workspace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	apperrors "github.com/acme/contact-center-samples/pkg/errors"
)

// SearchTargets returns directory targets matching term. A limit <= 0 uses the vendor default.
func (c *Client) SearchTargets(ctx context.Context, term string, limit int) ([]Target, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", apperrors.ErrValidation)
	}
	q := url.Values{}
	q.Set("searchTerm", term)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var data targetsData
	if err := c.do(ctx, "search targets", http.MethodGet, "/targets?"+q.Encode(), nil, &data); err != nil {
		return nil, err
	}
	return data.Targets, nil
}
