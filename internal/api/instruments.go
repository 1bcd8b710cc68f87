package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const instrumentsPath = "/v5/market/instruments-info"

// GetInstrumentsOptions filter the instrument listing.
type GetInstrumentsOptions struct {
	Category string // Instrument class, e.g. "option"
	BaseCoin string // Base asset filter, e.g. "BTC"
	Limit    int
	Cursor   string
}

// GetInstruments fetches a single page of instruments.
func (c *Client) GetInstruments(ctx context.Context, opts GetInstrumentsOptions) (*InstrumentsResult, error) {
	query := url.Values{}
	query.Set("category", opts.Category)
	if opts.BaseCoin != "" {
		query.Set("baseCoin", opts.BaseCoin)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}

	var result InstrumentsResult
	if err := c.get(ctx, instrumentsPath, query, &result); err != nil {
		return nil, fmt.Errorf("get instruments: %w", err)
	}

	return &result, nil
}

// GetAllInstruments fetches every instrument for a base coin by paginating
// through the cursor.
func (c *Client) GetAllInstruments(ctx context.Context, category, baseCoin string) ([]Instrument, error) {
	opts := GetInstrumentsOptions{
		Category: category,
		BaseCoin: baseCoin,
		Limit:    1000, // Max page size
	}

	var all []Instrument
	for {
		result, err := c.GetInstruments(ctx, opts)
		if err != nil {
			return nil, err
		}

		all = append(all, result.List...)

		if result.NextPageCursor == "" {
			break
		}
		opts.Cursor = result.NextPageCursor
	}

	return all, nil
}
