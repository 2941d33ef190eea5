package data

import (
	"encoding/json"
	"os"

	"supply-rounds/internal/model"
)

// LoadRoundResponseJSON reads an arbiter round response saved to disk.
func LoadRoundResponseJSON(path string) (*model.RoundResponse, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var resp model.RoundResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OrdersFromResponse converts the response backlog to unresolved orders.
func OrdersFromResponse(resp *model.RoundResponse) []model.Order {
	if resp == nil {
		return nil
	}
	out := make([]model.Order, 0, len(resp.Demand))
	for _, d := range resp.Demand {
		out = append(out, d.ToOrder())
	}
	return out
}
