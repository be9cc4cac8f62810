package batch

import (
	"encoding/json"
	"fmt"
)

// Result is the outcome of one email in a batch operation.
type Result struct {
	EmailID string `json:"email_id"`
	Status  string `json:"status"` // "success" or "error"
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summary aggregates the per-email results of a batch operation.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseEmailIDs accepts a tool argument that is either a single message ID
// string or an array of message ID strings.
func ParseEmailIDs(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var ids []string

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		ids = []string{v}
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		for i, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if id == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			ids = append(ids, id)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	return ids, nil
}

// Run applies fn to each email ID and collects per-email results. A failure
// on one email never aborts the rest of the batch.
func Run(ids []string, fn func(id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		detail, err := fn(id)
		if err != nil {
			results = append(results, Result{EmailID: id, Status: "error", Error: err.Error()})
			continue
		}
		results = append(results, Result{EmailID: id, Status: "success", Detail: detail})
	}

	return results
}

// Format renders results as an indented JSON summary for the tool response.
func Format(results []Result) string {
	summary := Summary{
		Total:   len(results),
		Results: results,
	}

	for _, r := range results {
		if r.Status == "success" {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	jsonBytes, _ := json.MarshalIndent(summary, "", "  ")
	return string(jsonBytes)
}
