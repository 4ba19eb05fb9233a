package ai

import (
	"encoding/json"
	"fmt"
)

// Provider response shapes are not stable across versions and models, so
// the locator is probed with an explicit ordered list of strategies:
// a list-of-images field, a singular image field, then known flat URL
// fields. The order is part of the contract.

type imageItem struct {
	URL     string `json:"url"`
	B64JSON string `json:"b64_json"`
}

var listFields = []string{"images", "data"}
var flatFields = []string{"url", "image_url", "output_url", "result_url"}

// ExtractImageRef pulls an image locator out of a raw provider response.
func ExtractImageRef(raw json.RawMessage) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("response is not a JSON object: %w", err)
	}

	for _, name := range listFields {
		if ref, ok := fromImageList(fields[name]); ok {
			return ref, nil
		}
	}

	if ref, ok := fromSingleImage(fields["image"]); ok {
		return ref, nil
	}

	for _, name := range flatFields {
		var ref string
		if fields[name] != nil && json.Unmarshal(fields[name], &ref) == nil && ref != "" {
			return ref, nil
		}
	}

	return "", fmt.Errorf("no image locator in response")
}

func fromImageList(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	var items []imageItem
	if json.Unmarshal(raw, &items) == nil && len(items) > 0 {
		if ref := items[0].URL; ref != "" {
			return ref, true
		}
		if ref := items[0].B64JSON; ref != "" {
			return ref, true
		}
	}
	var urls []string
	if json.Unmarshal(raw, &urls) == nil && len(urls) > 0 && urls[0] != "" {
		return urls[0], true
	}
	return "", false
}

func fromSingleImage(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	var item imageItem
	if json.Unmarshal(raw, &item) == nil {
		if item.URL != "" {
			return item.URL, true
		}
		if item.B64JSON != "" {
			return item.B64JSON, true
		}
	}
	var ref string
	if json.Unmarshal(raw, &ref) == nil && ref != "" {
		return ref, true
	}
	return "", false
}
