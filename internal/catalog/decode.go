package catalog

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/job-matcher/internal/jobs"
)

// decodePostings turns generic records into postings. tag selects the struct
// tag used for key lookup: "mapstructure" for config files, "json" for API payloads.
func decodePostings(items []any, tag string, now time.Time) ([]*jobs.Posting, error) {
	var postings []*jobs.Posting

	cfg := &mapstructure.DecoderConfig{
		DecodeHook:       splitStringHook(","),
		WeaklyTypedInput: true,
		Result:           &postings,
		TagName:          tag,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode postings: %w", err)
	}

	for i, p := range postings {
		if p == nil {
			return nil, fmt.Errorf("posting %d is empty", i)
		}
		p.Normalize(now)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("posting %d (%s): %w", i, p.Title, err)
		}
	}

	return postings, nil
}

// splitStringHook accepts "Go, SQL" where a string slice is expected.
func splitStringHook(sep string) mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}

		raw := strings.TrimSpace(reflect.ValueOf(data).String())
		if raw == "" {
			return []string{}, nil
		}

		parts := strings.Split(raw, sep)
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
}
