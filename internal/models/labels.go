package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LabelList holds issue labels. Clients may send either a JSON array of
// strings or a single comma-separated string; both decode to a trimmed list
// with empty items dropped.
type LabelList []string

func (l *LabelList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*l = LabelList{}
	case string:
		*l = LabelList(SplitList(v))
		if *l == nil {
			*l = LabelList{}
		}
	case []any:
		out := make(LabelList, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("labels must contain only strings")
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	default:
		return fmt.Errorf("labels must be a list or a comma-separated string")
	}
	return nil
}
