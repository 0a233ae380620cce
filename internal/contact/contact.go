package contact

import (
	"encoding/json"
	"fmt"
	"time"
)

// Contact is an inbound message left through the site's contact form. The
// submitted fields are kept as-is; only the id and timestamps are owned by
// the server.
type Contact struct {
	ID        string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

var reserved = []string{"id", "createdAt", "updatedAt"}

// MarshalJSON renders the contact as one flat document.
func (c Contact) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(c.Fields)+len(reserved))
	for k, v := range c.Fields {
		doc[k] = v
	}
	doc["id"] = c.ID
	doc["createdAt"] = c.CreatedAt
	doc["updatedAt"] = c.UpdatedAt
	return json.Marshal(doc)
}

func (c *Contact) UnmarshalJSON(b []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}

	id, _ := doc["id"].(string)
	out := Contact{ID: id}
	for _, key := range []string{"createdAt", "updatedAt"} {
		raw, ok := doc[key].(string)
		if !ok {
			continue
		}
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("contact %s: %w", key, err)
		}
		if key == "createdAt" {
			out.CreatedAt = at
		} else {
			out.UpdatedAt = at
		}
	}
	out.Fields = withoutReserved(doc)
	*c = out
	return nil
}

// withoutReserved drops the server-owned keys from a submitted document.
func withoutReserved(doc map[string]any) map[string]any {
	fields := make(map[string]any, len(doc))
	for k, v := range doc {
		fields[k] = v
	}
	for _, k := range reserved {
		delete(fields, k)
	}
	return fields
}
