package project

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Project is a portfolio entry. TechStack keeps the order it was given in.
type Project struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	TechStack     []string  `json:"techStack"`
	LiveURL       string    `json:"liveUrl"`
	GithubURL     string    `json:"githubUrl"`
	Image         string    `json:"image"`
	ImagePublicID string    `json:"imagePublicId"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Patch lists the text fields of an update. A nil field is left untouched;
// a non-nil TechStack replaces the stored list as a whole.
type Patch struct {
	Title       *string
	Description *string
	LiveURL     *string
	GithubURL   *string
	TechStack   *[]string
}

func (p Patch) Apply(pr Project) Project {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&pr.Title, p.Title)
	set(&pr.Description, p.Description)
	set(&pr.LiveURL, p.LiveURL)
	set(&pr.GithubURL, p.GithubURL)
	if p.TechStack != nil {
		pr.TechStack = append([]string{}, (*p.TechStack)...)
	}
	return pr
}

var ErrInvalidTechStack = errors.New("techStack must be a JSON array of strings")

// ParseTechStack decodes the JSON-encoded tag list sent in form fields. An
// empty value yields nil.
func ParseTechStack(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	tags := []string{}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, ErrInvalidTechStack
	}
	return tags, nil
}

// decodeTechStack accepts the JSON body form of techStack: either an encoded
// string as in forms, or a plain array.
func decodeTechStack(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, ErrInvalidTechStack
		}
		return ParseTechStack(encoded)
	}
	tags := []string{}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, ErrInvalidTechStack
	}
	return tags, nil
}
