package fixtures

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Profile selects which suites a generation run produces and whether an
// existing corpus may be replaced.
type Profile struct {
	Suites    []string `yaml:"suites" json:"suites"`
	Overwrite bool     `yaml:"overwrite,omitempty" json:"overwrite,omitempty"`
}

const profileSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "suites": {
      "type": "array",
      "items": {
        "type": "string",
        "enum": ["core", "assets", "biophys", "microcircuit", "replay"]
      },
      "minItems": 1,
      "uniqueItems": true
    },
    "overwrite": {"type": "boolean"}
  },
  "required": ["suites"],
  "additionalProperties": false
}`

var profileSchema = mustCompileProfileSchema()

func mustCompileProfileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const url = "https://ucf.schemas.local/fixtures/profile.schema.json"
	if err := c.AddResource(url, strings.NewReader(profileSchemaJSON)); err != nil {
		panic(fmt.Sprintf("fixtures: profile schema load failed: %v", err))
	}
	s, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("fixtures: profile schema compile failed: %v", err))
	}
	return s
}

// LoadProfile reads and validates a generation profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", path, err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", path, err)
	}
	return p, nil
}

// ParseProfile validates YAML bytes against the profile schema before
// decoding them. Schema-first keeps typos (an unknown suite, a misspelled
// key) from silently generating the wrong corpus.
func ParseProfile(data []byte) (*Profile, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	// The validator expects JSON-shaped values; a round trip through
	// encoding/json converts what YAML produced.
	jsonRaw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	var jsonDoc interface{}
	if err := json.Unmarshal(jsonRaw, &jsonDoc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := profileSchema.Validate(jsonDoc); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return &p, nil
}

// selects reports whether the profile includes a suite. A nil profile
// selects everything.
func (p *Profile) selects(suite string) bool {
	if p == nil {
		return true
	}
	for _, s := range p.Suites {
		if s == suite {
			return true
		}
	}
	return false
}
