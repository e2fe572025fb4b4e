package textproc

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed stopwords-en.yaml
var englishStopwordsYAML []byte

// Stoplist is the YAML shape of a stopword file.
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// ParseStoplist decodes a stopword YAML document into a lower-cased set.
func ParseStoplist(data []byte) (map[string]struct{}, error) {
	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("parse stoplist: %w", err)
	}
	set := make(map[string]struct{}, len(sl.Terms))
	for _, t := range sl.Terms {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return set, nil
}

// EnglishStopwords returns the built-in English stopword set.
func EnglishStopwords() map[string]struct{} {
	set, err := ParseStoplist(englishStopwordsYAML)
	if err != nil {
		panic("embedded stoplist: " + err.Error())
	}
	return set
}
