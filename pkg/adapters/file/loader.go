// Package file loads a questionnaire graph from a YAML document on disk.
//
// Version tokens are derived deterministically from each question's content,
// so reloading an unchanged file yields the same tokens and editing a
// question's text changes its token. In-flight surveys therefore detect
// staleness across restarts without any persisted graph state.
package file

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/memory"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

// tokenNamespace seeds the content-derived version tokens.
var tokenNamespace = uuid.MustParse("9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d")

// questionDoc is the YAML shape of a question. Edges hang off their source
// question as choices.
type questionDoc struct {
	ID      string      `mapstructure:"id"`
	Text    string      `mapstructure:"text"`
	Type    string      `mapstructure:"type"`
	SaveTo  string      `mapstructure:"save_to"`
	Choices []choiceDoc `mapstructure:"choices"`
}

type choiceDoc struct {
	Answer    *string `mapstructure:"answer"`
	To        string  `mapstructure:"to"`
	NewStatus string  `mapstructure:"new_status"`
}

// document is the top-level YAML shape. Questions are decoded through a
// generic map first so decoding errors can name the offending entry.
type document struct {
	Questions []map[string]any `yaml:"questions"`
}

// Load reads the YAML file at path and builds the graph. Structural rules
// (duplicate IDs, dangling targets, duplicate answers) are enforced by the
// graph itself and surface as *domain.ConfigError.
func Load(path string) (*memory.Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questionnaire: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat questionnaire: %w", err)
	}

	return Parse(raw, info.ModTime().UTC())
}

// Parse builds the graph from YAML bytes, stamping every question with the
// given modification time.
func Parse(raw []byte, modTime time.Time) (*memory.Graph, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &domain.ConfigError{Detail: "malformed questionnaire YAML", Err: err}
	}
	if len(doc.Questions) == 0 {
		return nil, &domain.ConfigError{Detail: "questionnaire has no questions"}
	}

	questions := make([]questionDoc, 0, len(doc.Questions))
	for i, rawQ := range doc.Questions {
		var q questionDoc
		if err := mapstructure.Decode(rawQ, &q); err != nil {
			return nil, &domain.ConfigError{Detail: fmt.Sprintf("question #%d", i+1), Err: err}
		}
		questions = append(questions, q)
	}

	g := memory.NewGraph()
	for _, q := range questions {
		if err := g.AddQuestion(domain.Question{
			ID:               q.ID,
			Text:             q.Text,
			Type:             q.Type,
			ExternalFieldRef: q.SaveTo,
			VersionToken:     versionToken(q.ID, q.Text),
			UpdatedAt:        modTime,
		}); err != nil {
			return nil, err
		}
	}

	// Edges second, so forward references between questions work.
	for _, q := range questions {
		for _, c := range q.Choices {
			if err := g.AddChoice(domain.AnswerChoice{
				From:      q.ID,
				To:        c.To,
				Answer:    c.Answer,
				NewStatus: domain.Status(c.NewStatus),
			}); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// versionToken derives a stable token from the question's identity and text.
func versionToken(id, text string) uuid.UUID {
	return uuid.NewSHA1(tokenNamespace, []byte(id+"\x00"+text))
}
