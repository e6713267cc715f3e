// Package graph renders a questionnaire graph as a Mermaid flowchart, for
// documentation and for eyeballing a questionnaire before deploying it.
package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/ports"
)

// Overlay highlights a survey's position on the rendered graph.
type Overlay struct {
	CurrentQuestion string
}

// GenerateMermaid produces Mermaid flowchart syntax for the graph.
// Entry questions render as circles, questions projecting into the profile
// as parallelograms, everything else as rectangles. Terminal edges point at
// a shared end node.
func GenerateMermaid(ctx context.Context, g ports.GraphReader, overlay *Overlay) (string, error) {
	questions, err := g.Questions(ctx)
	if err != nil {
		return "", fmt.Errorf("list questions: %w", err)
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	hasTerminal := false
	for _, q := range questions {
		safeID := sanitizeID(q.ID)

		opener, closer := "[", "]"
		switch {
		case isEntryType(q.Type):
			opener, closer = "((", "))"
		case q.ExternalFieldRef != "":
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(q.Text), closer))

		edges, err := g.EdgesFrom(ctx, q.ID)
		if err != nil {
			return "", fmt.Errorf("list choices of %q: %w", q.ID, err)
		}
		for _, edge := range edges {
			label := "*"
			if !edge.Wildcard() {
				label = escapeLabel(*edge.Answer)
			}
			if edge.NewStatus != "" {
				label += " / " + string(edge.NewStatus)
			}

			target := sanitizeID(edge.To)
			if edge.Terminal() {
				target = "survey_end"
				hasTerminal = true
			}
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, label, target))
		}
	}

	if hasTerminal {
		sb.WriteString("    survey_end((\"end\"))\n")
	}

	if overlay != nil && overlay.CurrentQuestion != "" {
		sb.WriteString("\n    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeID(overlay.CurrentQuestion)))
	}

	return sb.String(), nil
}

func isEntryType(t string) bool {
	switch t {
	case domain.QuestionTypeStart, domain.QuestionTypeStartWeb, domain.QuestionTypeStartTelegram:
		return true
	}
	return false
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeID(id string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return replacer.Replace(id)
}
