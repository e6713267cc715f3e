// Package validator checks a questionnaire graph for the faults that only
// show up at answer time: unreachable questions, dead references and
// junctions the undo scan cannot disambiguate.
package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/ports"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/profile"
)

// entryTags are the type tags traversal may start from.
var entryTags = []string{
	domain.QuestionTypeStart,
	domain.QuestionTypeStartWeb,
	domain.QuestionTypeStartTelegram,
}

// ValidateGraph crawls the graph from every entry question and reports all
// problems at once, one per line.
func ValidateGraph(ctx context.Context, g ports.GraphReader) error {
	var problems []string

	all, err := g.Questions(ctx)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}

	entries := make([]string, 0, 1)
	for _, tag := range entryTags {
		q, err := g.EntryQuestion(ctx, tag)
		if err != nil {
			continue
		}
		entries = append(entries, q.ID)
	}
	if len(entries) == 0 {
		problems = append(problems, "no entry question (type start, start_web or start_telegram)")
	}

	// Each entry tag must name exactly one question, or survey creation
	// depends on which duplicate the graph happens to return.
	byTag := make(map[string][]string)
	for _, q := range all {
		for _, tag := range entryTags {
			if q.Type == tag {
				byTag[tag] = append(byTag[tag], q.ID)
			}
		}
	}
	for tag, ids := range byTag {
		if len(ids) > 1 {
			sort.Strings(ids)
			problems = append(problems, fmt.Sprintf(
				"entry type %q is carried by %d questions: %s", tag, len(ids), strings.Join(ids, ", ")))
		}
	}

	visited := crawl(ctx, g, entries, &problems)

	for _, q := range all {
		if !visited[q.ID] {
			problems = append(problems, fmt.Sprintf("question %q is unreachable from any entry", q.ID))
		}
		if q.Text == "" {
			problems = append(problems, fmt.Sprintf("question %q has no text", q.ID))
		}
	}

	problems = append(problems, ambiguousJunctions(ctx, g, all)...)

	if err := profile.CheckRefs(ctx, g); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("found %d problems:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

// crawl walks the graph breadth-first from the entries, recording broken
// edges along the way.
func crawl(ctx context.Context, g ports.GraphReader, entries []string, problems *[]string) map[string]bool {
	visited := make(map[string]bool)
	queue := append([]string(nil), entries...)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		edges, err := g.EdgesFrom(ctx, id)
		if err != nil {
			*problems = append(*problems, fmt.Sprintf("question %q: list choices: %v", id, err))
			continue
		}
		for _, edge := range edges {
			if edge.Terminal() {
				continue
			}
			if _, err := g.Question(ctx, edge.To); err != nil {
				*problems = append(*problems, fmt.Sprintf("question %q: choice into missing question %q", id, edge.To))
				continue
			}
			if !visited[edge.To] {
				queue = append(queue, edge.To)
			}
		}
	}
	return visited
}

// ambiguousJunctions finds pairs of edges that would tie the undo candidate
// scan: same target, same source text and overlapping answers. Surveys
// passing through such a junction can never revert out of it.
func ambiguousJunctions(ctx context.Context, g ports.GraphReader, all []domain.Question) []string {
	texts := make(map[string]string, len(all))
	for _, q := range all {
		texts[q.ID] = q.Text
	}

	var problems []string
	targets := make(map[string]bool)
	for _, q := range all {
		edges, err := g.EdgesFrom(ctx, q.ID)
		if err != nil {
			continue
		}
		for _, edge := range edges {
			targets[edge.To] = true
		}
	}

	for target := range targets {
		into, err := g.EdgesInto(ctx, target)
		if err != nil {
			continue
		}
		seenLiteral := make(map[string]string)
		wildcardsByText := make(map[string]int)
		for _, edge := range into {
			text := texts[edge.From]
			if edge.Wildcard() {
				wildcardsByText[text]++
				continue
			}
			key := text + "\x00" + *edge.Answer
			if other, dup := seenLiteral[key]; dup {
				problems = append(problems, fmt.Sprintf(
					"undo ambiguity into %s: questions %q and %q share text and answer %q",
					describeTarget(target), other, edge.From, *edge.Answer))
				continue
			}
			seenLiteral[key] = edge.From
		}
		for text, n := range wildcardsByText {
			if n > 1 {
				problems = append(problems, fmt.Sprintf(
					"undo ambiguity into %s: %d wildcard choices from questions with text %q",
					describeTarget(target), n, text))
			}
		}
		// A literal and a wildcard from the same source text also tie when
		// the literal answer is given.
		for key, from := range seenLiteral {
			text := key[:strings.IndexByte(key, 0)]
			if wildcardsByText[text] > 0 {
				problems = append(problems, fmt.Sprintf(
					"undo ambiguity into %s: question %q literal answer shadowed by a wildcard from text %q",
					describeTarget(target), from, text))
			}
		}
	}
	return problems
}

func describeTarget(target string) string {
	if target == "" {
		return "the end of the survey"
	}
	return fmt.Sprintf("question %q", target)
}
