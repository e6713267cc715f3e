/*
Package promotion is a survey progression engine for promotion sign-up
questionnaires.

A questionnaire is a directed graph of questions whose edges are answer
choices: a literal edge matches one exact answer, a wildcard edge accepts
any non-empty free text, and an edge with no target ends the survey. Each
owner (a user arriving from the web or Telegram) holds one survey that
walks the graph, appending accepted (question, answer) pairs to a flat log.

Two properties distinguish the engine from a plain state machine:

  - Every question carries a version token replaced on edit. A survey folds
    the token of each question it enters into a single fingerprint with XOR,
    so the fingerprint identifies exactly which question versions the owner
    saw, and folding the same token again removes it. Staleness detection
    and undo both fall out of this.

  - Undo is reconstructed, not recorded. Revert scans the edges leading
    into the current question for the one whose source text and answer
    match the last log pair; a single survivor identifies the step to undo,
    anything else leaves the survey untouched.

Answers may additionally project into an external user profile (phone,
Telegram username and similar). A value the field rejects blocks the step;
infrastructure failures are logged and never block.

# Usage

	app, err := promotion.New(
		promotion.WithGraphFile("questionnaire.yaml"),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	survey, report, err := app.Sessions.Start(ctx, "user-42", "web", false)
	// present report.Prompt and report.Choices, then:
	survey, report, err = app.Sessions.Advance(ctx, "user-42", "yes")

The pkg/adapters tree exposes the same session manager over HTTP and MCP,
and pkg/dsl builds graphs in Go code for tests and embedded questionnaires.
*/
package promotion
