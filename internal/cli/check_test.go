package cli

import (
	"strings"
	"testing"

	"github.com/aidanlsb/corvid/internal/testutil"
)

func TestCheckReportsFindings(t *testing.T) {
	setupCLITest(t)

	ws := testutil.NewWorkspace(t).
		WithFile("paper.org", strings.Join([]string{
			"bibliography:refs.bib",
			"",
			"<<intro>>",
			"See cite:knuth1984,ghost2020 and ref:intro plus ref:missing.",
			"",
		}, "\n")).
		WithBib("refs.bib", map[string]int{"knuth1984": 1984}).
		Build()

	out, err := captureStdout(t, func() error {
		return checkCmd.RunE(checkCmd, []string{ws.Abs("paper.org")})
	})
	if err != nil {
		t.Fatalf("check returned error: %v", err)
	}

	if !strings.Contains(out, "ghost2020") {
		t.Errorf("expected unresolved citation ghost2020, got:\n%s", out)
	}
	if strings.Contains(out, "knuth1984") {
		t.Errorf("resolved key knuth1984 must not be flagged, got:\n%s", out)
	}
	if !strings.Contains(out, "missing") {
		t.Errorf("expected unresolved reference missing, got:\n%s", out)
	}
	if strings.Contains(out, "intro") {
		t.Errorf("resolved reference intro must not be flagged, got:\n%s", out)
	}
	if !strings.Contains(out, "2 issue(s)") {
		t.Errorf("expected 2 issues, got:\n%s", out)
	}
}

func TestCheckCleanDocument(t *testing.T) {
	setupCLITest(t)

	ws := testutil.NewWorkspace(t).
		WithFile("paper.org", "bibliography:refs.bib\n\n<<intro>>\ncite:knuth1984 and ref:intro.\n").
		WithBib("refs.bib", map[string]int{"knuth1984": 1984}).
		Build()

	out, err := captureStdout(t, func() error {
		return checkCmd.RunE(checkCmd, []string{ws.Abs("paper.org")})
	})
	if err != nil {
		t.Fatalf("check returned error: %v", err)
	}
	if !strings.Contains(out, "No issues found.") {
		t.Errorf("expected clean report, got:\n%s", out)
	}
}

func TestCheckRemembersLastDocument(t *testing.T) {
	setupCLITest(t)

	ws := testutil.NewWorkspace(t).
		WithFile("paper.org", "Nothing to see.\n").
		Build()

	if _, err := captureStdout(t, func() error {
		return checkCmd.RunE(checkCmd, []string{ws.Abs("paper.org")})
	}); err != nil {
		t.Fatalf("first check returned error: %v", err)
	}

	// No file argument: the remembered document is used.
	out, err := captureStdout(t, func() error {
		return checkCmd.RunE(checkCmd, nil)
	})
	if err != nil {
		t.Fatalf("second check returned error: %v", err)
	}
	if !strings.Contains(out, "paper.org") {
		t.Errorf("expected remembered document in output, got:\n%s", out)
	}
}

func TestResolveFindsDefiningFile(t *testing.T) {
	setupCLITest(t)

	ws := testutil.NewWorkspace(t).
		WithFile("paper.org", "bibliography:first.bib,second.bib\n\ncite:lamport1994\n").
		WithBib("first.bib", map[string]int{"knuth1984": 1984}).
		WithBib("second.bib", map[string]int{"lamport1994": 1994}).
		Build()

	out, err := captureStdout(t, func() error {
		return resolveCmd.RunE(resolveCmd, []string{"lamport1994", ws.Abs("paper.org")})
	})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if !strings.Contains(out, "second.bib") {
		t.Errorf("expected second.bib, got:\n%s", out)
	}
}

func TestResolveMissingKeyFails(t *testing.T) {
	setupCLITest(t)

	ws := testutil.NewWorkspace(t).
		WithFile("paper.org", "bibliography:refs.bib\n").
		WithBib("refs.bib", map[string]int{"knuth1984": 1984}).
		Build()

	_, err := captureStdout(t, func() error {
		return resolveCmd.RunE(resolveCmd, []string{"ghost2020", ws.Abs("paper.org")})
	})
	if err == nil {
		t.Fatal("expected error for missing key")
	}
}
