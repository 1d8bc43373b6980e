package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"a11yfix.dev/pkg/a11yfix/internal/adapter"
	adaptermocks "a11yfix.dev/pkg/a11yfix/internal/adapter/mocks"
	"a11yfix.dev/pkg/a11yfix/internal/domain"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

const (
	imageLine   = "Image.asset('assets/x.png')"
	labeledLine = "Image.asset('assets/x.png', semanticLabel: 'desc')"
	goodReply   = `{"newCode": "Image.asset('assets/x.png', semanticLabel: 'desc')", "startLine": 42, "endLine": 42,
"accessibilityBefore": "image", "accessibilityAfter": "desc, image", "rationale": "adds a semantic label"}`
)

// useTestEngine swaps newEngine for one backed by the given oracle replies.
// An empty reply list yields an engine with no oracle configured.
func useTestEngine(t *testing.T, replies ...string) {
	t.Helper()

	var pool *adapter.OraclePool

	if len(replies) > 0 {
		oracle := adaptermocks.NewMockOracle(t)
		oracle.EXPECT().Name().Return("stub").Maybe()

		for _, reply := range replies {
			oracle.EXPECT().Generate(mock.Anything, mock.Anything).Return(reply, nil).Once()
		}

		pool = adapter.NewOraclePool(oracle)
	} else {
		pool = adapter.NewOraclePool()
	}

	original := newEngine
	t.Cleanup(func() { newEngine = original })

	newEngine = func(_ context.Context, _ *viper.Viper, observer domain.StateObserver) (*engine, error) {
		deps := domain.NewDependencies(adapter.NewLocalSourceFSAdapter(16), pool, 10, domain.SynthesizerOptions{})
		opts := domain.OrchestratorOptions{MaxAttempts: 1, RetryBackoff: 0, Observer: observer}

		return &engine{
			orchestrator: domain.NewOrchestrator(deps, opts),
			applier:      deps.Applier,
		}, nil
	}
}

// writeHomeDart writes a 60-line home.dart with the image at line 42.
func writeHomeDart(t *testing.T, dir string) m.Path {
	t.Helper()

	lines := make([]string, 60)
	for i := range lines {
		lines[i] = fmt.Sprintf("// line %d", i+1)
	}

	lines[41] = imageLine

	path := filepath.Join(dir, "home.dart")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	return m.Path(path)
}

func writeIssue(t *testing.T, dir string, file m.Path) string {
	t.Helper()

	doc := fmt.Sprintf(`id: img-42
severity: error
description: Image has no semantic label
elementType: Image
locationHints:
  - source: visual-match
    file: %s
    line: 42
    column: 4
`, file)

	path := filepath.Join(dir, "issue.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	return path
}

// runCommand executes cmd with args and returns its combined output.
func runCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func backupsIn(t *testing.T, dir string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "*.bak"))
	require.NoError(t, err)

	return matches
}
