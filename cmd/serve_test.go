package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
	"a11yfix.dev/pkg/a11yfix/pkg"
)

type replyLine struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

func decodeReplies(t *testing.T, out string) map[string]replyLine {
	t.Helper()

	replies := map[string]replyLine{}

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}

		var r replyLine
		require.NoError(t, json.Unmarshal([]byte(line), &r), line)
		replies[r.ID] = r
	}

	return replies
}

func testEngine(t *testing.T, replies ...string) *engine {
	t.Helper()

	useTestEngine(t, replies...)

	eng, err := newEngine(context.Background(), viper.New(), nil)
	require.NoError(t, err)

	return eng
}

func TestServe_ProposeThenApply(t *testing.T) {
	dir := t.TempDir()
	file := writeHomeDart(t, dir)
	eng := testEngine(t, goodReply)

	issue, err := json.Marshal(m.ProposalRequest{Issue: m.Issue{
		ID:            "img-42",
		Severity:      m.SeverityError,
		ElementType:   "Image",
		LocationHints: []m.LocationHint{{Source: m.HintVisualMatch, File: file, Line: 42}},
	}})
	require.NoError(t, err)

	in := fmt.Sprintf(`{"type": "generateProposal", "id": "p1", "payload": %s}`+"\n", issue)

	var out bytes.Buffer
	require.NoError(t, serve(context.Background(), eng, strings.NewReader(in), pkg.NewLineWriter[outboundMessage](&out), 2))

	replies := decodeReplies(t, out.String())
	require.Contains(t, replies, "p1")
	assert.Equal(t, msgProposalResponse, replies["p1"].Type)

	var proposal m.ProposalResponse
	require.NoError(t, json.Unmarshal(replies["p1"].Payload, &proposal))
	require.True(t, proposal.OK, proposal.Rationale)
	assert.Equal(t, m.StateProposed, proposal.State)
	assert.Contains(t, string(replies["p1"].Payload), `"state":"Proposed"`)

	apply, err := json.Marshal(m.ApplyRequest{
		IssueID:   proposal.IssueID,
		File:      proposal.Proposal.File,
		StartLine: proposal.Proposal.StartLine,
		EndLine:   proposal.Proposal.EndLine,
		NewCode:   proposal.Proposal.NewCode,
	})
	require.NoError(t, err)

	out.Reset()
	in = fmt.Sprintf(`{"type": "applyProposal", "id": "a1", "payload": %s}`+"\n", apply)
	require.NoError(t, serve(context.Background(), eng, strings.NewReader(in), pkg.NewLineWriter[outboundMessage](&out), 2))

	replies = decodeReplies(t, out.String())
	assert.Equal(t, msgApplyResponse, replies["a1"].Type)

	var applied m.ApplyResponse
	require.NoError(t, json.Unmarshal(replies["a1"].Payload, &applied))
	assert.True(t, applied.OK, applied.Error)
	assert.NotEmpty(t, applied.BackupPath)

	content, err := os.ReadFile(string(file))
	require.NoError(t, err)
	assert.Contains(t, string(content), labeledLine)
}

func TestServe_BadLinesGetErrorReplies(t *testing.T) {
	eng := testEngine(t)

	in := strings.Join([]string{
		`not json at all`,
		`{"type": "dance", "id": "d1", "payload": {}}`,
		`{"type": "generateProposal", "id": "g1", "payload": "oops"}`,
		``,
		`{"type": "applyProposal", "id": "a1", "payload": {"issueId": "x", "file": "missing.dart", "startLine": 1, "endLine": 1, "newCode": "y"}}`,
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, serve(context.Background(), eng, strings.NewReader(in), pkg.NewLineWriter[outboundMessage](&out), 0))

	replies := decodeReplies(t, out.String())
	require.Len(t, replies, 4)

	assert.Equal(t, msgError, replies[""].Type)
	assert.Contains(t, string(replies[""].Payload), `"line":1`)
	assert.Equal(t, msgError, replies["d1"].Type)
	assert.Contains(t, string(replies["d1"].Payload), "dance")
	assert.Equal(t, msgError, replies["g1"].Type)

	var applied m.ApplyResponse
	require.NoError(t, json.Unmarshal(replies["a1"].Payload, &applied))
	assert.False(t, applied.OK)
	assert.Equal(t, m.KindFileNotFound, applied.Kind)
}

func TestServe_ConcurrentIssues(t *testing.T) {
	dir := t.TempDir()
	file := writeHomeDart(t, dir)

	const n = 8

	replies := make([]string, n)
	for i := range replies {
		replies[i] = goodReply
	}

	eng := testEngine(t, replies...)

	var in strings.Builder

	for i := range n {
		req, err := json.Marshal(m.ProposalRequest{Issue: m.Issue{
			ID:            fmt.Sprintf("issue-%d", i),
			LocationHints: []m.LocationHint{{Source: m.HintSourceMap, File: file, Line: 42}},
		}})
		require.NoError(t, err)

		fmt.Fprintf(&in, `{"type": "generateProposal", "id": "r%d", "payload": %s}`+"\n", i, req)
	}

	var out bytes.Buffer
	require.NoError(t, serve(context.Background(), eng, strings.NewReader(in.String()), pkg.NewLineWriter[outboundMessage](&out), 4))

	got := decodeReplies(t, out.String())
	require.Len(t, got, n)

	for i := range n {
		var resp m.ProposalResponse
		require.NoError(t, json.Unmarshal(got[fmt.Sprintf("r%d", i)].Payload, &resp))
		assert.True(t, resp.OK, resp.Rationale)
		assert.Equal(t, fmt.Sprintf("issue-%d", i), resp.IssueID)
	}
}

func TestServeCmd_StateEvents(t *testing.T) {
	dir := t.TempDir()
	file := writeHomeDart(t, dir)
	useTestEngine(t, goodReply)

	req, err := json.Marshal(m.ProposalRequest{Issue: m.Issue{
		ID:            "img-42",
		LocationHints: []m.LocationHint{{Source: m.HintVisualMatch, File: file, Line: 42}},
	}})
	require.NoError(t, err)

	stdin := fmt.Sprintf(`{"type": "generateProposal", "id": "p1", "payload": %s}`+"\n", req)

	output, err := runCommand(t, newServeCmd(), stdin, "--events")
	require.NoError(t, err)

	var states []string

	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		var r replyLine
		require.NoError(t, json.Unmarshal([]byte(line), &r), line)

		if r.Type != msgStateChanged {
			continue
		}

		var change struct {
			IssueID string `json:"issueId"`
			To      string `json:"to"`
		}
		require.NoError(t, json.Unmarshal(r.Payload, &change))
		assert.Equal(t, "img-42", change.IssueID)
		states = append(states, change.To)
	}

	assert.Equal(t, []string{"Resolving", "ScopeLoaded", "Synthesizing", "Proposed"}, states)
	assert.Contains(t, output, `"type":"proposalResponse"`)
}
