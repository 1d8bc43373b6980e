package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"a11yfix.dev/pkg/a11yfix/internal/domain"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
	"a11yfix.dev/pkg/a11yfix/pkg"
)

// Message types on the serve channel.
const (
	msgGenerateProposal = "generateProposal"
	msgApplyProposal    = "applyProposal"
	msgProposalResponse = "proposalResponse"
	msgApplyResponse    = "applyResponse"
	msgError            = "error"
	msgStateChanged     = "stateChanged"
)

// inboundMessage is one request line. ID is echoed on the reply.
type inboundMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload"`
}

type stateChange struct {
	IssueID string           `json:"issueId"`
	From    m.PipelineState `json:"from"`
	To      m.PipelineState `json:"to"`
}

type serveError struct {
	Line  uint64 `json:"line,omitempty"`
	Error string `json:"error"`
}

func newServeCmd() *cobra.Command {
	var events bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer proposal and apply requests as JSON lines on stdin/stdout",
		Long: `Read one JSON message per line from standard input and write one reply per
request to standard output. Requests are {"type": "generateProposal"|"applyProposal",
"id": "...", "payload": {...}}; replies carry "proposalResponse", "applyResponse" or
"error". Requests for different issues run concurrently, so replies may arrive
out of order; match them by id or issueId. With --events every pipeline
transition is also written as a "stateChanged" message.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			writer := pkg.NewLineWriter[outboundMessage](cmd.OutOrStdout())

			var observer domain.StateObserver
			if events {
				observer = stateRelay(writer)
			}

			eng, err := newEngine(cmd.Context(), viper.GetViper(), observer)
			if err != nil {
				return err
			}

			return serve(cmd.Context(), eng, cmd.InOrStdin(), writer, viper.GetInt(serveParallelConfigKey))
		},
	}

	cmd.Flags().BoolVar(&events, "events", false, "emit stateChanged messages for every pipeline transition")

	cmd.Flags().Int(serveParallelFlagName, defaultServeParallel, "maximum number of requests handled at once")
	bindFlagToConfig(cmd.Flags().Lookup(serveParallelFlagName), serveParallelConfigKey)

	return cmd
}

// serve runs the message loop until in is exhausted or ctx is cancelled.
func serve(ctx context.Context, eng *engine, in io.Reader, writer pkg.LineWriter[outboundMessage], parallel int) error {
	if parallel <= 0 {
		parallel = defaultServeParallel
	}

	reader := pkg.NewLineReader[inboundMessage](in, pkg.DefaultMaxLineSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	slog.Info("serve started", "parallel", parallel)

	for gctx.Err() == nil {
		msg, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var decodeErr *pkg.DecodeError
		if errors.As(err, &decodeErr) {
			if werr := writer.Write(errorReply("", decodeErr.Line, decodeErr)); werr != nil {
				return werr
			}

			continue
		}

		if err != nil {
			_ = g.Wait()
			return fmt.Errorf("failed to read request: %w", err)
		}

		line := reader.Line()

		g.Go(func() error {
			return writer.Write(handleMessage(gctx, eng, msg, line))
		})
	}

	err := g.Wait()

	slog.Info("serve stopped", "replies", writer.Count(), "error", err)

	return err
}

func handleMessage(ctx context.Context, eng *engine, msg inboundMessage, line uint64) outboundMessage {
	switch msg.Type {
	case msgGenerateProposal:
		var req m.ProposalRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return errorReply(msg.ID, line, fmt.Errorf("invalid proposal request: %w", err))
		}

		return outboundMessage{
			Type:    msgProposalResponse,
			ID:      msg.ID,
			Payload: eng.orchestrator.GenerateProposal(ctx, req),
		}
	case msgApplyProposal:
		var req m.ApplyRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return errorReply(msg.ID, line, fmt.Errorf("invalid apply request: %w", err))
		}

		return outboundMessage{
			Type:    msgApplyResponse,
			ID:      msg.ID,
			Payload: eng.orchestrator.ApplyProposal(ctx, req),
		}
	default:
		return errorReply(msg.ID, line, fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// stateRelay writes each transition to the channel. A failed write drops the event.
func stateRelay(writer pkg.LineWriter[outboundMessage]) domain.StateObserver {
	return func(issueID string, from, to m.PipelineState) {
		err := writer.Write(outboundMessage{
			Type:    msgStateChanged,
			Payload: stateChange{IssueID: issueID, From: from, To: to},
		})
		if err != nil {
			slog.Warn("failed to write state change", "issue", issueID, "to", to, "error", err)
		}
	}
}

func errorReply(id string, line uint64, err error) outboundMessage {
	slog.Warn("rejected request", "id", id, "line", line, "error", err)

	return outboundMessage{
		Type:    msgError,
		ID:      id,
		Payload: serveError{Line: line, Error: err.Error()},
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
