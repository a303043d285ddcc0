package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qanoonbuddy/backend/internal/cli/ui"
	"github.com/qanoonbuddy/backend/internal/service/chat"
)

func newAskCmd(opts *options) *cobra.Command {
	var personaID string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "ask Qanoon Buddy a legal question",
		Long: `Ask a question about Pakistani family, tax or cyber crime law.

Without a question argument, questions are read line by line from stdin and
answered in one conversation until EOF.`,
		Example: `  $ qanoonctl ask "What is the punishment for cyber harassment?"
  $ qanoonctl ask --persona qanoon-buddy-ur`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			svc := opts.app.Chat

			session, err := svc.CreateSession(ctx, personaID)
			if err != nil {
				return err
			}
			defer func() { _ = svc.DeleteSession(ctx, session.ID) }()

			if opts.apiKey != "" {
				if err := svc.SetCredential(ctx, session.ID, opts.apiKey); err != nil {
					return err
				}
			}

			if len(args) > 0 {
				return askOnce(cmd, svc, session.ID, strings.Join(args, " "))
			}

			fmt.Fprintln(out, session.History[0].Content)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := askOnce(cmd, svc, session.ID, line); err != nil {
					ui.PrintError(out, "%v", err)
				}
			}
		},
	}
	cmd.Flags().StringVar(&personaID, "persona", "", "persona id (qanoon-buddy or qanoon-buddy-ur)")
	return cmd
}

func askOnce(cmd *cobra.Command, svc *chat.Service, sessionID, question string) error {
	out := cmd.OutOrStdout()
	reply, err := svc.StreamMessage(cmd.Context(), sessionID, question, func(delta string) {
		io.WriteString(out, delta)
	})
	if err != nil {
		return err
	}
	if reply.Warning != "" {
		ui.PrintWarning(out, "%s", reply.Warning)
		return nil
	}
	if reply.Failed {
		// 失败时没有输出增量，直接打印兜底回复
		fmt.Fprintln(out)
		ui.PrintError(out, "%s", reply.Assistant.Content)
		return nil
	}
	fmt.Fprintln(out)
	return nil
}
