package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/docket-lab/docket/pkg/cli/config"
	"github.com/docket-lab/docket/pkg/domain/interfaces"
	"github.com/docket-lab/docket/pkg/domain/types"
	"github.com/docket-lab/docket/pkg/repository/memory"
	"github.com/docket-lab/docket/pkg/usecase"
)

// demoScript is a representative RM-client exchange covering creation,
// matching, metadata capture and completion.
var demoScript = []usecase.IncomingMessage{
	{Sender: types.OwnerRM, Text: "Hi! To open your account, please share your PAN card and latest bank statement."},
	{Sender: types.OwnerClient, Text: "Sure, will send the PAN card by evening."},
	{Sender: types.OwnerClient, Text: "My PAN is ABCDE1234F"},
	{Sender: types.OwnerRM, Text: "Thanks. Also need a passport size photo, you can upload it at https://portal.example.com/upload"},
	{Sender: types.OwnerClient, Text: "PAN card ABCDE1234F is sent, please check."},
	{Sender: types.OwnerClient, Text: "Uploaded the photo too."},
}

func cmdDemo() *cli.Command {
	var engineCfg config.Engine

	return &cli.Command{
		Name:  "demo",
		Usage: "Run a scripted conversation through an in-memory engine",
		Flags: engineCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			ucOpts, err := engineCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure engine")
			}

			repo := memory.New()
			uc, err := usecase.New(repo, ucOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}

			conversationID := types.ConversationID("demo-conversation")
			base := time.Now().Add(-time.Hour)

			bold := color.New(color.Bold)
			senderColor := map[types.Owner]*color.Color{
				types.OwnerRM:     color.New(color.FgCyan),
				types.OwnerClient: color.New(color.FgGreen),
			}

			for i, in := range demoScript {
				in.ReceivedAt = base.Add(time.Duration(i) * time.Minute)
				senderColor[in.Sender].Printf("[%s] ", in.Sender)
				fmt.Println(in.Text)

				result, err := uc.Chat.ProcessChat(ctx, conversationID, []usecase.IncomingMessage{in})
				if err != nil {
					return goerr.Wrap(err, "failed to process message")
				}
				for _, mr := range result.Messages {
					for _, tr := range mr.Transitions {
						fmt.Printf("    -> %s %s (%s, confidence %.2f)\n",
							tr.Entry.EventType, tr.Action.TaskText, tr.Action.Status, tr.Confidence)
					}
				}
			}

			actions, err := uc.Action.List(ctx, interfaces.ListActionsOptions{ConversationID: conversationID})
			if err != nil {
				return goerr.Wrap(err, "failed to list actions")
			}

			fmt.Println()
			bold.Println("Final action items:")
			for _, a := range actions {
				statusColor := color.New(color.FgYellow)
				if a.Status == types.ActionStatusClosed {
					statusColor = color.New(color.FgGreen)
				}
				fmt.Printf("  #%d %-40s owner=%-6s ", a.ID, a.TaskText, a.Owner)
				statusColor.Println(a.Status)

				entries, err := uc.Action.History(ctx, a.ID)
				if err != nil {
					return goerr.Wrap(err, "failed to list history")
				}
				for _, e := range entries {
					fmt.Printf("      %3d %-18s %s -> %s\n",
						e.ID, e.EventType, orDash(e.PreviousStatus.String()), e.NewStatus)
				}
			}

			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
