package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/docket-lab/docket/pkg/cli/config"
	"github.com/docket-lab/docket/pkg/domain/types"
	"github.com/docket-lab/docket/pkg/usecase"
	"github.com/docket-lab/docket/pkg/utils/logging"
)

func cmdVerify() *cli.Command {
	var conversationID string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "conversation-id",
			Usage:       "Limit verification to one conversation (all when empty)",
			Sources:     cli.EnvVars("DOCKET_CONVERSATION_ID"),
			Destination: &conversationID,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "verify",
		Usage: "Replay audit trails and report drift against stored actions",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			uc, err := usecase.New(repo)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}

			drifts, err := uc.Action.VerifyAll(ctx, types.ConversationID(conversationID))
			if err != nil {
				return goerr.Wrap(err, "verification failed")
			}

			if len(drifts) == 0 {
				color.New(color.FgGreen).Println("OK: all stored actions match their audit trails")
				return nil
			}

			red := color.New(color.FgRed)
			for _, d := range drifts {
				red.Printf("DRIFT action=%s field=%s ", d.ActionID, d.Field)
				fmt.Printf("stored=%q replayed=%q\n", d.Stored, d.Replayed)
			}
			return goerr.New("audit trail drift detected", goerr.V("count", len(drifts)))
		},
	}
}
