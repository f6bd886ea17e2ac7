package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/docket-lab/docket/pkg/utils/logging"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("DOCKET_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Sources:     cli.EnvVars("DOCKET_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if databaseID == "" {
				databaseID = "(default)"
			}

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"dryRun", dryRun)

			indexConfig := getIndexConfig()

			client, err := fireconf.New(ctx, projectID, databaseID, indexConfig,
				fireconf.WithLogger(logger))
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")

				names := make([]string, 0, len(indexConfig.Collections))
				for _, col := range indexConfig.Collections {
					names = append(names, col.Name)
				}
				current, err := client.Import(ctx, names...)
				if err != nil {
					return goerr.Wrap(err, "failed to import current configuration")
				}

				diff, err := client.DiffConfigs(current)
				if err != nil {
					return goerr.Wrap(err, "failed to diff configurations")
				}

				if len(diff.Collections) == 0 {
					logger.Info("No changes required")
					return nil
				}

				for _, col := range diff.Collections {
					logger.Info("Collection change",
						"collection", col.Name,
						"action", col.Action,
						"indexesToAdd", len(col.IndexesToAdd),
						"indexesToDelete", len(col.IndexesToDelete))
				}
			} else {
				logger.Info("Applying migrations")
				if err := client.Migrate(ctx); err != nil {
					return goerr.Wrap(err, "failed to apply migrations")
				}
				logger.Info("Migrations applied successfully")
			}

			return nil
		},
	}
}

// getIndexConfig returns the Firestore index configuration
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: "messages",
				Indexes: []fireconf.Index{
					// ListByHash: conversation_id ASC, content_hash ASC, received_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "conversation_id", Order: fireconf.OrderAscending},
							{Path: "content_hash", Order: fireconf.OrderAscending},
							{Path: "received_at", Order: fireconf.OrderDescending},
						},
					},
					// ListByConversation: conversation_id ASC, received_at ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "conversation_id", Order: fireconf.OrderAscending},
							{Path: "received_at", Order: fireconf.OrderAscending},
						},
					},
				},
			},
			{
				Name: "actions",
				Indexes: []fireconf.Index{
					// ListOpen and status-filtered List: conversation_id ASC, status ASC, updated_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "conversation_id", Order: fireconf.OrderAscending},
							{Path: "status", Order: fireconf.OrderAscending},
							{Path: "updated_at", Order: fireconf.OrderDescending},
						},
					},
					// List by conversation: conversation_id ASC, updated_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "conversation_id", Order: fireconf.OrderAscending},
							{Path: "updated_at", Order: fireconf.OrderDescending},
						},
					},
					// List by type: conversation_id ASC, type ASC, updated_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "conversation_id", Order: fireconf.OrderAscending},
							{Path: "type", Order: fireconf.OrderAscending},
							{Path: "updated_at", Order: fireconf.OrderDescending},
						},
					},
				},
			},
			{
				Name: "action_history",
				Indexes: []fireconf.Index{
					// ListByAction: action_id ASC, id ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "action_id", Order: fireconf.OrderAscending},
							{Path: "id", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
