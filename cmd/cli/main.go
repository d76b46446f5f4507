package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marcelsud/helpdesk-webhooks/config"
	"github.com/marcelsud/helpdesk-webhooks/seed"
	"github.com/marcelsud/helpdesk-webhooks/webhook"
	"github.com/marcelsud/helpdesk-webhooks/webhook/payload"
	webhookredis "github.com/marcelsud/helpdesk-webhooks/webhook/redis"
	"github.com/marcelsud/helpdesk-webhooks/webhook/signature"
	"github.com/marcelsud/helpdesk-webhooks/webhook/slack"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

/* webhooks - operator CLI for the webhook store
 * Talks to Redis directly with the same service the API uses
 */

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// app is built lazily so commands that need no storage stay offline
type app struct {
	cfg     *config.Config
	repo    *webhookredis.Repository
	service webhook.UseCase
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	repo, err := webhookredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}

	loader := seed.NewLoader()
	if cfg.SeedFile != "" {
		if err := loader.Load(cfg.SeedFile); err != nil {
			return err
		}
	}
	catalog := webhook.NewCatalog()
	if err := loader.RegisterEvents(catalog); err != nil {
		return err
	}

	signer, err := signature.NewSigner(cfg.AppKey)
	if err != nil {
		return err
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	dispatcher := webhook.NewDispatcher(repo, signer, slack.NewBuilder(cfg.AppURL, cfg.GetAppName(), nil),
		webhook.WithLogger(logger))

	a.cfg = cfg
	a.repo = repo
	a.service = webhook.NewService(repo, repo, dispatcher, catalog.Freeze(),
		webhook.WithConcurrency(cfg.GetDispatchConcurrency()),
		webhook.WithServiceLogger(logger))
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.repo != nil {
		a.repo.Close(ctx)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "webhooks",
		Short:         "Manage helpdesk webhook subscriptions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)

	withService := func(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			defer a.close(cmd.Context())
			return run(cmd, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "events",
			Short: "List the recognized events",
			RunE: withService(func(cmd *cobra.Command, args []string) error {
				for _, e := range a.service.Events() {
					fmt.Fprintln(cmd.OutOrStdout(), e)
				}
				return nil
			}),
		},
		createCmd(a, withService),
		&cobra.Command{
			Use:   "list",
			Short: "List webhook subscriptions",
			RunE: withService(func(cmd *cobra.Command, args []string) error {
				subs, err := a.service.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range subs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", s.ID, s.URL, strings.Join(s.Events, ","), s.LastRunError)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a webhook subscription",
			Args:  cobra.ExactArgs(1),
			RunE: withService(func(cmd *cobra.Command, args []string) error {
				return a.service.Delete(cmd.Context(), args[0])
			}),
		},
		logsCmd(a, withService),
		fireCmd(a, withService),
		&cobra.Command{
			Use:   "retry <log-id>",
			Short: "Retry a failed delivery from its log entry",
			Args:  cobra.ExactArgs(1),
			RunE: withService(func(cmd *cobra.Command, args []string) error {
				outcome, err := a.service.Retry(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printOutcome(cmd.OutOrStdout(), "", outcome)
				return nil
			}),
		},
		hashesCmd(),
	)
	return root
}

type serviceWrapper func(func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error

func createCmd(a *app, withService serviceWrapper) *cobra.Command {
	var mailboxes []int64
	cmd := &cobra.Command{
		Use:   "create <url> <events>",
		Short: "Register a webhook for a comma-separated list of events",
		Args:  cobra.ExactArgs(2),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			res, err := a.service.CreateWithMailboxes(cmd.Context(), args[0], args[1], mailboxes)
			if err != nil {
				return err
			}
			for _, e := range res.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "ignored unknown event %q\n", e)
			}
			if !res.Created() {
				return fmt.Errorf("no webhook created: url and at least one recognized event are required")
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Subscription.ID)
			return nil
		}),
	}
	cmd.Flags().Int64SliceVar(&mailboxes, "mailbox", nil, "restrict to these mailbox IDs")
	return cmd
}

func logsCmd(a *app, withService serviceWrapper) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "logs <webhook-id>",
		Short: "Show failed deliveries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			entries, err := a.service.Logs(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\n", e.ID, e.Event, e.StatusCode, e.Error)
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	return cmd
}

func fireCmd(a *app, withService serviceWrapper) *cobra.Command {
	var mailbox int64
	var file string
	cmd := &cobra.Command{
		Use:   "fire <event>",
		Short: "Deliver an event with a JSON entity read from --file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			entity, err := payload.Parse(data)
			if err != nil {
				return err
			}
			deliveries, err := a.service.Fire(cmd.Context(), args[0], entity, mailbox)
			if err != nil {
				return err
			}
			for _, d := range deliveries {
				printOutcome(cmd.OutOrStdout(), d.SubscriptionID, d.Outcome)
			}
			return nil
		}),
	}
	cmd.Flags().Int64Var(&mailbox, "mailbox", 0, "mailbox the entity belongs to (0 matches every webhook)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with the entity")
	return cmd
}

// hashesCmd needs only the installation key
func hashesCmd() *cobra.Command {
	var key, file string
	cmd := &cobra.Command{
		Use:   "hashes",
		Short: "Print the signing secret and the signature of a body",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				cfg, err := config.GetConfig()
				if err != nil {
					return err
				}
				key = cfg.AppKey
			}
			secret, err := signature.DeriveSecret(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "secret:    %s\n", secret)

			if file == "" {
				return nil
			}
			body, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signature: %s\n", signature.Sign(secret, body))
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "installation key (defaults to APP_KEY)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "body to sign, - for stdin")
	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return data, nil
}

func printOutcome(w io.Writer, webhookID string, o webhook.Outcome) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", webhookID, o.Branch, o.Status, o.StatusCode, o.LogID, o.Error)
}
