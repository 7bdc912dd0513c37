package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Domenick1991/seatbooking/api"
	"github.com/Domenick1991/seatbooking/internal/bootstrap"
	"github.com/Domenick1991/seatbooking/internal/domain"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Apply the schema to the configured database",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := bootstrap.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Count  int
	Prefix string
	Random bool
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <event-id>",
		Short: "Create AVAILABLE seats for an event",
		Long: `Create AVAILABLE seats for an event.

Seats are numbered <prefix>1..<prefix>N unless --random is set, in which
case each seat number is a random UUID.

Example:
  seatctl seed concert-2026 --count 50 --prefix A`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Count < 1 {
				return fmt.Errorf("--count must be positive, got %d", opts.Count)
			}
			app, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			for i := 1; i <= opts.Count; i++ {
				number := fmt.Sprintf("%s%d", opts.Prefix, i)
				if opts.Random {
					number = uuid.NewString()
				}
				if _, err := app.Holds.CreateSeat(cmd.Context(), args[0], number); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d seats for %s\n", opts.Count, args[0])
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 10, "number of seats to create")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "S", "seat number prefix")
	cmd.Flags().BoolVar(&opts.Random, "random", false, "use random UUID seat numbers")

	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list [event-id]",
		Short:        "List seats and their state",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			eventID := ""
			if len(args) == 1 {
				eventID = args[0]
			}
			seats, err := app.Holds.ListSeats(cmd.Context(), eventID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEVENT\tSEAT\tSTATUS\tHELD BY\tEXPIRES")
			for _, s := range seats {
				expires := ""
				if s.HoldExpiresAt != nil {
					expires = s.HoldExpiresAt.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.EventID, s.SeatNumber, s.Status, s.HeldBy, expires)
			}
			return w.Flush()
		},
	}
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:          "sweep",
		Short:        "Release holds that have expired",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			released, err := app.Holds.ReleaseExpiredHolds(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "released %d expired holds\n", len(released))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "maximum holds to release")
	return cmd
}

// NewUserCommand creates the user command group.
func NewUserCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage registered users",
	}

	var name, email string
	add := &cobra.Command{
		Use:          "add <user-id>",
		Short:        "Register a user",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			actor := &domain.Actor{ID: args[0], Name: name, Email: email}
			if err := app.Holds.RegisterActor(cmd.Context(), actor); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered user %s\n", actor.ID)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&email, "email", "", "email address")

	cmd.AddCommand(add)
	return cmd
}

// NewTokenCommand creates the token command.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:          "token <user-id>",
		Short:        "Issue a bearer token for a user",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			token, err := api.IssueToken(cfg.Auth.JWTSecret, args[0], ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
