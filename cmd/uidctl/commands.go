package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sportsuid/internal/platform/postgres"
	"sportsuid/internal/uid/composite"
	"sportsuid/internal/uid/format"
	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
	"sportsuid/internal/uid/store/legacy"
	"sportsuid/pkg/requestcontext"
)

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return &t, nil
}

func newGenerateCmd(g *globals) *cobra.Command {
	var category, region, date string
	var count int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Issue user identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			if count < 1 {
				return errors.New("--count must be at least 1")
			}
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := requestcontext.WithTime(cmd.Context(), time.Now())
			reqs := make([]models.GenerateRequest, count)
			for i := range reqs {
				reqs[i] = models.GenerateRequest{Category: category, Region: region, Date: d}
			}
			var uids []string
			if count == 1 {
				uid, err := a.Service.GenerateUID(ctx, reqs[0])
				if err != nil {
					return err
				}
				uids = []string{uid}
			} else if uids, err = a.Service.GenerateBatch(ctx, reqs); err != nil {
				return err
			}

			return g.print(cmd, map[string][]string{"uids": uids}, func(w io.Writer) error {
				for _, uid := range uids {
					fmt.Fprintln(w, uid)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "student|coach|institute|club|event incharge (required)")
	cmd.Flags().StringVar(&region, "region", "", "State or union territory name or code (required)")
	cmd.Flags().StringVar(&date, "date", "", "Issue date YYYY-MM-DD (default today)")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of identifiers to issue")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("region")
	return cmd
}

func newEventCmd(g *globals) *cobra.Command {
	var sport, region, date string
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Issue an event identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := requestcontext.WithTime(cmd.Context(), time.Now())
			uid, err := a.Service.GenerateEventUID(ctx, models.EventRequest{Sport: sport, Region: region, Date: d})
			if err != nil {
				return err
			}
			return g.print(cmd, map[string]string{"uid": uid}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, uid)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&sport, "sport", "", "Sport name or code (default OT)")
	cmd.Flags().StringVar(&region, "region", "", "State or union territory name or code (required)")
	cmd.Flags().StringVar(&date, "date", "", "Event date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("region")
	return cmd
}

type validation struct {
	UID    string             `json:"uid" yaml:"uid"`
	Valid  bool               `json:"valid" yaml:"valid"`
	Error  string             `json:"error,omitempty" yaml:"error,omitempty"`
	Fields *models.Components `json:"components,omitempty" yaml:"components,omitempty"`
}

func newValidateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate UID...",
		Short: "Check identifiers without touching storage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]validation, len(args))
			invalid := 0
			for i, arg := range args {
				res := format.Validate(format.FromDisplay(arg))
				results[i] = validation{UID: arg, Valid: res.Valid, Fields: res.Components}
				if res.Err != nil {
					results[i].Error = res.Err.Error()
					invalid++
				}
			}
			err := g.print(cmd, results, func(w io.Writer) error {
				for _, r := range results {
					if r.Valid {
						fmt.Fprintf(w, "%s\tvalid\n", r.UID)
					} else {
						fmt.Fprintf(w, "%s\tinvalid: %s\n", r.UID, r.Error)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d identifiers are invalid", invalid, len(args))
			}
			return nil
		},
	}
}

func newParseCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "parse UID",
		Short: "Decode a user, event, certificate or order identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := format.FromDisplay(args[0])
			if strings.HasPrefix(id, composite.CertificatePrefix+"-") || strings.HasPrefix(id, composite.OrderPrefix+"-") {
				parts, err := composite.Split(id)
				if err != nil {
					return err
				}
				return g.print(cmd, parts, func(w io.Writer) error {
					fmt.Fprintf(w, "kind\t%s\nevent\t%s\nholder\t%s\n", parts.Kind, parts.EventID, parts.HolderID)
					return nil
				})
			}

			c, err := format.Parse(id)
			if err != nil {
				return err
			}
			return g.print(cmd, c, func(w io.Writer) error {
				fmt.Fprintf(w, "kind\t%s\ncategory\t%s\nsequence\t%d\nregion\t%s\n", c.Kind, c.Category, c.Sequence, c.Region)
				if c.Kind == models.KindEvent {
					fmt.Fprintf(w, "sport\t%s\ndate\t%04d-%02d-%02d\n", c.Sport, c.Year, c.Month, c.Day)
				} else {
					fmt.Fprintf(w, "period\t%04d-%02d\n", c.Year, c.Month)
				}
				fmt.Fprintf(w, "partition\t%s\n", c.PartitionKey())
				return nil
			})
		},
	}
}

func newDisplayCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "display UID",
		Short: "Render a user identifier with separators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := format.ForDisplay(args[0])
			return g.print(cmd, map[string]string{"display": out}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, out)
				return err
			})
		},
	}
}

func newCompositeCmd(g *globals, use, short string, build func(eventID, holderID string) string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := build(format.FromDisplay(args[0]), format.FromDisplay(args[1]))
			if _, err := composite.Split(id); err != nil {
				return err
			}
			return g.print(cmd, map[string]string{"uid": id}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, id)
				return err
			})
		},
	}
}

func newCertificateCmd(g *globals) *cobra.Command {
	return newCompositeCmd(g, "certificate EVENT_UID STUDENT_UID", "Derive a certificate identifier", composite.Certificate)
}

func newOrderCmd(g *globals) *cobra.Command {
	return newCompositeCmd(g, "order EVENT_UID COACH_UID", "Derive an order identifier", composite.Order)
}

type inspection struct {
	Partition string `json:"partition" yaml:"partition"`
	Current   int    `json:"current" yaml:"current"`
	Capacity  int    `json:"capacity" yaml:"capacity"`
	Remaining int    `json:"remaining" yaml:"remaining"`
}

func newInspectCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect PARTITION...",
		Short: "Show the last sequence issued in partitions such as a:MH:03:2025",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]models.PartitionKey, len(args))
			for i, arg := range args {
				key, err := models.ParsePartitionKey(arg)
				if err != nil {
					return err
				}
				keys[i] = key
			}

			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := make([]inspection, len(keys))
			for i, key := range keys {
				cur, err := a.Service.CurrentSequence(cmd.Context(), key)
				if err != nil {
					return err
				}
				out[i] = inspection{Partition: key.String(), Current: cur, Capacity: key.Capacity(), Remaining: key.Capacity() - cur}
			}
			return g.print(cmd, out, func(w io.Writer) error {
				for _, in := range out {
					fmt.Fprintf(w, "%s\tcurrent=%d\tremaining=%d\n", in.Partition, in.Current, in.Remaining)
				}
				return nil
			})
		},
	}
}

func newMigrateCmd(g *globals) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				names, err := postgres.MigrationNames()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}

			cfg, err := g.config()
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("migrate needs DATABASE_URL")
			}
			db, err := postgres.Open(cmd.Context(), cfg.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()
			return postgres.Migrate(cmd.Context(), db, g.logger(cmd, cfg))
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List migrations instead of applying them")
	return cmd
}

func newSeedCmd(g *globals) *cobra.Command {
	var table, column, legacyURL string
	var partitions []string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Raise partition counters above identifiers already stored in a legacy table",
		Long: `seed scans a table that holds identifiers issued before this service existed
and raises each partition's counter to the highest sequence found, so new
identifiers never collide with old ones. Counters are never lowered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys := make([]models.PartitionKey, len(partitions))
			for i, p := range partitions {
				key, err := models.ParsePartitionKey(p)
				if err != nil {
					return err
				}
				keys[i] = key
			}

			cfg, err := g.config()
			if err != nil {
				return err
			}
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, ok := a.Counter.(ports.CounterSeeder); !ok {
				return fmt.Errorf("backend %q has no seedable counter", cfg.Backend)
			}

			pg := cfg.Postgres
			if legacyURL != "" {
				pg.URL = legacyURL
			}
			if pg.URL == "" {
				return errors.New("seed needs --legacy-url or DATABASE_URL")
			}
			db, err := postgres.Open(cmd.Context(), pg)
			if err != nil {
				return err
			}
			defer db.Close()

			scanner, err := legacy.NewScanner(db, table, column)
			if err != nil {
				return err
			}
			seeded, err := a.Seed(cmd.Context(), scanner, keys)
			if err != nil {
				return err
			}
			for _, s := range seeded {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tseeded to %d\n", s.Key, s.Floor)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Legacy table, optionally schema-qualified (required)")
	cmd.Flags().StringVar(&column, "column", "uid", "Column holding identifiers")
	cmd.Flags().StringVar(&legacyURL, "legacy-url", "", "Connection URL of the legacy database (default DATABASE_URL)")
	cmd.Flags().StringSliceVarP(&partitions, "partition", "p", nil, "Partition to seed, e.g. a:MH:03:2025 (repeatable, required)")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("partition")
	return cmd
}
