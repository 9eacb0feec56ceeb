package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"bookreview-backend/internal/config"
	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/domains/author/service"
	"bookreview-backend/pkg/container"
	"bookreview-backend/pkg/jwt"
)

// RootCommand creates the authorctl command tree
func RootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "authorctl",
		Short:         "Author lookup and reconciliation tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		searchCommand(),
		popularCommand(),
		scoreCommand(),
		tokenCommand(),
	)

	return rootCmd
}

// withService builds the full container for commands that touch the store
func withService(ctx context.Context, fn func(svc service.ServiceInterface) error) error {
	c, err := container.NewContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Cleanup()

	return fn(c.AuthorService)
}

func searchCommand() *cobra.Command {
	var external, persist bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search authors locally and optionally in external sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			mode := service.ModeReadOnly
			if persist {
				mode = service.ModePersist
			}

			return withService(cmd.Context(), func(svc service.ServiceInterface) error {
				views, err := svc.SearchAuthors(cmd.Context(), query, external, mode)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), model.SearchResponse{
					Query:   strings.TrimSpace(query),
					Authors: views,
					Total:   len(views),
				})
			})
		},
	}

	cmd.Flags().BoolVar(&external, "external", false, "also query Open Library and Google Books")
	cmd.Flags().BoolVar(&persist, "persist", false, "reconcile external hits into the local store")
	return cmd
}

func popularCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Print the popular authors snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), func(svc service.ServiceInterface) error {
				authors, err := svc.GetPopularAuthors(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), model.PopularAuthorsResponse{
					Authors: authors,
					Total:   len(authors),
				})
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of authors")
	return cmd
}

func scoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score <full name>",
		Short: "Print the popularity score of a name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			given, family := model.SplitName(strings.Join(args, " "))
			if given == "" {
				return model.ErrEmptyAuthorName
			}

			a := &model.Author{GivenName: given, FamilyName: family}
			ranker := service.NewRanker(service.PopularAuthorNames)

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\tpopular=%t\n", a.FullName(), ranker.Score(a), ranker.IsPopular(a))
			return err
		},
	}
}

func tokenCommand() *cobra.Command {
	var userID, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for the protected endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != jwt.RoleUser && role != jwt.RoleAdmin {
				return fmt.Errorf("role must be %q or %q", jwt.RoleUser, jwt.RoleAdmin)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWT.AccessTokenExpiry
			}

			token, err := jwt.NewManager(cfg.JWT.Secret, ttl).GenerateAccessToken(userID, role)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "cli", "subject user id")
	cmd.Flags().StringVar(&role, "role", jwt.RoleUser, "user or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_ACCESS_EXPIRY)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
