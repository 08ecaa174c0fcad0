package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sngm3741/chat-survey/api/internal/config"
	"github.com/sngm3741/chat-survey/api/internal/infrastructure"
	"github.com/sngm3741/chat-survey/api/internal/logger"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "seed",
		Short:         "Seed demo surveys and inspect identifiers against the configured store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(issueCmd())
	return rootCmd
}

// services bundles the application layer wired to the configured store.
type services struct {
	log       *logrus.Logger
	resolver  *application.Resolver
	lifecycle *application.ResponseLifecycle
	issuer    *application.IdentifierIssuer
	surveys   *application.SurveyService
	close     infrastructure.CloseFunc
}

func connect(cmd *cobra.Command) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level, _ := cmd.Flags().GetString("log-level")
	log := logger.NewWithOutput("chat-survey-seed", level, cmd.ErrOrStderr())

	store, closeStore, err := infrastructure.Open(cmd.Context(), cfg, log)
	if err != nil {
		return nil, err
	}

	resolver := application.NewResolver(store, application.WithRejectAmbiguous(cfg.RejectAmbiguousIdentifiers))
	issuer := application.NewIdentifierIssuer(store)
	return &services{
		log:       log,
		resolver:  resolver,
		lifecycle: application.NewResponseLifecycle(store),
		issuer:    issuer,
		surveys:   application.NewSurveyService(store, resolver, issuer),
		close:     closeStore,
	}, nil
}

func (s *services) Close() {
	if err := s.close(context.Background()); err != nil {
		s.log.WithError(err).Warn("ストア切断時にエラー")
	}
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [ref]",
		Short: "Resolve a survey UUID or short code and print the canonical survey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			survey, err := svc.resolver.Resolve(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("resolve %q: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:         %s\n", survey.ID)
			fmt.Fprintf(out, "short code: %s\n", survey.ShortCode)
			fmt.Fprintf(out, "title:      %s\n", survey.Title)
			fmt.Fprintf(out, "creator:    %s\n", survey.CreatorName)
			fmt.Fprintf(out, "status:     %s\n", survey.Status)
			fmt.Fprintf(out, "questions:  %d\n", len(survey.Questions))
			return nil
		},
	}
}

func issueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a fresh identifier without persisting it",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "short-code",
		Short: "Issue an unused survey short code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			code, err := svc.issuer.IssueShortCode(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	})

	aliasCmd := &cobra.Command{
		Use:   "alias",
		Short: "Issue an unused creator alias",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			lang, _ := cmd.Flags().GetString("lang")
			alias, err := svc.issuer.IssueCreatorAlias(cmd.Context(), lang)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), alias)
			return nil
		},
	}
	aliasCmd.Flags().String("lang", "en", "language tag or Accept-Language value")
	cmd.AddCommand(aliasCmd)

	return cmd
}
