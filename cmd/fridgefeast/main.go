package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"fridgefeast/internal/ai"
	"fridgefeast/internal/config"
	"fridgefeast/internal/illustrate"
	"fridgefeast/internal/recipes"
	"fridgefeast/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	var mock bool
	rootCmd := &cobra.Command{
		Use:           "fridgefeast",
		Short:         "Turn a photo of your fridge into recipes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&mock, "mock", false, "use fixture models instead of hosted ones")

	rootCmd.AddCommand(serveCmd(&mock))
	rootCmd.AddCommand(analyzeCmd(&mock))
	rootCmd.AddCommand(suggestCmd(&mock))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	provider ai.Provider
	svc      *recipes.Service
	shutdown telemetry.Shutdown
}

func newApp(ctx context.Context, mock bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Mock = cfg.Mock || mock

	_, shutdown, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	provider, err := ai.NewFromConfig(ctx, cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	ill := illustrate.FromConfig(ctx, cfg)
	return &app{
		cfg:      cfg,
		provider: provider,
		svc:      recipes.NewService(provider, provider, ill, cfg.Images.Enabled),
		shutdown: shutdown,
	}, nil
}

func (a *app) close() {
	if err := a.shutdown(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "telemetry shutdown:", err)
	}
}

func serveCmd(mock *bool) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *mock)
			if err != nil {
				return err
			}
			defer a.close()
			if addr == "" {
				addr = a.cfg.Addr
			}
			return runServer(a, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "address to bind (defaults to ADDR or :8080)")
	return cmd
}

func analyzeCmd(mock *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <image>",
		Short: "List the ingredients in a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *mock)
			if err != nil {
				return err
			}
			defer a.close()

			ingredients, err := detect(cmd.Context(), a.svc, args[0])
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"ingredients": ingredients})
		},
	}
}

func suggestCmd(mock *bool) *cobra.Command {
	var (
		count  int
		images bool
	)
	cmd := &cobra.Command{
		Use:   "suggest <image>",
		Short: "Suggest recipes for the ingredients in a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *mock)
			if err != nil {
				return err
			}
			defer a.close()

			ingredients, err := detect(ctx, a.svc, args[0])
			if err != nil {
				return err
			}
			list, err := a.svc.Suggest(ctx, recipes.SuggestRequest{
				Ingredients: lo.Map(ingredients, func(i ai.Ingredient, _ int) recipes.IngredientName {
					return recipes.IngredientName{Name: i.Name}
				}),
				Count: &count,
			})
			if err != nil {
				return err
			}
			if images {
				illustrateAll(ctx, a.svc, list)
			}
			return printJSON(map[string]any{"recipes": list})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", recipes.DefaultCount, "number of recipes")
	cmd.Flags().BoolVar(&images, "images", false, "fetch an illustration for each recipe")
	return cmd
}

func detect(ctx context.Context, svc *recipes.Service, path string) ([]ai.Ingredient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return svc.Detect(ctx, ai.DataURL(data))
}

// illustrateAll fills ImageURL in place. Failures leave the recipe without an image.
func illustrateAll(ctx context.Context, svc *recipes.Service, list []ai.Recipe) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for i := range list {
		g.Go(func() error {
			res, err := svc.Illustrate(ctx, list[i].Name, list[i].Ingredients)
			if err != nil {
				slog.WarnContext(ctx, "illustration failed", "recipe", list[i].Name, "error", err)
				return nil
			}
			if res.ImageURL != nil {
				list[i].ImageURL = *res.ImageURL
			}
			return nil
		})
	}
	_ = g.Wait()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
