package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/robertmeta/nutriinfo-cli/app"
	"github.com/robertmeta/nutriinfo-cli/config"
	"github.com/robertmeta/nutriinfo-cli/export"
	"github.com/robertmeta/nutriinfo-cli/logging"
	"github.com/robertmeta/nutriinfo-cli/model"
	"github.com/robertmeta/nutriinfo-cli/search"
	"github.com/robertmeta/nutriinfo-cli/server"
	"github.com/urfave/cli/v2"
)

const (
	ExitSuccess           = 0
	ExitGeneralError      = 1
	ExitUsageError        = 2
	ExitDataError         = 3
	ExitMissingCredential = 4
)

func main() {
	cliApp := &cli.App{
		Name:    "nutriinfo",
		Usage:   "Nutrition facts and recipe ideas for any food, as JSON",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: ./nutriinfo.yaml or ~/.config/nutriinfo/nutriinfo.yaml)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "SQLite database file path",
				EnvVars: []string{"NUTRIINFO_DB"},
			},
			&cli.StringFlag{
				Name:    "lang",
				Aliases: []string{"l"},
				Usage:   "Response language (pt-BR or en-US)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level on stderr (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:    "dev",
				Usage:   "Development logging with stack traces on errors",
				EnvVars: []string{"NUTRIINFO_DEV"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "lookup",
				Usage:     "Look up nutrition facts for a food",
				ArgsUsage: "<food...>",
				Action:    lookup,
			},
			{
				Name:   "recipes",
				Usage:  "Show the recipes of the last successful lookup",
				Action: listRecipes,
			},
			{
				Name:  "favorites",
				Usage: "Manage favorite recipes",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List favorite recipes",
						Action: listFavorites,
					},
					{
						Name:      "toggle",
						Usage:     "Add or remove a recipe from the last lookup",
						ArgsUsage: "<index|name>",
						Action:    toggleFavorite,
					},
					{
						Name:      "remove",
						Usage:     "Remove a favorite",
						ArgsUsage: "<name|id>",
						Action:    removeFavorite,
					},
					{
						Name:  "export",
						Usage: "Export favorites",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file (default: stdout)",
							},
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   "json or yaml (default: from file extension, else json)",
							},
						},
						Action: exportFavorites,
					},
					{
						Name:      "import",
						Usage:     "Import favorites from an exported file",
						ArgsUsage: "<file>",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   "json or yaml (default: from file extension)",
							},
						},
						Action: importFavorites,
					},
				},
			},
			{
				Name:  "serve",
				Usage: "Serve the JSON API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "Listen address (default from config)",
					},
				},
				Action: serve,
			},
			{
				Name:   "slots",
				Usage:  "List storage slots",
				Action: listSlots,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("db") {
		cfg.Storage.Driver = "sqlite"
		cfg.Storage.Path = c.String("db")
	}
	if c.IsSet("lang") {
		lang, err := model.ParseLanguage(c.String("lang"))
		if err != nil {
			return nil, err
		}
		cfg.App.Language = string(lang)
	}
	if c.IsSet("log-level") {
		cfg.App.LogLevel = c.String("log-level")
	}

	return cfg, nil
}

func getApp(c *cli.Context) (*app.App, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: c.Bool("dev"),
	})

	a, err := app.New(c.Context, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return a, nil
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

type indexedRecipe struct {
	Index int `json:"index"`
	app.RecipeView
}

func indexRecipes(views []app.RecipeView) []indexedRecipe {
	out := make([]indexedRecipe, len(views))
	for i, v := range views {
		out[i] = indexedRecipe{Index: i + 1, RecipeView: v}
	}
	return out
}

func lookup(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: nutriinfo lookup <food...>", ExitUsageError)
	}
	query := strings.Join(c.Args().Slice(), " ")

	a, err := getApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer a.Close()

	st, err := a.Lookup(c.Context, query)
	if errors.Is(err, search.ErrEmptyQuery) {
		return cli.Exit("Usage: nutriinfo lookup <food...>", ExitUsageError)
	}
	if err != nil {
		return cli.Exit(err.Error(), ExitGeneralError)
	}

	switch s := st.(type) {
	case search.Success:
		return outputJSON(map[string]interface{}{
			"state":   s,
			"recipes": indexRecipes(a.Annotate(s.Record.Recipes)),
		})
	case search.Failed:
		if err := outputJSON(map[string]interface{}{"state": s}); err != nil {
			return err
		}
		if s.Kind == model.ErrorMissingCredential {
			return cli.Exit(s.Message, ExitMissingCredential)
		}
		return cli.Exit(s.Message, ExitDataError)
	}
	return outputJSON(map[string]interface{}{"state": st})
}

func listRecipes(c *cli.Context) error {
	a, err := getApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer a.Close()

	rec, err := a.LastResult(c.Context)
	if errors.Is(err, app.ErrNoLastResult) {
		return cli.Exit("No lookup yet. Run: nutriinfo lookup <food>", ExitDataError)
	}
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"food":    rec.FoodName,
		"count":   len(rec.Recipes),
		"recipes": indexRecipes(a.Annotate(rec.Recipes)),
	})
}

func listFavorites(c *cli.Context) error {
	a, err := getApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer a.Close()

	views := a.Annotate(a.Favorites.List())
	return outputJSON(map[string]interface{}{
		"count":     len(views),
		"favorites": views,
	})
}

func toggleFavorite(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: nutriinfo favorites toggle <index|name>", ExitUsageError)
	}
	arg := strings.Join(c.Args().Slice(), " ")

	a, err := getApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer a.Close()

	var candidates []model.Recipe
	if rec, err := a.LastResult(c.Context); err == nil {
		candidates = rec.Recipes
	} else if !errors.Is(err, app.ErrNoLastResult) {
		return cli.Exit(err.Error(), ExitDataError)
	}

	recipe, ok := pickRecipe(arg, candidates, a.Favorites.List())
	if !ok {
		return cli.Exit(fmt.Sprintf("No recipe matches %q", arg), ExitDataError)
	}

	fav := a.Favorites.Toggle(c.Context, recipe)
	return outputJSON(map[string]interface{}{
		"success":     true,
		"recipe":      recipe.Name,
		"id":          recipe.ID(),
		"is_favorite": fav,
		"count":       a.Favorites.Len(),
	})
}

// pickRecipe resolves a 1-based index into the last result, or a name
// from the last result or the saved favorites.
func pickRecipe(arg string, last, saved []model.Recipe) (model.Recipe, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(last) {
			return last[n-1], true
		}
		return model.Recipe{}, false
	}
	for _, list := range [][]model.Recipe{last, saved} {
		for _, r := range list {
			if strings.EqualFold(r.Name, arg) {
				return r, true
			}
		}
	}
	return model.Recipe{}, false
}

func removeFavorite(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: nutriinfo favorites remove <name|id>", ExitUsageError)
	}
	key := strings.Join(c.Args().Slice(), " ")

	a, err := getApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer a.Close()

	if !a.Favorites.Remove(c.Context, key) {
		return cli.Exit(fmt.Sprintf("Favorite %q not found", key), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
		"removed": key,
		"count":   a.Favorites.Len(),
	})
}

func exportFavorites(c *cli.Context) error {
	outputPath := c.String("output")

	format := export.FormatFromPath(outputPath)
	if c.IsSet("format") {
		f, err := export.ParseFormat(c.String("format"))
		if err != nil {
			return cli.Exit(err.Error(), ExitUsageError)
		}
		format = f
	}

	a, err := getApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer a.Close()

	favs := a.Favorites.List()

	var writer io.Writer
	if outputPath == "" {
		writer = os.Stdout
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to create output file: %v", err), ExitDataError)
		}
		defer file.Close()
		writer = file
	}

	if err := export.Generate(writer, favs, format); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to export favorites: %v", err), ExitDataError)
	}

	// If outputting to file, also return JSON status
	if outputPath != "" {
		return outputJSON(map[string]interface{}{
			"success": true,
			"file":    outputPath,
			"format":  format,
			"count":   len(favs),
		})
	}

	return nil
}

func importFavorites(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: nutriinfo favorites import <file>", ExitUsageError)
	}
	path := c.Args().Get(0)

	format := export.FormatFromPath(path)
	if c.IsSet("format") {
		f, err := export.ParseFormat(c.String("format"))
		if err != nil {
			return cli.Exit(err.Error(), ExitUsageError)
		}
		format = f
	}

	file, err := os.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to open file: %v", err), ExitDataError)
	}
	defer file.Close()

	recipes, err := export.Parse(file, format)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to parse favorites: %v", err), ExitDataError)
	}

	a, err := getApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer a.Close()

	imported := a.Favorites.Merge(c.Context, recipes)

	return outputJSON(map[string]interface{}{
		"success":  true,
		"imported": imported,
		"skipped":  len(recipes) - imported,
		"total":    a.Favorites.Len(),
	})
}

func serve(c *cli.Context) error {
	a, err := getApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer a.Close()

	addr := a.Config.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(a, addr).Run(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("Server failed: %v", err), ExitGeneralError)
	}
	return nil
}

func listSlots(c *cli.Context) error {
	a, err := getApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer a.Close()

	slots, err := a.Slots.List(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to list slots: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"driver": a.Config.Storage.Driver,
		"count":  len(slots),
		"slots":  slots,
	})
}
