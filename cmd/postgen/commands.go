package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"autopost/cmd/internal/app"
	"autopost/config"
	"autopost/eventbus"
	"autopost/events"
	"autopost/models"
	"autopost/services"
	"autopost/settings"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a post and publish it (if posting is enabled)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		res, err := a.Service.GenerateAndPost(ctx, services.Request{Identity: identity, Trigger: models.TriggerCLI})
		if err != nil {
			return err
		}
		if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if res.Status != models.PostStatusCompleted {
			return fmt.Errorf("post %s %s: %s", res.PostID, res.Status, res.Error)
		}
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the composed prompt without calling the generator or poster",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		p, err := a.Service.Preview(ctx, identity)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), p.Text())
		return err
	},
}

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Publish a generation request for the worker (for cron or other schedulers)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bus, err := app.NewEventBusFromEnv()
		if err != nil {
			return err
		}
		if bus == nil {
			return errors.New("KAFKA_BOOTSTRAP_SERVERS environment variable is required")
		}
		defer bus.Close()

		cfg := config.GetConfig()
		evt, err := eventbus.NewJSONEvent("", string(events.PostGenerationRequested), events.GenerationRequestedEvent{
			Identity:    identity,
			Trigger:     models.TriggerScheduled,
			RequestedAt: time.Now(),
		}, 0)
		if err != nil {
			return err
		}
		if err := bus.Publish(ctx, eventbus.TopicFor(cfg.EventBus.Topic).Base(), evt); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "published %s (%s)\n", evt.Type, evt.ID)
		return err
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage stored settings",
}

var settingsPutCmd = &cobra.Command{
	Use:   "put <category> <file.json|->",
	Short: "Store one settings category from a JSON file",
	Long:  "Categories: " + categoryNames(),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, ok := models.ParseCategory(args[0])
		if !ok {
			return fmt.Errorf("unknown category %q (one of %s)", args[0], categoryNames())
		}
		raw, err := readInput(cmd, args[1])
		if err != nil {
			return err
		}
		if _, err := settings.DecodePayload(category, raw); err != nil {
			return fmt.Errorf("invalid %s settings: %w", category, err)
		}

		ctx := cmd.Context()
		a, err := app.OpenStores(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		id := resolveIdentity(a)
		if err := a.Settings.Put(ctx, id, category, raw); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored %s settings for %s\n", category, id)
		return err
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <category>",
	Short: "Print one stored settings category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, ok := models.ParseCategory(args[0])
		if !ok {
			return fmt.Errorf("unknown category %q (one of %s)", args[0], categoryNames())
		}
		ctx := cmd.Context()
		a, err := app.OpenStores(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		raw, err := a.Settings.Get(ctx, resolveIdentity(a), category)
		if errors.Is(err, settings.ErrNotFound) {
			return fmt.Errorf("no %s settings stored, defaults apply", category)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return err
	},
}

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage the persona summary",
}

var personaPutCmd = &cobra.Command{
	Use:   "put <file.json|->",
	Short: "Replace the persona from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		var p models.Persona
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("invalid persona: %w", err)
		}

		ctx := cmd.Context()
		a, err := app.OpenStores(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		p.Identity = resolveIdentity(a)
		p.UpdatedAt = time.Now()
		if err := a.Personas.Upsert(ctx, &p); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored persona for %s (%d traits)\n", p.Identity, len(p.Traits))
		return err
	},
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Manage recent activities",
}

var activityAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Record a recent activity",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return errors.New("activity text is empty")
		}

		ctx := cmd.Context()
		a, err := app.OpenStores(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		act := models.Activity{Identity: resolveIdentity(a), Text: text, CreatedAt: time.Now()}
		if err := a.Activities.Insert(ctx, act); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "recorded activity for %s\n", act.Identity)
		return err
	},
}

var recoverOlderThan time.Duration

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Mark runs stuck in pending or processing as failed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.OpenStores(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		n, err := services.NewRecoveryService(a.PostLogs, recoverOlderThan).RecoverStale(ctx, 0)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "recovered %d posts\n", n)
		return err
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the latest post records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.OpenStores(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		items, err := a.PostLogs.ListRecent(ctx, resolveIdentity(a), historyLimit)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), items)
	},
}

func init() {
	recoverCmd.Flags().DurationVar(&recoverOlderThan, "older-than", 30*time.Minute, "Only runs not updated for this long")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of records")

	settingsCmd.AddCommand(settingsPutCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	personaCmd.AddCommand(personaPutCmd)
	activityCmd.AddCommand(activityAddCmd)
}

func resolveIdentity(a *app.App) string {
	if v := strings.TrimSpace(identity); v != "" {
		return v
	}
	return a.Config.Identity.Default
}

func categoryNames() string {
	names := make([]string, len(models.AllCategories))
	for i, c := range models.AllCategories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// readInput 은 path 가 "-" 면 표준 입력을 읽는다.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return raw, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
