package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/unclebandit/deskagent/internal/model"
	"github.com/unclebandit/deskagent/internal/repository"
	"github.com/unclebandit/deskagent/internal/service"
)

var (
	addFields  = map[string]*string{}
	addTarget  *float64
	addTags    *[]string
	listStatus *string
	cleanSeed  *int64
	msgKind    *string
)

func init() {
	for _, f := range []struct{ col, flag, usage string }{
		{model.ColName, "name", "Campaign owner's name."},
		{model.ColEmail, "email", "Contact email."},
		{model.ColPhone, "phone", "Contact phone."},
		{model.ColTitle, "title", "Campaign title."},
		{model.ColPresentationText, "text", "Presentation text as written by the owner."},
		{model.ColCategory, "category", "Campaign category."},
		{model.ColDonationType, "donation-type", "Donation type."},
		{model.ColStatus, "status", "Initial status (draft, pending, active, completed)."},
		{model.ColCampaignImage, "image", "Path or URL of the campaign image."},
		{model.ColNotes, "notes", "Free-form notes."},
	} {
		addFields[f.col] = addCmd.Flags().String(f.flag, "", f.usage)
	}
	addTarget = addCmd.Flags().Float64("target", 0, "Target amount in EUR.")
	addTags = addCmd.Flags().StringSlice("tags", nil, "Comma separated tags.")

	listStatus = listCmd.Flags().String("status", "", "Only show campaigns with this status.")
	cleanSeed = cleanCmd.Flags().Int64("seed", -1, "Pick the suggested title with this seed instead of taking the first candidate.")
	msgKind = messageCmd.Flags().String("template", service.TemplateStandard,
		"Message template ("+strings.Join(service.TemplateKinds(), ", ")+").")

	rootCmd.AddCommand(addCmd, listCmd, showCmd, updateCmd, cleanCmd, titlesCmd, messageCmd, pendingCmd, processCmd)
}

var addCmd = &cobra.Command{
	Use:   "add --name <name> --title <title> [flags]",
	Short: "Adds a new campaign to the store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := &model.Campaign{TargetAmount: *addTarget}
		for col, v := range addFields {
			if *v == "" {
				continue
			}
			if err := c.Set(col, *v); err != nil {
				return err
			}
		}
		c.SetTags(*addTags)

		if _, err := svc.CreateCampaign(c); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added campaign %s (%s)\n", c.ID, c.Status)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [--status <status>]",
	Short: "Lists the campaigns in the store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		pred := repository.All
		if *listStatus != "" {
			if !model.ValidStatus(*listStatus) {
				return fmt.Errorf("unknown status %q", *listStatus)
			}
			pred = repository.ByStatus(*listStatus)
		}
		seq, err := repo.Query(pred)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout(), table.Row{"ID", "Name", "Title", "Status", "URL", "Updated"})
		for c := range seq {
			t.AppendRow(table.Row{c.ID, c.Name, truncate(c.Title, 40), c.Status, c.WhydonateURL, c.LastUpdated})
		}
		t.Render()
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <campaign id>",
	Short: "Prints every column of one campaign.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := svc.GetCampaignDetails(args[0])
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout(), table.Row{"Column", "Value"})
		for _, col := range model.Columns {
			t.AppendRow(table.Row{col, c.Get(col)})
		}
		for col, v := range c.Extra {
			t.AppendRow(table.Row{col, v})
		}
		t.Render()
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <campaign id> <column>=<value>...",
	Short: "Sets columns of one campaign.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		updates := make(map[string]string, len(args)-1)
		for _, kv := range args[1:] {
			col, value, ok := strings.Cut(kv, "=")
			if !ok || col == "" {
				return fmt.Errorf("expected column=value, got %q", kv)
			}
			updates[col] = value
		}

		c, err := svc.UpdateCampaign(args[0], updates)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated campaign %s at %s\n", c.ID, c.LastUpdated)
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean <campaign id> [--seed <n>]",
	Short: "Normalizes the presentation text and suggests a title.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var seed *int64
		if *cleanSeed >= 0 {
			seed = cleanSeed
		}
		c, err := svc.CleanCampaign(args[0], seed)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Suggested title: %s\n\n%s\n", c.SuggestedTitle, c.CleanText)
		return nil
	},
}

var titlesCmd = &cobra.Command{
	Use:   "titles <campaign id>",
	Short: "Prints candidate titles for a campaign.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		titles, err := svc.SuggestTitlesFor(args[0])
		if err != nil {
			return err
		}
		t := newTable(cmd.OutOrStdout(), table.Row{"#", "Title"})
		for i, title := range titles {
			t.AppendRow(table.Row{i + 1, title})
		}
		t.Render()
		return nil
	},
}

var messageCmd = &cobra.Command{
	Use:   "message <campaign id> [--template <kind>]",
	Short: "Drafts the WhatsApp message for a created campaign.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := svc.GenerateMessage(args[0], *msgKind)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Lists campaigns that still need creating on the site.",
	RunE: func(cmd *cobra.Command, args []string) error {
		pending, err := svc.PendingCampaigns()
		if err != nil {
			return err
		}
		t := newTable(cmd.OutOrStdout(), table.Row{"ID", "Name", "Title", "Status", "Created"})
		for _, c := range pending {
			title := c.Title
			if title == "" {
				title = c.SuggestedTitle
			}
			t.AppendRow(table.Row{c.ID, c.Name, truncate(title, 40), c.Status, c.CreatedDate})
		}
		t.AppendFooter(table.Row{"", "", "Total", len(pending), ""})
		t.Render()
		return nil
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Creates every pending campaign on the site, one at a time.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if svc.Creator == nil {
			return fmt.Errorf("AUTOMATION_URL is not set")
		}
		results, err := svc.ProcessPending(cmd.Context())

		t := newTable(cmd.OutOrStdout(), table.Row{"ID", "Result", "URL / Error"})
		created := 0
		for _, res := range results {
			detail := res.URL
			if res.Status != "created" {
				detail = truncate(res.Error, 60)
			} else {
				created++
			}
			t.AppendRow(table.Row{res.CampaignID, res.Status, detail})
		}
		t.AppendFooter(table.Row{"", "Created", fmt.Sprintf("%d/%d", created, len(results))})
		t.Render()
		return err
	},
}
