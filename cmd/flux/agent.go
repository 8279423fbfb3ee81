package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"flux/internal/agent"
	"flux/internal/chat"
	"flux/internal/client"
	"flux/internal/logging"
	"flux/internal/models"
	"flux/internal/styles"

	"github.com/spf13/cobra"
)

var agentOutputDir string

var agentCmd = &cobra.Command{
	Use:   "agent <description>",
	Short: "Generate a complete project from a description",
	Long:  "Agent mode asks the model for a full application as structured JSON, validates it, and writes the project to disk.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().StringVarP(&agentOutputDir, "output", "o", ".", "directory to create the project under")
	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	a, err := setup(true, true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	description := strings.Join(args, " ")

	ctx := context.Background()
	gateway, err := client.NewGeminiClient(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer gateway.Close()

	manager := chat.NewManager(a.conn, a.session.UserID)
	conv, err := manager.GetOrCreate("", models.ModeAgent)
	if err != nil {
		return err
	}
	if _, err := manager.AppendMessage(conv.ID, models.RoleUser, description); err != nil {
		return err
	}
	if err := manager.RenameIfFirstTurn(conv.ID, description); err != nil {
		logging.Warn("failed to derive conversation title", "error", err)
	}

	fmt.Println(styles.TitleStyle.Render("Agent Mode"))
	fmt.Println(styles.InfoStyle("Request: " + description))
	fmt.Println(styles.InfoStyle("Generating application..."))

	retrier := agent.NewRetrier(gateway, a.cfg.Agent.MaxAttempts)
	desc, err := retrier.Generate(ctx, agent.BuildPrompt(description))
	if err != nil {
		var exhausted *agent.ExhaustedError
		if errors.As(err, &exhausted) {
			fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render(fmt.Sprintf("Generation failed after %d attempts.", exhausted.Attempts)))
			if exhausted.LastRaw != "" {
				fmt.Fprintln(os.Stderr, styles.InfoStyle("Last model output:"))
				fmt.Fprintln(os.Stderr, exhausted.LastRaw)
			}
		}
		return err
	}

	// The validated descriptor is the assistant's turn in the transcript.
	if _, err := manager.AppendMessage(conv.ID, models.RoleAssistant, desc); err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render(fmt.Sprintf("History error: %v", err)))
	}

	materializer := &agent.Materializer{Root: agentOutputDir}
	projectDir, err := materializer.Materialize(desc)
	if err != nil {
		return err
	}

	fmt.Println(styles.SuccessStyle.Render("Generated: " + desc.FolderName))
	fmt.Println(styles.InfoStyle(desc.Description))
	fmt.Println()
	fmt.Println(agent.FileTree(desc))

	if len(desc.SetupCommands) > 0 {
		fmt.Println(styles.TitleStyle.Render("Setup"))
		for _, c := range desc.SetupCommands {
			fmt.Println("  " + c)
		}
	}
	fmt.Println()
	fmt.Println(styles.InfoStyle("Project written to " + projectDir))
	return nil
}
