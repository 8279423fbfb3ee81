package main

import (
	"context"
	"fmt"

	"flux/internal/chat"
	"flux/internal/client"
	"flux/internal/models"
	"flux/internal/tools"
	"flux/internal/ui"

	"github.com/spf13/cobra"
)

var (
	chatResumeID  string
	chatToolFlags []string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long:  "Opens the interactive terminal session. Tools can be toggled with Ctrl+T or pre-enabled with --tools; URLs and fresh-info questions activate tools automatically per message.",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatResumeID, "resume", "r", "", "resume an existing conversation by id")
	chatCmd.Flags().StringSliceVarP(&chatToolFlags, "tools", "t", nil, "tools to enable (google_search, code_execution, url_context)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := setup(true, true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	gateway, err := client.NewGeminiClient(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer gateway.Close()
	gateway.SetSystemInstruction(ui.ChatSystemPrompt)

	registry := tools.NewRegistry()
	defer registry.Reset()

	mode := models.ModeChat
	if len(chatToolFlags) > 0 {
		registry.SetEnabled(chatToolFlags)
		mode = models.ModeTool
	}

	manager := chat.NewManager(a.conn, a.session.UserID)
	conv, err := manager.GetOrCreate(chatResumeID, mode)
	if err != nil {
		return err
	}

	orchestrator := chat.NewOrchestrator(manager, gateway, registry)

	p := ui.NewProgram(ui.SessionDeps{
		Orchestrator:   orchestrator,
		Manager:        manager,
		Registry:       registry,
		ConversationID: conv.ID,
		Mode:           mode,
	})
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("session ended with an error: %w", err)
	}
	return nil
}
