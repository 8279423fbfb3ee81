package main

import (
	"encoding/json"
	"fmt"

	"flux/internal/chat"
	"flux/internal/db"
	"flux/internal/models"
	"flux/internal/styles"
	"flux/internal/ui"

	"github.com/spf13/cobra"
)

var conversationsLimit int

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"convs", "history"},
	Short:   "List your conversations",
	RunE:    runConversationsList,
}

var conversationsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a conversation and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsRm,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a conversation transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

func init() {
	conversationsCmd.Flags().IntVarP(&conversationsLimit, "limit", "n", 20, "maximum conversations to list")
	conversationsCmd.AddCommand(conversationsRmCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	rootCmd.AddCommand(conversationsCmd)
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	a, err := setup(true, true)
	if err != nil {
		return err
	}
	defer a.close()

	manager := chat.NewManager(a.conn, a.session.UserID)
	items, err := manager.List(conversationsLimit)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Println(styles.InfoStyle("No conversations yet. Start one with `flux chat`."))
		return nil
	}

	for _, item := range items {
		header := fmt.Sprintf("%s  %s  [%s]  %s",
			item.ID,
			styles.TitleStyle.Render(item.Title),
			item.Mode,
			styles.InfoStyle(ui.RelativeTime(item.UpdatedAt)),
		)
		fmt.Println(header)
		if preview := ui.PromptPreview(item.LastMessage); preview != "" {
			fmt.Println("  " + styles.InfoStyle(ui.TruncateRunes(preview, 80)))
		}
	}
	fmt.Println()
	fmt.Println(styles.InfoStyle("Resume with `flux chat --resume <id>`."))
	return nil
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	a, err := setup(true, true)
	if err != nil {
		return err
	}
	defer a.close()

	conv, err := db.FindConversation(a.conn, args[0], a.session.UserID)
	if err != nil {
		return err
	}
	if conv == nil {
		fmt.Println(styles.InfoStyle("No such conversation."))
		return nil
	}

	manager := chat.NewManager(a.conn, a.session.UserID)
	msgs, err := manager.Messages(conv.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%s  [%s]\n\n", styles.TitleStyle.Render(conv.Title), conv.Mode)
	for _, msg := range msgs {
		label := styles.AssistantLabelStyle
		if msg.Role == models.RoleUser {
			label = styles.UserLabelStyle
		}
		fmt.Println(label.Render(msg.Role) + "  " + styles.InfoStyle(ui.RelativeTime(msg.CreatedAt)))
		switch content := msg.Content.(type) {
		case string:
			fmt.Println(content)
		default:
			pretty, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				fmt.Println(msg.Content)
				break
			}
			fmt.Println(string(pretty))
		}
		fmt.Println()
	}
	return nil
}

func runConversationsRm(cmd *cobra.Command, args []string) error {
	a, err := setup(true, true)
	if err != nil {
		return err
	}
	defer a.close()

	manager := chat.NewManager(a.conn, a.session.UserID)
	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	fmt.Println(styles.SuccessStyle.Render("Deleted."))
	return nil
}
