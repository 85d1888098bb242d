package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Support chat on a submission ticket",
}

var chatSendCmd = &cobra.Command{
	Use:   "send <ticket-id> <message...>",
	Short: "Send a message on a ticket",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runChatSend,
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <ticket-id>",
	Short: "Show the message thread for a ticket",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatHistory,
}

var chatReadCmd = &cobra.Command{
	Use:   "read <ticket-id>",
	Short: "Mark a ticket's messages as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatRead,
}

func init() {
	chatCmd.AddCommand(chatSendCmd, chatHistoryCmd, chatReadCmd)
}

func runChatSend(cmd *cobra.Command, args []string) error {
	ticketID := args[0]
	text := strings.Join(args[1:], " ")

	msg, err := cli.chat.Send(cmd.Context(), ticketID, text)
	if err != nil {
		return err
	}
	if msg != nil && msg.ID != "" {
		fmt.Printf("Sent (message %s)\n", msg.ID)
	} else {
		fmt.Println("Sent.")
	}
	return nil
}

func runChatHistory(cmd *cobra.Command, args []string) error {
	ticketID := args[0]

	messages, err := cli.chat.History(cmd.Context(), ticketID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Println("No messages on this ticket.")
		return nil
	}

	for _, msg := range messages {
		stamp := ""
		if !msg.CreatedAt.IsZero() {
			stamp = msg.CreatedAt.Local().Format(time.Stamp) + " "
		}
		fmt.Printf("%s%s: %s\n", stamp, msg.Sender, msg.Text)
	}

	if state := cli.chat.TypingStatus(cmd.Context(), ticketID); state.Typing {
		fmt.Printf("\n%s is typing...\n", state.By)
	}
	return nil
}

func runChatRead(cmd *cobra.Command, args []string) error {
	if err := cli.chat.MarkRead(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("Marked as read.")
	return nil
}
