package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// CacheShow prints cached conversations, or one conversation's cached
// messages with --conversation.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	db, cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	if conversationID := cmd.String("conversation"); conversationID != "" {
		msgs, err := cache.Messages.ListByConversation(conversationID)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(msgs, cmd.Bool("pretty"))
		}
		if len(msgs) == 0 {
			return r.writePlain("Nothing cached for %s\n", conversationID)
		}
		for _, msg := range msgs {
			r.printMessage(msg)
		}
		return nil
	}

	convs, err := cache.Conversations.List()
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(convs, cmd.Bool("pretty"))
	}
	if len(convs) == 0 {
		return r.writePlain("Cache is empty\n")
	}
	for _, conv := range convs {
		preview := "no messages"
		if conv.LastMessage != nil {
			preview = conv.LastMessage.Preview()
		}
		r.writePlain("%s  %s (%d unread)\n    %s\n", conv.ID, conv.Partner.Username, conv.UnreadCount, preview)
	}
	return nil
}

// CacheClear empties the offline cache after confirmation.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		r.writePlain("Clear the offline cache? [y/N] ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			return r.writePlain("Aborted\n")
		}
	}

	db, cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := cache.Conversations.Clear(); err != nil {
		return err
	}
	r.logger.Info("offline cache cleared")
	return r.writePlain("✓ Cache cleared\n")
}
