package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/chuongle2003/chorus-cli/internal/api"
	"github.com/chuongle2003/chorus-cli/internal/chat"
	"github.com/chuongle2003/chorus-cli/internal/media"
	"github.com/chuongle2003/chorus-cli/internal/models"
	"github.com/chuongle2003/chorus-cli/internal/shared"
)

// ConversationsList prints the roster, newest activity first.
func (r *Runner) ConversationsList(ctx context.Context, cmd *cli.Command) error {
	convs, err := r.api.ListConversations(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(convs, cmd.Bool("pretty"))
	}

	if len(convs) == 0 {
		return r.writePlain("No conversations yet\n")
	}
	for _, conv := range convs {
		unread := ""
		if conv.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d unread)", conv.UnreadCount)
		}
		preview := "no messages"
		if conv.LastMessage != nil {
			preview = conv.LastMessage.Preview()
		}
		r.writePlain("%s  %s%s\n    %s\n", conv.ID, conv.Partner.Username, unread, preview)
	}
	return nil
}

// ConversationStart opens (or reuses) a conversation with a user.
func (r *Runner) ConversationStart(ctx context.Context, cmd *cli.Command) error {
	partnerID := cmd.StringArg("user-id")
	if partnerID == "" {
		return fmt.Errorf("%w: user-id", shared.ErrMissingArgument)
	}

	conv, err := r.api.StartConversation(ctx, partnerID)
	if err != nil {
		return err
	}

	r.logger.Info("conversation ready", "id", conv.ID, "partner", conv.Partner.Username)
	return r.writePlain("✓ Conversation %s with %s\n", conv.ID, conv.Partner.Username)
}

// ConversationMarkRead marks every message in a conversation as read.
func (r *Runner) ConversationMarkRead(ctx context.Context, cmd *cli.Command) error {
	conversationID := cmd.StringArg("id")
	if conversationID == "" {
		return fmt.Errorf("%w: conversation id", shared.ErrMissingArgument)
	}

	if err := r.api.MarkRead(ctx, conversationID); err != nil {
		return err
	}
	return r.writePlain("✓ Marked read\n")
}

// ConversationWatch binds the socket to one conversation and streams
// inbound messages to the terminal until interrupted.
func (r *Runner) ConversationWatch(ctx context.Context, cmd *cli.Command) error {
	conversationID := cmd.StringArg("id")
	if conversationID == "" {
		return fmt.Errorf("%w: conversation id", shared.ErrMissingArgument)
	}

	var writeThrough chat.CacheWriter
	if db, cache, err := r.openCache(); err != nil {
		r.logger.Warn("offline cache unavailable", "error", err)
	} else {
		defer db.Close()
		writeThrough = cache
	}

	session := r.newSession(writeThrough)
	defer session.Stop()

	if err := session.Start(ctx); err != nil {
		return err
	}
	if err := session.Open(ctx, conversationID); err != nil {
		return err
	}

	for _, msg := range session.Store().Messages() {
		r.printMessage(msg)
	}
	r.writePlain("--- watching %s, ctrl+c to stop ---\n", conversationID)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			r.writePlain("\n")
			return nil
		case ev := <-session.Events():
			switch ev.Kind {
			case chat.EventMessageReceived:
				if ev.Message != nil {
					r.printMessage(*ev.Message)
				}
			case chat.EventConnState:
				r.logger.Info("connection state", "state", ev.State)
			case chat.EventNotice:
				r.writePlain("! %s\n", ev.Text)
			case chat.EventServerError:
				r.writePlain("! server: %s\n", ev.Text)
			case chat.EventTerminal:
				return fmt.Errorf("%w: close code %d: %s", shared.ErrConnClosed, ev.Code, ev.Text)
			}
		}
	}
}

func (r *Runner) printMessage(msg models.Message) {
	stamp := msg.Timestamp.Format(time.Kitchen)
	if msg.Timestamp.IsZero() {
		stamp = "--:--"
	}
	r.writePlain("[%s] %s: %s\n", stamp, msg.Sender.Username, msg.Preview())
}

// MessagesHistory prints a conversation's history oldest first.
func (r *Runner) MessagesHistory(ctx context.Context, cmd *cli.Command) error {
	conversationID := cmd.StringArg("conversation-id")
	if conversationID == "" {
		return fmt.Errorf("%w: conversation-id", shared.ErrMissingArgument)
	}

	msgs, err := r.api.ConversationMessages(ctx, conversationID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(msgs, cmd.Bool("pretty"))
	}

	if len(msgs) == 0 {
		return r.writePlain("No messages\n")
	}
	for _, msg := range msgs {
		r.printMessage(msg)
	}
	return nil
}

// MessageSend sends one text message over REST.
func (r *Runner) MessageSend(ctx context.Context, cmd *cli.Command) error {
	msg, err := r.api.CreateMessage(ctx, api.CreateMessageInput{
		ReceiverID: cmd.String("to"),
		Content:    cmd.String("content"),
		Type:       models.TypeText,
	})
	if err != nil {
		return err
	}

	r.logger.Info("message sent", "id", msg.ID)
	return r.writePlain("✓ Sent message %d\n", msg.ID)
}

// MessageShareSong shares a song with an optional note.
func (r *Runner) MessageShareSong(ctx context.Context, cmd *cli.Command) error {
	msg, err := r.api.CreateMessage(ctx, api.CreateMessageInput{
		ReceiverID: cmd.String("to"),
		Content:    cmd.String("note"),
		Type:       models.TypeSong,
		SongID:     cmd.String("song-id"),
	})
	if err != nil {
		return err
	}

	r.logger.Info("song shared", "id", msg.ID)
	return r.writePlain("✓ Shared song in message %d\n", msg.ID)
}

// MessageSharePlaylist shares a playlist with an optional note.
func (r *Runner) MessageSharePlaylist(ctx context.Context, cmd *cli.Command) error {
	msg, err := r.api.CreateMessage(ctx, api.CreateMessageInput{
		ReceiverID: cmd.String("to"),
		Content:    cmd.String("note"),
		Type:       models.TypePlaylist,
		PlaylistID: cmd.String("playlist-id"),
	})
	if err != nil {
		return err
	}

	r.logger.Info("playlist shared", "id", msg.ID)
	return r.writePlain("✓ Shared playlist in message %d\n", msg.ID)
}

// MessageDelete deletes a message after confirmation.
func (r *Runner) MessageDelete(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("id")
	if raw == "" {
		return fmt.Errorf("%w: message id", shared.ErrMissingArgument)
	}
	messageID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: message id must be a number", shared.ErrInvalidArgument)
	}

	if !cmd.Bool("yes") {
		r.writePlain("Delete message %d? This cannot be undone. [y/N] ", messageID)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			return r.writePlain("Aborted\n")
		}
	}

	if err := r.api.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted message %d\n", messageID)
}

// UserSearch finds users by name.
func (r *Runner) UserSearch(ctx context.Context, cmd *cli.Command) error {
	term := cmd.StringArg("term")
	if len([]rune(term)) < 3 {
		return fmt.Errorf("%w: search term needs at least 3 characters", shared.ErrInvalidArgument)
	}

	users, err := r.api.SearchUsers(ctx, term)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, cmd.Bool("pretty"))
	}

	if len(users) == 0 {
		return r.writePlain("No users matched %q\n", term)
	}
	for _, user := range users {
		r.writePlain("%s  %s\n", user.ID, user.Username)
	}
	return nil
}

// RecordVoiceNote captures audio from stdin and sends it as a voice note.
// Recording stops on EOF or at the limit, whichever comes first.
func (r *Runner) RecordVoiceNote(ctx context.Context, cmd *cli.Command) error {
	receiverID := cmd.String("to")

	limit := r.config.Media.RecordLimit()
	if secs := cmd.Int("limit"); secs > 0 {
		limit = time.Duration(secs) * time.Second
	}

	recorder := media.NewRecorder(os.Stdin, limit)
	r.logger.Info("recording", "limit", limit)
	r.writePlain("Recording from stdin (limit %s), EOF to finish...\n", limit)

	if err := recorder.Start(ctx); err != nil {
		return err
	}
	for recorder.Recording() {
		time.Sleep(100 * time.Millisecond)
	}
	rec, err := recorder.Stop()
	if err != nil {
		return err
	}
	if len(rec.Data) == 0 {
		return fmt.Errorf("%w: nothing recorded", shared.ErrInvalidInput)
	}
	if rec.AutoStopped {
		r.writePlain("Recording capped at %s\n", limit)
	}

	session := r.newSession(nil)
	defer session.Stop()
	if err := session.Start(ctx); err != nil {
		return err
	}

	if err := session.SendVoiceNote(ctx, receiverID, media.Filename(), bytes.NewReader(rec.Data)); err != nil {
		return err
	}
	return r.writePlain("✓ Voice note sent (%s)\n", rec.Duration.Round(time.Millisecond))
}
