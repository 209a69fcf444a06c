package main

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/simplechat/internal/chatstore"
	"github.com/vovakirdan/simplechat/internal/client"
	"github.com/vovakirdan/simplechat/internal/composer"
	"github.com/vovakirdan/simplechat/internal/core"
	"github.com/vovakirdan/simplechat/internal/identity"
	"github.com/vovakirdan/simplechat/internal/log"
	"github.com/vovakirdan/simplechat/internal/proto"
	"github.com/vovakirdan/simplechat/internal/tui"
)

var (
	chatRoom string
	chatTo   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat screen in a room or a direct conversation",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatRoom, "room", "", "room to join (default from config)")
	chatCmd.Flags().StringVar(&chatTo, "to", "", "user to chat with directly")
	chatCmd.MarkFlagsMutuallyExclusive("room", "to")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	me, token, err := loadIdentity()
	if err != nil {
		return err
	}

	logger, logCloser, err := log.NewFile(cfg.Client.LogLevel, cfg.Client.LogFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	room := lo.CoalesceOrEmpty(chatRoom, cfg.Client.Room)
	var history []chatstore.Inbound
	if chatTo != "" {
		hist, err := client.NewAPI(cfg.Client.ServerURL, nil).WithToken(token).DirectHistory(ctx, chatTo)
		switch {
		case errors.Is(err, client.ErrUnauthorized):
			return errSessionExpired
		case errors.Is(err, client.ErrNotFound):
			return fmt.Errorf("user %q does not exist", chatTo)
		case err != nil:
			return err
		}
		room = hist.Room
		history = lo.Map(hist.Messages, func(m proto.EventMessage, _ int) chatstore.Inbound { return client.Inbound(m) })
	}

	conn, err := client.Dial(ctx, cfg.Client.ServerURL, nil, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	welcome, err := conn.Hello(ctx, token)
	if err != nil {
		var perr *proto.Error
		if errors.As(err, &perr) && perr.Code == core.ErrCodeUnauthorized {
			return errSessionExpired
		}
		return err
	}
	if welcome.User != me.Username {
		logger.Warn().Str("identity", me.Username).Str("token_user", welcome.User).Msg("identity and token disagree")
	}

	st := chatstore.New(ctx, conn, room, logger)
	defer st.Close()
	if history != nil {
		st.LoadHistory(room, history)
	}
	if err := conn.Join(ctx, room); err != nil {
		return err
	}

	m, err := tui.New(tui.Options{
		Identity:     me,
		Store:        st,
		Session:      conn,
		MaxInputRows: cfg.Client.MaxInputRows,
		Markdown:     cfg.Client.Markdown,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	logger.Info().Str("room", room).Str("user", me.Username).Msg("chat started")
	return tui.Run(ctx, m)
}

var errSessionExpired = errors.New("session expired, run `simplechat login`")

// loadIdentity returns the registered sender and its token.
func loadIdentity() (composer.Identity, string, error) {
	id, err := identity.Open(cfg.Client.IdentityPath)
	if err != nil {
		return composer.Identity{}, "", err
	}
	me, err := id.Registered()
	if errors.Is(err, identity.ErrNotRegistered) {
		return composer.Identity{}, "", errors.New("no registered identity, run `simplechat register` first")
	}
	if err != nil {
		return composer.Identity{}, "", err
	}
	token := id.Token()
	if token == "" {
		return composer.Identity{}, "", errSessionExpired
	}
	return me, token, nil
}
