package cogs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"msgdrop-go/game"
	"msgdrop-go/utils"

	"github.com/bwmarrin/discordgo"
)

var (
	registry *game.Registry

	// Log channel for game audit embeds; must be set before games start.
	logChannelID string
	logChannelMu sync.RWMutex

	// Last admin to request a frenzy per game, for the activation log.
	frenzyRequesters  = make(map[int]string)
	frenzyRequesterMu sync.Mutex
)

// InitializeMessageGame wires the game registry to the Discord session.
// Call once before the session opens.
func InitializeMessageGame(s *discordgo.Session) {
	registry = game.NewRegistry(game.SystemClock(), game.NewRoller(), &discordNotifier{session: s})
}

// ShutdownMessageGame ends all games and cancels pending frenzy watches.
func ShutdownMessageGame() {
	if registry != nil {
		registry.Shutdown()
	}
}

// RegisterMessageGameCommands returns the message-game slash commands. All
// of them are restricted to administrators; Discord enforces the default
// permission before the interaction reaches the bot.
func RegisterMessageGameCommands() []*discordgo.ApplicationCommand {
	var adminOnly int64 = discordgo.PermissionAdministrator
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "set_log_channel_message_game",
			Description:              "Set the log channel for message game commands",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "The channel to log message game commands",
					Required:    true,
				},
			},
		},
		{
			Name:                     "start_message_game",
			Description:              "Starts a game with a random message drop",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "chance",
					Description: "Chance of message drop (0.00001-100%)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "cooldown",
					Description: "Cooldown in seconds",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Role allowed to play",
					Required:    false,
				},
			},
		},
		{
			Name:                     "end_message_game",
			Description:              "Ends the message game",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "game_id",
					Description: "ID of the game to end",
					Required:    true,
				},
			},
		},
		{
			Name:                     "ban_user_from_message_game",
			Description:              "Bans a user from playing the message game",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "game_id",
					Description: "ID of the game",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to ban",
					Required:    true,
				},
			},
		},
		{
			Name:                     "unban_user_from_message_game",
			Description:              "Unbans a user from playing the message game",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "game_id",
					Description: "ID of the game",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to unban",
					Required:    true,
				},
			},
		},
		{
			Name:                     "active_games",
			Description:              "Lists all active games",
			DefaultMemberPermissions: &adminOnly,
		},
		{
			Name:                     "message_game_history",
			Description:              "Shows recent message game events from the audit trail",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "limit",
					Description: "Number of events to show (default 10)",
					Required:    false,
				},
			},
		},
		{
			Name:                     "start_frenzy",
			Description:              "Starts a frenzy with a chance multiplier",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "game_id",
					Description: "ID of the game",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "length",
					Description: "Length of the frenzy in seconds",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "multiplier",
					Description: "Chance multiplier",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "frenzy_chance",
					Description: "Chance this frenzy starts",
					Required:    true,
				},
			},
		},
	}
}

// HandleMessageGameCommand routes message-game slash commands.
func HandleMessageGameCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "set_log_channel_message_game":
		handleSetLogChannel(s, i)
	case "start_message_game":
		handleStartGame(s, i)
	case "end_message_game":
		handleEndGame(s, i)
	case "ban_user_from_message_game":
		handleBanUser(s, i)
	case "unban_user_from_message_game":
		handleUnbanUser(s, i)
	case "active_games":
		handleActiveGames(s, i)
	case "message_game_history":
		handleGameHistory(s, i)
	case "start_frenzy":
		handleStartFrenzy(s, i)
	}
}

// HandleMessageCreate offers regular chat messages to the running games.
func HandleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	var roles []string
	if m.Member != nil {
		roles = m.Member.Roles
	}

	registry.HandleMessage(game.Message{
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		RoleIDs:   roles,
	})
}

func handleSetLogChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channel := optionMap(i)["channel"].ChannelValue(s)

	logChannelMu.Lock()
	logChannelID = channel.ID
	logChannelMu.Unlock()

	respondEphemeral(s, i, fmt.Sprintf("Log channel set to <#%s>", channel.ID))
}

func handleStartGame(s *discordgo.Session, i *discordgo.InteractionCreate) {
	logChannelMu.RLock()
	logSet := logChannelID != ""
	logChannelMu.RUnlock()
	if !logSet {
		respondEphemeral(s, i, "Log channel is not set. Please set the log channel first using the /set_log_channel_message_game command.")
		return
	}

	opts := optionMap(i)
	chance := opts["chance"].FloatValue()
	cooldown := time.Duration(opts["cooldown"].IntValue()) * time.Second

	var roleID string
	if opt, ok := opts["role"]; ok {
		roleID = opt.RoleValue(s, i.GuildID).ID
	}

	g, err := registry.StartGame(i.ChannelID, chance, cooldown, roleID)
	if err != nil {
		respondEphemeral(s, i, "Chance must be between 0.00001 and 100 percent.")
		return
	}

	adminID := interactionUserID(i)
	sendLogEmbed(s, utils.GameStartedEmbed(g.ID, i.ChannelID, adminID))
	utils.RecordGameEvent(g.ID, i.ChannelID, adminID, utils.EventGameStarted,
		fmt.Sprintf("chance=%g cooldown=%s role=%s", chance, cooldown, roleID))

	logChannelMu.RLock()
	logChannel := logChannelID
	logChannelMu.RUnlock()
	respondEphemeral(s, i, fmt.Sprintf("Game has started and the ID of the game has been sent to <#%s>", logChannel))
}

func handleEndGame(s *discordgo.Session, i *discordgo.InteractionCreate) {
	gameID := int(optionMap(i)["game_id"].IntValue())

	if err := registry.EndGame(gameID); errors.Is(err, game.ErrGameNotFound) {
		respondEphemeral(s, i, fmt.Sprintf("Game %d not found!", gameID))
		return
	}

	frenzyRequesterMu.Lock()
	delete(frenzyRequesters, gameID)
	frenzyRequesterMu.Unlock()

	adminID := interactionUserID(i)
	sendLogEmbed(s, utils.GameEndedEmbed(gameID, adminID))
	utils.RecordGameEvent(gameID, i.ChannelID, adminID, utils.EventGameEnded, "ended by admin")
	respondEphemeral(s, i, "Game ended and logged.")
}

func handleBanUser(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	gameID := int(opts["game_id"].IntValue())
	user := opts["user"].UserValue(s)

	switch err := registry.BanUser(gameID, user.ID); {
	case errors.Is(err, game.ErrGameNotFound):
		respondEphemeral(s, i, fmt.Sprintf("Game %d not found!", gameID))
		return
	case errors.Is(err, game.ErrAlreadyBanned):
		respondEphemeral(s, i, "User is already banned from this game.")
		return
	}

	adminID := interactionUserID(i)
	sendLogEmbed(s, utils.UserBannedEmbed(gameID, user.ID, adminID))
	utils.RecordGameEvent(gameID, i.ChannelID, user.ID, utils.EventUserBanned, "banned by "+adminID)
	respondEphemeral(s, i, "User banned and logged.")
}

func handleUnbanUser(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	gameID := int(opts["game_id"].IntValue())
	user := opts["user"].UserValue(s)

	switch err := registry.UnbanUser(gameID, user.ID); {
	case errors.Is(err, game.ErrGameNotFound):
		respondEphemeral(s, i, fmt.Sprintf("Game %d not found!", gameID))
		return
	case errors.Is(err, game.ErrNotBanned):
		respondEphemeral(s, i, "User is not banned from this game.")
		return
	}

	adminID := interactionUserID(i)
	sendLogEmbed(s, utils.UserUnbannedEmbed(gameID, user.ID, adminID))
	utils.RecordGameEvent(gameID, i.ChannelID, user.ID, utils.EventUserUnbanned, "unbanned by "+adminID)
	respondEphemeral(s, i, "User unbanned and logged.")
}

func handleActiveGames(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ids := registry.ActiveGameIDs()
	if len(ids) == 0 {
		respondEphemeral(s, i, "No active games currently.")
		return
	}

	parts := make([]string, len(ids))
	for idx, id := range ids {
		parts[idx] = fmt.Sprintf("%d", id)
	}
	respondEphemeral(s, i, "Active games: "+strings.Join(parts, ", "))
}

func handleGameHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	limit := 10
	if opt, ok := optionMap(i)["limit"]; ok {
		limit = int(opt.IntValue())
	}
	if limit < 1 || limit > 25 {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := utils.RecentGameEvents(ctx, limit)
	if err != nil {
		log.Printf("Failed to load game history: %v", err)
		respondEphemeral(s, i, "Failed to load game history.")
		return
	}
	if len(events) == 0 {
		respondEphemeral(s, i, "No game history recorded.")
		return
	}

	lines := make([]string, len(events))
	for idx, e := range events {
		lines[idx] = fmt.Sprintf("<t:%d:R> game %d: %s", e.CreatedAt.Unix(), e.GameID, e.Event)
		if e.Detail != "" {
			lines[idx] += " (" + e.Detail + ")"
		}
	}
	respondEphemeral(s, i, strings.Join(lines, "\n"))
}

func handleStartFrenzy(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	gameID := int(opts["game_id"].IntValue())
	length := time.Duration(opts["length"].IntValue()) * time.Second
	multiplier := opts["multiplier"].FloatValue()
	triggerChance := opts["frenzy_chance"].FloatValue()

	switch err := registry.RequestFrenzy(gameID, length, multiplier, triggerChance); {
	case errors.Is(err, game.ErrGameNotFound):
		respondEphemeral(s, i, "Game not found!")
		return
	case errors.Is(err, game.ErrFrenzyAlreadyActive):
		respondEphemeral(s, i, "A frenzy is already active for this game.")
		return
	case errors.Is(err, game.ErrInvalidConfig):
		respondEphemeral(s, i, "Frenzy length and multiplier must be greater than zero.")
		return
	}

	frenzyRequesterMu.Lock()
	frenzyRequesters[gameID] = interactionUserID(i)
	frenzyRequesterMu.Unlock()

	respondEphemeral(s, i, "Frenzy mode initiated. Messages will be checked to start frenzy.")
}

// discordNotifier delivers the core's announcements over Discord. Send
// failures never propagate back into message evaluation.
type discordNotifier struct {
	session *discordgo.Session
}

func (n *discordNotifier) GameWon(g *game.Game, userID string) {
	content := fmt.Sprintf("<@%s>, you have won the message game! Make a ticket to claim your prize.", userID)
	if _, err := n.session.ChannelMessageSend(g.ChannelID, content); err != nil {
		log.Printf("Failed to announce winner for game %d: %v", g.ID, err)
	}

	sendLogEmbed(n.session, utils.GameWonEmbed(g.ID, userID))
	utils.RecordGameEvent(g.ID, g.ChannelID, userID, utils.EventGameWon, "")
}

func (n *discordNotifier) UserThrottled(g *game.Game, userID string, seconds int) {
	dm, err := n.session.UserChannelCreate(userID)
	if err != nil {
		log.Printf("Failed to open DM with user %s: %v", userID, err)
		return
	}

	content := fmt.Sprintf("You are sending messages too quickly in <#%s>. Please wait for %d seconds before your messages count towards the game again.",
		g.ChannelID, seconds)
	if _, err := n.session.ChannelMessageSend(dm.ID, content); err != nil {
		// Closed DMs are common; the game carries on regardless.
		log.Printf("Failed to send throttle notice to user %s: %v", userID, err)
	}
}

func (n *discordNotifier) FrenzyStarted(g *game.Game, length time.Duration, multiplier float64) {
	content := fmt.Sprintf("A Message Drop frenzy has started in <#%s>!", g.ChannelID)
	if _, err := n.session.ChannelMessageSend(g.ChannelID, content); err != nil {
		log.Printf("Failed to announce frenzy for game %d: %v", g.ID, err)
	}

	frenzyRequesterMu.Lock()
	requester := frenzyRequesters[g.ID]
	frenzyRequesterMu.Unlock()

	sendLogEmbed(n.session, utils.FrenzyStartedEmbed(g.ChannelID, requester))
	utils.RecordGameEvent(g.ID, g.ChannelID, requester, utils.EventFrenzyStarted,
		fmt.Sprintf("length=%s multiplier=%g", length, multiplier))
}

func sendLogEmbed(s *discordgo.Session, embed *discordgo.MessageEmbed) {
	logChannelMu.RLock()
	channelID := logChannelID
	logChannelMu.RUnlock()
	if channelID == "" {
		return
	}

	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Printf("Failed to send log embed: %v", err)
	}
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
