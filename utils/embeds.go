package utils

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Log embed colors for the message-game audit channel.
const (
	ColorGameStarted   = 0x02fa02
	ColorGameEnded     = 0xfa0202
	ColorGameWon       = 0xe18feb
	ColorUserBanned    = 0xfdfe06
	ColorUserUnbanned  = 0x02fa02
	ColorFrenzyStarted = 0x66adf4
)

// CreateBrandedEmbed creates a basic embed with bot branding.
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Message Drop",
		},
	}
}

// GameStartedEmbed is logged when an admin starts a game.
func GameStartedEmbed(gameID int, channelID, adminID string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"New Message Game Started",
		fmt.Sprintf("A new message game with the ID (%d) has started in <#%s>.\nResponsible user for starting this game: <@%s>",
			gameID, channelID, adminID),
		ColorGameStarted,
	)
}

// GameEndedEmbed is logged when an admin ends a game early.
func GameEndedEmbed(gameID int, adminID string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"Message Game Ended",
		fmt.Sprintf("The message game with the ID (%d) has been ended.\nResponsible user for ending the game: <@%s>",
			gameID, adminID),
		ColorGameEnded,
	)
}

// GameWonEmbed is logged when a message wins the drop.
func GameWonEmbed(gameID int, winnerID string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"We have a winner!",
		fmt.Sprintf("<@%s> has won the message game (ID: %d).", winnerID, gameID),
		ColorGameWon,
	)
}

// UserBannedEmbed is logged when an admin bans a user from a game.
func UserBannedEmbed(gameID int, userID, adminID string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"Manually banned user from message game",
		fmt.Sprintf("<@%s> has been banned from the message game with the ID (%d).\nResponsible user for banning: <@%s>",
			userID, gameID, adminID),
		ColorUserBanned,
	)
}

// UserUnbannedEmbed is logged when an admin unbans a user from a game.
func UserUnbannedEmbed(gameID int, userID, adminID string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"Manually unbanned user from message game",
		fmt.Sprintf("<@%s> has been unbanned from the message game with the ID (%d).\nResponsible user for unbanning: <@%s>",
			userID, gameID, adminID),
		ColorUserUnbanned,
	)
}

// FrenzyStartedEmbed is logged when a pending frenzy activates.
func FrenzyStartedEmbed(channelID, requesterID string) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("Frenzy has just started in <#%s>.", channelID)
	if requesterID != "" {
		desc += fmt.Sprintf("\nResponsible user for this frenzy: <@%s>", requesterID)
	}
	return CreateBrandedEmbed("Frenzy has just started", desc, ColorFrenzyStarted)
}
