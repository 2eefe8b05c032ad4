package utils

import (
	"strings"
	"testing"
)

func TestLogEmbedColors(t *testing.T) {
	if embed := GameStartedEmbed(1234, "111", "222"); embed.Color != ColorGameStarted {
		t.Errorf("Expected start color %#x, got %#x", ColorGameStarted, embed.Color)
	}
	if embed := GameEndedEmbed(1234, "222"); embed.Color != ColorGameEnded {
		t.Errorf("Expected end color %#x, got %#x", ColorGameEnded, embed.Color)
	}
	if embed := GameWonEmbed(1234, "333"); embed.Color != ColorGameWon {
		t.Errorf("Expected win color %#x, got %#x", ColorGameWon, embed.Color)
	}
	if embed := UserBannedEmbed(1234, "333", "222"); embed.Color != ColorUserBanned {
		t.Errorf("Expected ban color %#x, got %#x", ColorUserBanned, embed.Color)
	}
	if embed := FrenzyStartedEmbed("111", "222"); embed.Color != ColorFrenzyStarted {
		t.Errorf("Expected frenzy color %#x, got %#x", ColorFrenzyStarted, embed.Color)
	}
}

func TestEmbedMentionsAndIDs(t *testing.T) {
	embed := GameStartedEmbed(4242, "111", "222")
	if !strings.Contains(embed.Description, "(4242)") {
		t.Errorf("Expected game id in description, got %q", embed.Description)
	}
	if !strings.Contains(embed.Description, "<#111>") || !strings.Contains(embed.Description, "<@222>") {
		t.Errorf("Expected channel and admin mentions, got %q", embed.Description)
	}

	embed = GameWonEmbed(4242, "333")
	if !strings.Contains(embed.Description, "<@333>") {
		t.Errorf("Expected winner mention, got %q", embed.Description)
	}

	// The requester line is omitted when a frenzy activates without a
	// recorded requester.
	embed = FrenzyStartedEmbed("111", "")
	if strings.Contains(embed.Description, "Responsible user") {
		t.Errorf("Expected no requester line, got %q", embed.Description)
	}
}
