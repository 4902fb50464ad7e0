/* mock_session.go
 * Contains an in-memory DiscordSession that records replies for the handler tests
 */

package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// MockDiscordSession records every reply instead of sending it. ErrorToReturn makes every send fail
type MockDiscordSession struct {
	SentMessages  []MockMessage
	TypingIn      []string
	ErrorToReturn error
}

// MockMessage is one recorded reply
type MockMessage struct {
	ChannelID string
	Content   string
}

func NewMockDiscordSession() *MockDiscordSession {
	return &MockDiscordSession{SentMessages: make([]MockMessage, 0)}
}

func (m *MockDiscordSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	m.SentMessages = append(m.SentMessages, MockMessage{ChannelID: channelID, Content: content})
	return &discordgo.Message{ID: "mock_message_id", ChannelID: channelID, Content: content}, nil
}

func (m *MockDiscordSession) ChannelTyping(channelID string, options ...discordgo.RequestOption) error {
	m.TypingIn = append(m.TypingIn, channelID)
	return m.ErrorToReturn
}

// GetLastMessage returns the last reply, or an empty MockMessage if nothing was sent
func (m *MockDiscordSession) GetLastMessage() MockMessage {
	if len(m.SentMessages) == 0 {
		return MockMessage{}
	}
	return m.SentMessages[len(m.SentMessages)-1]
}

// Transcript joins every reply, for assertions on long answers that were split into chunks
func (m *MockDiscordSession) Transcript() string {
	parts := make([]string, len(m.SentMessages))
	for i, msg := range m.SentMessages {
		parts[i] = msg.Content
	}
	return strings.Join(parts, "")
}
