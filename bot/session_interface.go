/* session_interface.go
 * Contains the subset of the Discord session the command handlers use, so they can run against a mock
 */

package bot

import "github.com/bwmarrin/discordgo"

// DiscordSession is satisfied by *discordgo.Session
type DiscordSession interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	// ChannelTyping shows the typing indicator while a slow command (an ingest) runs
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

var _ DiscordSession = (*discordgo.Session)(nil)
