/* bot.go
 * Contains the Bot struct and the helpers shared by the command handlers. Requires a discord bot token and ApiPtr,
 * both of which are passed in from main.go
 */

package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hdc-league/api/api"
	"hdc-league/api/logic"
	"hdc-league/api/store"

	"github.com/go-andiamo/splitter"
	"github.com/rs/zerolog"
)

// discordMessageLimit is the maximum length of a single Discord message
const discordMessageLimit = 2000

const (
	commandTimeout = 15 * time.Second
	ingestTimeout  = 2 * time.Minute
)

type Bot struct {
	BotToken string
	APIPtr   *api.API
	logger   zerolog.Logger
}

func NewBot(botToken string, apiPtr *api.API, logger zerolog.Logger) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("botToken is required but none was provided")
	}
	if apiPtr == nil {
		return nil, fmt.Errorf("apiPtr is required but none was provided")
	}

	return &Bot{
		BotToken: botToken,
		APIPtr:   apiPtr,
		logger:   logger.With().Str("component", "bot").Logger(),
	}, nil
}

// startsWith checks if the input string starts with the given substring
func startsWith(input string, substring string) bool {
	return strings.HasPrefix(input, substring)
}

// tokenize splits a command on spaces while keeping quoted team names together, e.g. `"Alpha Squad"`
func tokenize(content string) ([]string, error) {
	spaceSplitter, err := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	if err != nil {
		return nil, err
	}
	parts, err := spaceSplitter.Split(strings.TrimSpace(content))
	if err != nil {
		return nil, err
	}

	args := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = strings.NewReplacer("\"", "", "“", "", "”", "").Replace(p)
		args = append(args, p)
	}
	return args, nil
}

// chunkMessage splits a reply into Discord sized messages on line boundaries
func chunkMessage(content string) []string {
	if len(content) <= discordMessageLimit {
		return []string{content}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(content, "\n") {
		for len(line) > discordMessageLimit {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, line[:discordMessageLimit])
			line = line[discordMessageLimit:]
		}
		if current.Len()+len(line) > discordMessageLimit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// errorReply turns an api error into the text shown to the user
func errorReply(err error) string {
	var invalid *logic.InvalidSubmissionError
	if errors.As(err, &invalid) {
		return fmt.Sprintf("Submission rejected: %s", invalid.Reason)
	}
	if ute, ok := api.IsUnmatchedTeam(err); ok {
		var res strings.Builder
		res.WriteString(fmt.Sprintf("Could not work out which league team played as side %s: %s.\n", ute.Side, ute.Reason))
		if len(ute.Roster) > 0 {
			res.WriteString(fmt.Sprintf("Players: %s\n", strings.Join(ute.Roster, ", ")))
		}
		for _, c := range ute.Candidates {
			res.WriteString(fmt.Sprintf("- %s (`%s`), %d matching players\n", c.Name, c.TeamID, c.Score))
		}
		res.WriteString("Run the command again with both team ids at the end to pick the teams manually.")
		return res.String()
	}

	switch {
	case errors.Is(err, api.ErrInvalidRequest), errors.Is(err, api.ErrNoGames), errors.Is(err, store.ErrDuplicateFixture):
		return err.Error()
	case errors.Is(err, api.ErrSubmissionContention):
		return "The fixture was being updated at the same time, please try again"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"
	default:
		return "An unexpected error occurred"
	}
}
