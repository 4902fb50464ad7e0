/* utils.go
 * Utility functions used across the application
 */

package main

import (
	"fmt"
	"strings"

	"hdc-league/config"
)

// runOptions are the parsed command line toggles
type runOptions struct {
	test   bool
	runBot bool
	runWeb bool
}

// convertStrToBool converts a string of true or false into a boolean for comparisons
// Preconditions: Receives string containing either true or false (case insensitive)
// Postconditions: Returns boolean value or an error if the string is not true or false
func convertStrToBool(str string) (bool, error) {
	str = strings.TrimSpace(str)
	str = strings.ToLower(str)

	if str == "true" {
		return true, nil
	} else if str == "false" {
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean string")
}

// parseRunOptions reads the -test, -bot and -web flags. At least one of the bot and the web server must run
func parseRunOptions(test, runBot, runWeb string) (runOptions, error) {
	var opts runOptions
	var err error
	if opts.test, err = convertStrToBool(test); err != nil {
		return opts, fmt.Errorf("invalid \"test\" flag, should be true or false: %w", err)
	}
	if opts.runBot, err = convertStrToBool(runBot); err != nil {
		return opts, fmt.Errorf("invalid \"bot\" flag, should be true or false: %w", err)
	}
	if opts.runWeb, err = convertStrToBool(runWeb); err != nil {
		return opts, fmt.Errorf("invalid \"web\" flag, should be true or false: %w", err)
	}
	if !opts.runBot && !opts.runWeb {
		return opts, fmt.Errorf("nothing to run: both the bot and the web server are disabled")
	}
	return opts, nil
}

// discordToken picks the production or beta bot token
func discordToken(cfg *config.Config, test bool) (string, error) {
	token, name := cfg.DiscordProd, "DISCORD_PROD_TOKEN"
	if test {
		token, name = cfg.DiscordBeta, "DISCORD_BETA_TOKEN"
	}
	if token == "" {
		return "", fmt.Errorf("%s is not set", name)
	}
	return token, nil
}
