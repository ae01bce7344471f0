package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(standingsCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(createLeagueCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(metricsCmd)

	createLeagueCmd.Flags().String("description", "", "League description")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest("GET", "/health", nil)
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Advance every unfinished match through notification and completion",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest("POST", "/process", nil)
	},
}

var standingsCmd = &cobra.Command{
	Use:   "standings <league-id>",
	Short: "Show the ladder of a league",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest("GET", "/standings?league="+url.QueryEscape(args[0]), nil)
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches <league-id>",
	Short: "List the matches recorded in a league",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest("GET", "/matches?league="+url.QueryEscape(args[0]), nil)
	},
}

var createLeagueCmd = &cobra.Command{
	Use:   "create-league <name> <code>",
	Short: "Create a league players can join with its code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		return performRequest("POST", "/leagues", map[string]string{
			"name":        args[0],
			"code":        args[1],
			"description": description,
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <league-code> <name> <email>",
	Short: "Register a player in a league",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest("POST", "/register", map[string]string{
			"league_code": args[0],
			"name":        args[1],
			"email":       args[2],
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Get the persisted ladder counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest("GET", "/stats", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest("GET", "/metrics", nil)
	},
}

func performRequest(method, endpoint string, payload any) error {
	u, err := url.Parse(host + endpoint)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if dryRun {
		q := u.Query()
		q.Set("dry_run", "true")
		u.RawQuery = q.Encode()
	}
	fmt.Printf("Making %s request to %s\n", method, u)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
