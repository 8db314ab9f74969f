package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	rankingType string
	userID      int64
	role        string

	challengerID int64
	defenderID   int64
	eventType    string

	score    string
	winnerID int64
	surface  string
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(rankingsCmd)
	rootCmd.AddCommand(challengesCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(inboxCmd)

	rankingsCmd.Flags().StringVar(&rankingType, "type", "club_elo", "Ladder view: club_elo or rtt_rating")
	challengesCmd.Flags().Int64Var(&userID, "user", 0, "Only list challenges involving this player")
	playersCmd.Flags().StringVar(&role, "role", "", "Only list players with this role")

	challengeCmd.AddCommand(createCmd, showCmd, acceptCmd, cancelCmd, resultCmd)

	createCmd.Flags().Int64Var(&challengerID, "challenger", 0, "Challenging player id")
	createCmd.Flags().Int64Var(&defenderID, "defender", 0, "Defending player id")
	createCmd.Flags().StringVar(&eventType, "event", "friendly", "Event type: friendly, cup or masters")
	_ = createCmd.MarkFlagRequired("challenger")
	_ = createCmd.MarkFlagRequired("defender")

	acceptCmd.Flags().Int64Var(&userID, "user", 0, "Id of the accepting player")
	_ = acceptCmd.MarkFlagRequired("user")

	resultCmd.Flags().StringVar(&score, "score", "", "Final score, e.g. \"6-4 6-4\"")
	resultCmd.Flags().Int64Var(&winnerID, "winner", 0, "Winning player id")
	resultCmd.Flags().StringVar(&surface, "surface", "", "Court surface (defaults to hard)")
	_ = resultCmd.MarkFlagRequired("score")
	_ = resultCmd.MarkFlagRequired("winner")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Show a ladder view",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/ladder/rankings?type="+url.QueryEscape(rankingType), nil)
	},
}

var challengesCmd = &cobra.Command{
	Use:   "challenges",
	Short: "List challenges",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/api/ladder/challenges"
		if userID != 0 {
			endpoint += "?user_id=" + strconv.FormatInt(userID, 10)
		}
		return performRequest(http.MethodGet, endpoint, nil)
	},
}

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Create and manage a single challenge",
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Challenge another player",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/ladder/challenges", map[string]any{
			"challenger_id": challengerID,
			"defender_id":   defenderID,
			"event_type":    eventType,
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/ladder/challenges/"+url.PathEscape(args[0]), nil)
	},
}

var acceptCmd = &cobra.Command{
	Use:   "accept [id]",
	Short: "Accept a pending challenge as the defender",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/ladder/challenges/"+url.PathEscape(args[0])+"/accept", map[string]any{
			"user_id": userID,
		})
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Withdraw a challenge that has no result yet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodDelete, "/api/ladder/challenges/"+url.PathEscape(args[0]), nil)
	},
}

var resultCmd = &cobra.Command{
	Use:   "result [id]",
	Short: "Record the result of a challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/ladder/challenges/"+url.PathEscape(args[0])+"/result", map[string]any{
			"score":     score,
			"winner_id": winnerID,
			"surface":   surface,
		})
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List the players on the ladder",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/api/players"
		if role != "" {
			endpoint += "?role=" + url.QueryEscape(role)
		}
		return performRequest(http.MethodGet, endpoint, nil)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [player-id]",
	Short: "Show a player's recent matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/players/"+url.PathEscape(args[0])+"/matches", nil)
	},
}

var inboxCmd = &cobra.Command{
	Use:   "inbox [player-id]",
	Short: "Show a player's notifications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/players/"+url.PathEscape(args[0])+"/notifications", nil)
	},
}

func performRequest(method, endpoint string, payload any) error {
	target := host + endpoint
	fmt.Printf("Making %s request to %s\n", method, target)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, target, body)
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
