package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "obligent-cli",
		Short: "Obligent CLI tool",
		Long:  `A command line interface for interacting with the Obligent clearing API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", envOr("OBLIGENT_ADDR", "http://localhost:8080"), "Base URL of the Obligent API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("OBLIGENT_TOKEN"), "Admin bearer token")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(intentCommands())
	rootCmd.AddCommand(accountCommands())
	rootCmd.AddCommand(routeCommands())
	rootCmd.AddCommand(transferCommands())
	rootCmd.AddCommand(mirrorCommands())
	rootCmd.AddCommand(ledgerCommands())
	rootCmd.AddCommand(auditCommands())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func intentCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intents",
		Short: "Obligation intent operations",
	}

	var (
		claimant       string
		amountMinor    int64
		purpose        string
		idempotencyKey string
		attestations   []string
	)

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an obligation intent",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/v1/intents", map[string]any{
				"claimant_account_id": claimant,
				"amount_minor":        amountMinor,
				"purpose":             purpose,
				"idempotency_key":     idempotencyKey,
				"attestations":        attestations,
			})
		},
	}
	submitCmd.Flags().StringVar(&claimant, "claimant", "", "Claimant account id")
	submitCmd.Flags().Int64Var(&amountMinor, "amount", 0, "Amount in minor units")
	submitCmd.Flags().StringVar(&purpose, "purpose", "", "Clearing purpose")
	submitCmd.Flags().StringVar(&idempotencyKey, "key", "", "Idempotency key")
	submitCmd.Flags().StringSliceVar(&attestations, "attestation", nil, "Attestation token (repeatable)")
	submitCmd.MarkFlagRequired("claimant")
	submitCmd.MarkFlagRequired("amount")
	submitCmd.MarkFlagRequired("purpose")
	submitCmd.MarkFlagRequired("key")

	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Get an intent",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/intents/"+args[0], nil)
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel [id]",
		Short: "Cancel a pending intent",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/v1/intents/"+args[0]+"/cancel", nil)
		},
	}

	cmd.AddCommand(submitCmd, getCmd, cancelCmd)

	return cmd
}

func accountCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var (
		id     string
		name   string
		ledger string
		class  string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/v1/accounts", map[string]any{
				"id":     id,
				"name":   name,
				"ledger": ledger,
				"class":  class,
			})
		},
	}
	createCmd.Flags().StringVar(&id, "id", "", "Account id (generated when empty)")
	createCmd.Flags().StringVar(&name, "name", "", "Account name")
	createCmd.Flags().StringVar(&ledger, "ledger", "", "Ledger the account belongs to")
	createCmd.Flags().StringVar(&class, "class", "", "Account class (asset, liability, obligation or external)")
	createCmd.MarkFlagRequired("name")
	createCmd.MarkFlagRequired("ledger")
	createCmd.MarkFlagRequired("class")

	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Get an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/accounts/"+args[0], nil)
		},
	}

	var limit, offset int

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/accounts?limit="+strconv.Itoa(limit)+"&offset="+strconv.Itoa(offset), nil)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	deactivateCmd := &cobra.Command{
		Use:   "deactivate [id]",
		Short: "Deactivate an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/v1/accounts/"+args[0]+"/deactivate", nil)
		},
	}

	transfersCmd := &cobra.Command{
		Use:   "transfers [id]",
		Short: "List an account's transfers",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/accounts/"+args[0]+"/transfers", nil)
		},
	}

	cmd.AddCommand(createCmd, getCmd, listCmd, deactivateCmd, transfersCmd)

	return cmd
}

func routeCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Clearing route operations",
	}

	var (
		purpose     string
		accountID   string
		direction   string
		description string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a clearing route",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/v1/routes", map[string]any{
				"purpose":               purpose,
				"obligation_account_id": accountID,
				"direction":             direction,
				"description":           description,
			})
		},
	}
	createCmd.Flags().StringVar(&purpose, "purpose", "", "Purpose the route serves")
	createCmd.Flags().StringVar(&accountID, "account", "", "Obligation account id")
	createCmd.Flags().StringVar(&direction, "direction", "", "Transfer direction (outbound or inbound)")
	createCmd.Flags().StringVar(&description, "description", "", "Route description")
	createCmd.MarkFlagRequired("purpose")
	createCmd.MarkFlagRequired("account")
	createCmd.MarkFlagRequired("direction")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List clearing routes",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/routes", nil)
		},
	}

	cmd.AddCommand(createCmd, listCmd)

	return cmd
}

func transferCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "Transfer operations",
	}

	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Get a transfer from the authoritative ledger",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/transfers/"+args[0], nil)
		},
	}

	honoringCmd := &cobra.Command{
		Use:   "honoring [id]",
		Short: "List honoring attempts for a transfer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/transfers/"+args[0]+"/honoring", nil)
		},
	}

	cmd.AddCommand(getCmd, honoringCmd)

	return cmd
}

func mirrorCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Mirror (eventually consistent) operations",
	}

	getCmd := &cobra.Command{
		Use:   "get [transfer-id]",
		Short: "Get a mirrored transfer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/mirror/transfers/"+args[0], nil)
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history [account-id]",
		Short: "List an account's mirrored transfer history",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/mirror/accounts/"+args[0]+"/transfers", nil)
		},
	}

	rebuildCmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the mirror from the authoritative ledger",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/v1/mirror/rebuild", nil)
		},
	}

	cmd.AddCommand(getCmd, historyCmd, rebuildCmd)

	return cmd
}

func ledgerCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	}

	cmd.AddCommand(consistencyCmd)

	return cmd
}

func auditCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail operations",
	}

	var (
		intentID   string
		transferID string
		limit      int
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List audit records",
		Run: func(cmd *cobra.Command, args []string) {
			path := "/api/v1/audit?limit=" + strconv.Itoa(limit)
			if intentID != "" {
				path += "&intent_id=" + intentID
			}
			if transferID != "" {
				path += "&transfer_id=" + transferID
			}
			doJSON(http.MethodGet, path, nil)
		},
	}
	listCmd.Flags().StringVar(&intentID, "intent", "", "Filter by intent id")
	listCmd.Flags().StringVar(&transferID, "transfer", "", "Filter by transfer id")
	listCmd.Flags().IntVar(&limit, "limit", 50, "Page size")

	cmd.AddCommand(listCmd)

	return cmd
}

// doJSON sends a request and pretty-prints the JSON response.
func doJSON(method, path string, payload any) {
	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}

func checkConsistency() {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/ledger/consistency", nil)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(data))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Consistency check PASSED\n")
	if drift, ok := result["drift"].(string); ok {
		fmt.Printf("Drift: %s\n", drift)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
