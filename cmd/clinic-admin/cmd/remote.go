package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

// User is the subset of an account shown by the CLI
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserListResponse represents the list users response
type UserListResponse struct {
	Count int    `json:"count"`
	Users []User `json:"users"`
}

// StatsResponse represents the admin dashboard counts
type StatsResponse struct {
	Stats struct {
		Users        int64            `json:"users"`
		Patients     int64            `json:"patients"`
		Admins       int64            `json:"admins"`
		Doctors      int64            `json:"doctors"`
		Appointments int64            `json:"appointments"`
		ByStatus     map[string]int64 `json:"by_status"`
	} `json:"stats"`
}

func requireToken() error {
	if apiToken == "" {
		return errors.New("an admin token is required (--token or CLINIC_ADMIN_TOKEN)")
	}
	return nil
}

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print a bearer token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(apiURL, "")
		data, err := client.Request(http.MethodPost, "/api/auth/login", map[string]string{
			"email":    loginEmail,
			"password": loginPassword,
		})
		if err != nil {
			return err
		}

		if output == "json" {
			return printJSON(cmd.OutOrStdout(), data)
		}

		var resp struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
		return err
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		data, err := NewClient(apiURL, apiToken).Request(http.MethodGet, "/api/admin/stats", nil)
		if err != nil {
			return err
		}

		if output == "json" {
			return printJSON(cmd.OutOrStdout(), data)
		}

		var resp StatsResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		s := resp.Stats
		rows := [][]string{
			{"users", strconv.FormatInt(s.Users, 10)},
			{"patients", strconv.FormatInt(s.Patients, 10)},
			{"admins", strconv.FormatInt(s.Admins, 10)},
			{"doctors", strconv.FormatInt(s.Doctors, 10)},
			{"appointments", strconv.FormatInt(s.Appointments, 10)},
		}
		statuses := make([]string, 0, len(s.ByStatus))
		for status := range s.ByStatus {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)
		for _, status := range statuses {
			rows = append(rows, []string{"  " + status, strconv.FormatInt(s.ByStatus[status], 10)})
		}

		printTable(cmd.OutOrStdout(), []string{"METRIC", "COUNT"}, rows)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		data, err := NewClient(apiURL, apiToken).Request(http.MethodGet, "/api/admin/users", nil)
		if err != nil {
			return err
		}

		if output == "json" {
			return printJSON(cmd.OutOrStdout(), data)
		}

		var resp UserListResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		if len(resp.Users) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
			return err
		}

		rows := make([][]string, len(resp.Users))
		for i, u := range resp.Users {
			rows[i] = []string{u.ID, u.Name, u.Email, u.Role}
		}
		printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "EMAIL", "ROLE"}, rows)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete [user-id]",
	Short: "Delete an account and its appointments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		if _, err := NewClient(apiURL, apiToken).Request(http.MethodDelete, "/api/admin/users/"+args[0], nil); err != nil {
			return err
		}

		_, err := fmt.Fprintf(cmd.OutOrStdout(), "User '%s' deleted successfully.\n", args[0])
		return err
	},
}

var bootstrapStatusCmd = &cobra.Command{
	Use:   "bootstrap-status",
	Short: "Show the outcome of the server's last admin bootstrap",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		data, err := NewClient(apiURL, apiToken).Request(http.MethodGet, "/api/admin/bootstrap", nil)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), data)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(bootstrapStatusCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (required)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (required)")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}
