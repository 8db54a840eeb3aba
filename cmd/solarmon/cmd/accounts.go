package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

func accountsCmd() *cobra.Command {
	accountsRoot := &cobra.Command{
		Use:   "accounts",
		Short: "Manage monitored accounts",
		Long: "Manage the inverter accounts the running solarmon server\n" +
			"monitors: list them, register new ones, toggle monitoring,\n" +
			"and inspect live detector state and readings.",
	}

	accountsRoot.AddCommand(
		accountsListCmd(),
		accountsGetCmd(),
		accountsCreateCmd(),
		accountsEnableCmd(),
		accountsDisableCmd(),
		accountsSetEmailCmd(),
		accountsGridFeedCmd(),
		accountsStatusCmd(),
		accountsReadingCmd(),
	)

	return accountsRoot
}

func accountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List actively monitored accounts",
		Example: `  solarmon accounts list`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			accounts, err := c.ListAccounts(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(accounts)
			}

			if len(accounts) == 0 {
				fmt.Println("No accounts found.")
				return nil
			}

			return printAccountsTable(accounts)
		},
	}
}

func accountsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Short:   "Show account details",
		Example: `  solarmon accounts get 2f4a9c`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			a, err := c.GetAccount(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(a)
			}

			return printAccountDetail(a)
		},
	}
}

func accountsCreateCmd() *cobra.Command {
	var (
		name         string
		username     string
		password     string
		serialNumber string
		wifiPN       string
		devCode      int
		devAddr      int
		email        string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new account for monitoring",
		Example: `  solarmon accounts create --name "Home" \
    --username inverter01 --password s3cret \
    --serial 96322107100001 --wifi-pn W0123456789 --dev-code 2376`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			created, err := c.CreateAccount(context.Background(), &domain.Account{
				Name: name,
				Credentials: domain.Credentials{
					Username: username,
					Password: password,
				},
				Device: domain.DeviceID{
					SerialNumber: serialNumber,
					WifiPN:       wifiPN,
					DevCode:      devCode,
					DevAddr:      devAddr,
				},
				NotificationEmail: email,
			})
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(created)
			}

			fmt.Printf("Created account %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&username, "username", "", "provider username")
	cmd.Flags().StringVar(&password, "password", "", "provider password")
	cmd.Flags().StringVar(&serialNumber, "serial", "", "inverter serial number")
	cmd.Flags().StringVar(&wifiPN, "wifi-pn", "", "datalogger wifi PN")
	cmd.Flags().IntVar(&devCode, "dev-code", 0, "provider device code")
	cmd.Flags().IntVar(&devAddr, "dev-addr", 0, "device bus address")
	cmd.Flags().StringVar(&email, "email", "", "alert recipient email")

	for _, f := range []string{"name", "username", "password", "serial", "wifi-pn", "dev-code"} {
		cobra.CheckErr(cmd.MarkFlagRequired(f))
	}

	return cmd
}

func accountsEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "enable <id>",
		Short:   "Enable monitoring for an account",
		Example: `  solarmon accounts enable 2f4a9c`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.SetAccountActive(context.Background(), args[0], true); err != nil {
				return err
			}
			fmt.Printf("Account %s enabled\n", args[0])
			return nil
		},
	}
}

func accountsDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "disable <id>",
		Short:   "Disable monitoring for an account",
		Example: `  solarmon accounts disable 2f4a9c`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.SetAccountActive(context.Background(), args[0], false); err != nil {
				return err
			}
			fmt.Printf("Account %s disabled\n", args[0])
			return nil
		},
	}
}

func accountsSetEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set-email <id> <email>",
		Short:   "Change the alert recipient for an account",
		Example: `  solarmon accounts set-email 2f4a9c owner@example.com`,
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.UpdateNotificationEmail(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Account %s alerts now go to %s\n", args[0], args[1])
			return nil
		},
	}
}

func accountsGridFeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grid-feed <id> <on|off>",
		Short: "Declare whether the inverter should export to the grid",
		Long: "Marks the account's inverter as exporting (on) or not exporting\n" +
			"(off). The grid-feed detector only watches accounts marked on.",
		Example: `  solarmon accounts grid-feed 2f4a9c on`,
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			var enabled bool
			switch args[1] {
			case "on":
				enabled = true
			case "off":
				enabled = false
			default:
				return fmt.Errorf("expected on or off, got %q", args[1])
			}

			c := newClient()
			if err := c.SetGridFeed(context.Background(), args[0], enabled); err != nil {
				return err
			}
			fmt.Printf("Account %s grid feed set to %s\n", args[0], args[1])
			return nil
		},
	}
}

func accountsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status <id>",
		Short:   "Show detector state for an account",
		Example: `  solarmon accounts status 2f4a9c`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			st, err := c.GetAccountStatus(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(st)
			}

			return printAccountStatus(st)
		},
	}
}

func accountsReadingCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "reading <id>",
		Short:   "Fetch the latest inverter reading",
		Example: `  solarmon accounts reading 2f4a9c`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			r, err := c.GetAccountReading(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(r)
			}

			return printReading(r)
		},
	}
}
