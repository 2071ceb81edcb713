package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"github.com/gotd/td/session/tdesktop"
	"github.com/spf13/cobra"
)

var (
	loginPhone   string
	loginTData   string
	loginAccount int
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize a telegram account and print TG_SESSION_STRING",
	Long: `Login signs in with a phone number (the code is read from the terminal)
or imports a Telegram Desktop tdata directory, then prints a session string
for TG_SESSION_STRING. Keep it secret: it grants full account access.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginPhone, "phone", "", "Phone number with country code, e.g. +1234567890")
	loginCmd.Flags().StringVar(&loginTData, "tdata", "", "Telegram Desktop tdata directory to import")
	loginCmd.Flags().IntVar(&loginAccount, "account", 1, "Account number inside tdata")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if !cfg.HasTelegramCredentials() {
		return errors.New("TG_API_ID and TG_API_HASH are required (https://my.telegram.org)")
	}

	opts := &gotgproto.ClientOpts{DisableCopyright: true}
	phone := ""

	if loginTData != "" {
		accounts, err := tdesktop.Read(loginTData, nil)
		if err != nil {
			return fmt.Errorf("read tdata: %w", err)
		}
		if loginAccount < 1 || loginAccount > len(accounts) {
			return fmt.Errorf("account %d out of range, tdata has %d", loginAccount, len(accounts))
		}
		opts.Session = sessionMaker.TdataSession(accounts[loginAccount-1]).Name("tdata_session")
	} else {
		phone = strings.TrimSpace(loginPhone)
		if phone == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "phone number (with country code): ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil {
				return fmt.Errorf("read phone: %w", err)
			}
			phone = strings.TrimSpace(line)
		}
		// nothing is written to disk; the session leaves as a string
		opts.Session = sessionMaker.SqlSession(sqlite.Open("file::memory:"))
		opts.InMemory = true
	}

	log.Info().Msg("authenticating, check telegram for the login code")
	client, err := gotgproto.NewClient(cfg.TGApiID, cfg.TGApiHash, gotgproto.ClientTypePhone(phone), opts)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	defer client.Stop()

	session, err := client.ExportStringSession()
	if err != nil {
		return fmt.Errorf("export session: %w", err)
	}

	log.Info().Str("username", client.Self.Username).Msg("authenticated")
	fmt.Fprintln(cmd.OutOrStdout(), session)
	return nil
}
