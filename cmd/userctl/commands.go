package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"chatapp/internal/feature/auth/adapters"
	"chatapp/internal/feature/auth/domain/entity"
	"chatapp/internal/feature/auth/usecase"
	"chatapp/internal/platform/db"
	jwtauth "chatapp/internal/platform/jwt"
	platformmongo "chatapp/internal/platform/mongo"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the users table or collection indexes for --store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		switch storeKind {
		case "sql":
			cfg, err := db.LoadConfigFromEnv()
			if err != nil {
				return err
			}
			gdb, err := db.Open(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := gdb.DB(); err == nil {
				defer func() { _ = sqlDB.Close() }()
			}
			if err := adapters.MigrateUsers(gdb); err != nil {
				return err
			}
		case "mongo":
			cfg, err := platformmongo.LoadConfig()
			if err != nil {
				return err
			}
			client, err := platformmongo.NewClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(ctx) }()
			if err := adapters.NewUserMongo(client.Database(cfg.Database)).EnsureIndexes(ctx); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown store %q (want sql or mongo)", storeKind)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "users schema applied (%s)\n", storeKind)
		return nil
	},
}

var signupFlags struct {
	email, fullName, password string
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and print its profile and token",
	Args:  cobra.NoArgs,
	RunE: withService(func(cmd *cobra.Command, svc accountService, _ []string) error {
		u, token, err := svc.Signup(cmd.Context(), usecase.SignupInput{
			FullName: signupFlags.fullName,
			Email:    signupFlags.email,
			Password: signupFlags.password,
		})
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), u, token)
	}),
}

var loginFlags struct {
	email, password string
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify credentials and print a fresh token",
	Args:  cobra.NoArgs,
	RunE: withService(func(cmd *cobra.Command, svc accountService, _ []string) error {
		u, token, err := svc.Login(cmd.Context(), loginFlags.email, loginFlags.password)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), u, token)
	}),
}

var getCmd = &cobra.Command{
	Use:   "get <user-id>",
	Short: "Print a user's profile",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc accountService, args []string) error {
		u, err := svc.CheckAuth(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), u, "")
	}),
}

var verifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Check a session token and print the profile it belongs to",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc accountService, args []string) error {
		cfg, err := jwtauth.LoadConfig()
		if err != nil {
			return err
		}
		userID, err := jwtauth.ParseUserID(args[0], cfg.Secret)
		if err != nil {
			return err
		}
		u, err := svc.CheckAuth(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), u, "")
	}),
}

var updateFlags struct {
	fullName, profilePic, phoneNumber string
}

var updateProfileCmd = &cobra.Command{
	Use:   "update-profile <user-id>",
	Short: "Change profile fields of a user",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc accountService, args []string) error {
		in := updateInput(cmd)
		if in == (usecase.UpdateProfileInput{}) {
			return errors.New("nothing to update: pass --name, --pic or --phone")
		}
		u, err := svc.UpdateProfile(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), u, "")
	}),
}

// updateInput sets only the flags the user passed.
func updateInput(cmd *cobra.Command) usecase.UpdateProfileInput {
	var in usecase.UpdateProfileInput
	if cmd.Flags().Changed("name") {
		in.FullName = &updateFlags.fullName
	}
	if cmd.Flags().Changed("pic") {
		in.ProfilePic = &updateFlags.profilePic
	}
	if cmd.Flags().Changed("phone") {
		in.PhoneNumber = &updateFlags.phoneNumber
	}
	return in
}

func withService(run func(cmd *cobra.Command, svc accountService, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		return run(cmd, svc, args)
	}
}

type result struct {
	User  entity.Profile `json:"user"`
	Token string         `json:"token,omitempty"`
}

func printResult(w io.Writer, u *entity.User, token string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result{User: u.Profile(), Token: token})
}

func init() {
	signupCmd.Flags().StringVar(&signupFlags.email, "email", "", "email address")
	signupCmd.Flags().StringVar(&signupFlags.fullName, "name", "", "full name")
	signupCmd.Flags().StringVar(&signupFlags.password, "password", "", "password (min 6 characters)")
	_ = signupCmd.MarkFlagRequired("email")
	_ = signupCmd.MarkFlagRequired("name")
	_ = signupCmd.MarkFlagRequired("password")

	loginCmd.Flags().StringVar(&loginFlags.email, "email", "", "email address")
	loginCmd.Flags().StringVar(&loginFlags.password, "password", "", "password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	updateProfileCmd.Flags().StringVar(&updateFlags.fullName, "name", "", "new full name")
	updateProfileCmd.Flags().StringVar(&updateFlags.profilePic, "pic", "", "new profile picture URL")
	updateProfileCmd.Flags().StringVar(&updateFlags.phoneNumber, "phone", "", "new phone number")

	rootCmd.AddCommand(migrateCmd, signupCmd, loginCmd, getCmd, verifyCmd, updateProfileCmd)
}
