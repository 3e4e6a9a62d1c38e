// Command certsync drives the artifacts of a buyer's certificates to completion
// from outside the storefront, and verifies certificate numbers.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/doitintl/hello/offset-checkout/apiclient"
)

const envPrefix = "CERTSYNC"

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "certsync",
		Short:         "Render and verify offset certificates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(v, configFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default $HOME/.certsync.yaml)")
	flags.String("api-url", "http://localhost:8082", "base url of the checkout api")
	flags.String("identity-token", "", "storefront session token")
	flags.Duration("timeout", 30*time.Second, "timeout of a single api call")

	_ = v.BindPFlag("api_url", flags.Lookup("api-url"))
	_ = v.BindPFlag("identity_token", flags.Lookup("identity-token"))
	_ = v.BindPFlag("timeout", flags.Lookup("timeout"))

	rootCmd.AddCommand(watchCmd(v))
	rootCmd.AddCommand(verifyCmd(v))
	rootCmd.AddCommand(retryCmd(v))

	return rootCmd
}

func loadConfig(v *viper.Viper, configFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		return v.ReadInConfig()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	path := filepath.Join(home, ".certsync.yaml")
	if _, err := os.Stat(path); err != nil {
		// the default file is optional
		return nil
	}

	v.SetConfigFile(path)

	return v.ReadInConfig()
}

func newClient(v *viper.Viper) *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL:       v.GetString("api_url"),
		IdentityToken: v.GetString("identity_token"),
		Timeout:       v.GetDuration("timeout"),
	})
}
