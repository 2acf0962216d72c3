package cmd

import (
	"errors"
	"fmt"
	"os"

	"elmdiag/internal/cmd/root"
	"elmdiag/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "elmdiag",
	Short: "Diagnostics utility for ELM327 devices",
	Long: `elmdiag reads diagnostic data through a vehicle's OBD-II port via an
ELM327-compatible serial adapter and writes a flat report of the
supported Mode 01 parameters.`,
	Args:    cobra.NoArgs,
	PreRunE: requireOptions,
	Run:     root.Run,
}

// requireOptions rejects a bare invocation: at least one option must be
// given, otherwise the usage synopsis is printed and the process exits
// non-zero.
func requireOptions(cmd *cobra.Command, args []string) error {
	if cmd.Flags().NFlag() == 0 {
		return errors.New("at least one option is required")
	}
	return nil
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().StringP("device", "d", "/dev/pts/8", "Serial device of the ELM327 adapter")
	rootCmd.PersistentFlags().StringP("file", "f", "carstats.csv", "Output file for the report")
	rootCmd.PersistentFlags().Int("baud", 38400, "Baud rate for serial connection")
	rootCmd.PersistentFlags().Int("timeout", 3000, "Receive timeout in milliseconds")
	rootCmd.PersistentFlags().Bool("mock", false, "Use mock adapter instead of serial hardware")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().Bool("tui", false, "Show the sweep result in a terminal table")
	rootCmd.PersistentFlags().String("broker", "", "MQTT broker to publish the sweep to (empty disables)")
	rootCmd.PersistentFlags().String("topic", "vehicle/carstats", "MQTT topic for published sweeps")
	rootCmd.PersistentFlags().String("history", "", "File recording past sweeps (empty disables)")

	viper.BindPFlag("device", rootCmd.PersistentFlags().Lookup("device"))
	viper.BindPFlag("file", rootCmd.PersistentFlags().Lookup("file"))
	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("mock", rootCmd.PersistentFlags().Lookup("mock"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("tui", rootCmd.PersistentFlags().Lookup("tui"))
	viper.BindPFlag("broker", rootCmd.PersistentFlags().Lookup("broker"))
	viper.BindPFlag("topic", rootCmd.PersistentFlags().Lookup("topic"))
	viper.BindPFlag("history", rootCmd.PersistentFlags().Lookup("history"))

	// Set default values
	viper.SetDefault("device", "/dev/pts/8")
	viper.SetDefault("file", "carstats.csv")
	viper.SetDefault("baud", 38400)
	viper.SetDefault("timeout", 3000)
	viper.SetDefault("mock", false)
	viper.SetDefault("debug", false)
	viper.SetDefault("tui", false)
	viper.SetDefault("broker", "")
	viper.SetDefault("topic", "vehicle/carstats")
	viper.SetDefault("history", "")
}

func initLogger() {
	log.InitLogger(viper.GetBool("debug"))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
